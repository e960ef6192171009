// Package poller periodically fetches stock snapshots over REST.
//
// Symbols are split into batches and each batch is one snapshots request,
// so a cycle costs ceil(symbols/batch) tokens of the client's rate limit.
// Failed batches are logged and counted; the next cycle retries them.
package poller
