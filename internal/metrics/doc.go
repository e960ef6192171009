// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - REST request counts, latency and rate limit wait time
//   - Stream connection state, dispatched and dropped messages
//   - Stream reconnect attempts
//   - Snapshot poller cycles and failures
package metrics
