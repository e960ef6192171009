// Package api provides the Alpaca REST client.
//
// Base URLs:
//   - Trading (live): https://api.alpaca.markets
//   - Trading (paper): https://paper-api.alpaca.markets
//   - Market data: https://data.alpaca.markets
//
// Every call goes through one primitive that waits on the client's rate
// limit gate, fills :name path placeholders, encodes option structs as query
// strings and maps non-2xx responses to *HTTPError. Nothing is retried.
package api
