// Package connection implements the stream connection manager.
//
// A Manager:
//   - Owns exactly one WebSocket and authenticates with key/secret in-band
//   - Queues subscriptions until the server confirms authorization
//   - Reconnects with exponential backoff within a retry budget
//   - Routes inbound frames through a router.Router to registered handlers
//
// State machine:
//
//	Idle → Connecting → Open → Authenticated
//	  ↑                  │         │
//	  └── Reconnecting ←─┴─────────┘   (budget left)
//	                     └→ Closed     (budget exhausted, reconnect off, or Close)
package connection
