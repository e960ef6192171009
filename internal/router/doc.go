// Package router turns inbound stream frames into tagged messages and
// dispatches them to registered handlers.
//
// Data flow:
//
//	connection read loop → Route (parse, filter) → Queue → dispatch goroutine → handlers
//
// Each Router serves one Family. The account family tags frames with a
// "stream" member and wraps the payload in "data"; the market data family
// sends arrays of objects tagged by "T". Tags outside the family's closed
// event set are dropped, as are frames that fail to parse.
package router
