// Package ratelimit implements the client-side request throttle.
//
// A TokenBucket holds up to Capacity tokens and refills at FillRate tokens per
// second, computed lazily on each access. A Gate admits callers through the
// bucket in arrival order: blocked callers wait in a FIFO queue and a single
// dispatcher wakes them as tokens accrue.
//
// Defaults match the brokerage's documented allowance: 200 tokens, 3/s.
package ratelimit
