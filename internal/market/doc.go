// Package market keeps an in-memory registry of Alpaca assets.
//
// The registry loads the asset list once on Start, then reconciles it on a
// fixed interval and emits AssetChange events for additions, status changes
// and removals. It satisfies poller.SymbolSource, so the snapshot poller can
// follow the tradable universe instead of a fixed symbol list.
package market
