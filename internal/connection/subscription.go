package connection

import (
	"github.com/rickgao/alpaca-sdk/internal/router"
)

// SubscriptionRequest is a client-to-server subscription frame. The variant
// is fixed by the stream family: ListenRequest for account streams,
// ChannelRequest for market data streams.
type SubscriptionRequest interface {
	Action() string
}

// ListenRequest selects account streams:
//
//	{"action":"listen","data":{"streams":["trade_updates"]}}
//
// It always carries the complete list; streams left out are dropped.
type ListenRequest struct {
	Act  string     `json:"action"`
	Data ListenData `json:"data"`
}

type ListenData struct {
	Streams []string `json:"streams"`
}

func (r ListenRequest) Action() string { return r.Act }

// ChannelRequest adds or removes market data channels:
//
//	{"action":"subscribe","channels":{"trades":["AAPL"],"bars":["*"]}}
type ChannelRequest struct {
	Act      string              `json:"action"` // subscribe or unsubscribe
	Channels map[string][]string `json:"channels"`
}

func (r ChannelRequest) Action() string { return r.Act }

// AllSymbols subscribes a channel to every symbol.
const AllSymbols = "*"

// subscriptions is the active event set of one manager, in activation
// order, with the symbols requested per market data event.
type subscriptions struct {
	family  router.Family
	order   []router.Event
	symbols map[router.Event][]string
}

func newSubscriptions(f router.Family) *subscriptions {
	return &subscriptions{family: f, symbols: make(map[router.Event][]string)}
}

// add activates the event and merges symbols. Reports whether the wire
// state changed.
func (s *subscriptions) add(e router.Event, symbols []string) bool {
	if len(symbols) == 0 {
		symbols = []string{AllSymbols}
	}

	cur, active := s.symbols[e]
	if !active {
		s.order = append(s.order, e)
	}

	changed := !active
	for _, sym := range symbols {
		if !contains(cur, sym) {
			cur = append(cur, sym)
			changed = true
		}
	}
	s.symbols[e] = cur
	return changed && s.onWire(e)
}

// remove deactivates the event and returns its symbols.
func (s *subscriptions) remove(e router.Event) ([]string, bool) {
	syms, ok := s.symbols[e]
	if !ok {
		return nil, false
	}
	delete(s.symbols, e)
	for i, ev := range s.order {
		if ev == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return syms, true
}

func (s *subscriptions) count() int { return len(s.order) }

// onWire reports whether the event is carried by subscription frames.
// Control events and market data events without a channel are handler-only.
func (s *subscriptions) onWire(e router.Event) bool {
	if s.family == router.FamilyAccount {
		return e.Listenable()
	}
	_, ok := e.Channel()
	return ok
}

// request builds the full subscription frame, or nil when no active event
// goes on the wire.
func (s *subscriptions) request() SubscriptionRequest {
	if s.family == router.FamilyAccount {
		streams := s.listenStreams()
		if len(streams) == 0 {
			return nil
		}
		return ListenRequest{Act: "listen", Data: ListenData{Streams: streams}}
	}

	channels := make(map[string][]string)
	for _, e := range s.order {
		if ch, ok := e.Channel(); ok {
			channels[ch] = append([]string(nil), s.symbols[e]...)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	return ChannelRequest{Act: "subscribe", Channels: channels}
}

// removal builds the frame sent after e was removed with the given symbols.
func (s *subscriptions) removal(e router.Event, symbols []string) SubscriptionRequest {
	if !s.onWire(e) {
		return nil
	}
	if s.family == router.FamilyAccount {
		return ListenRequest{Act: "listen", Data: ListenData{Streams: s.listenStreams()}}
	}
	ch, _ := e.Channel()
	return ChannelRequest{Act: "unsubscribe", Channels: map[string][]string{ch: symbols}}
}

func (s *subscriptions) listenStreams() []string {
	streams := make([]string, 0, len(s.order))
	for _, e := range s.order {
		if e.Listenable() {
			streams = append(streams, string(e))
		}
	}
	return streams
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
