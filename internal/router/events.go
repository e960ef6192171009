package router

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned when an event is not part of a family's set.
var ErrUnknownEvent = errors.New("router: unknown event")

// Family is a stream family. Each family has its own discriminator field
// and closed event set.
type Family int

const (
	FamilyAccount    Family = iota + 1 // trade updates; frames are single objects
	FamilyMarketData                   // stocks, crypto, options, news; frames are arrays
)

func (f Family) String() string {
	switch f {
	case FamilyAccount:
		return "account"
	case FamilyMarketData:
		return "market_data"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Discriminator returns the JSON member that carries the event tag.
func (f Family) Discriminator() string {
	if f == FamilyAccount {
		return "stream"
	}
	return "T"
}

// Event is a message tag.
type Event string

// Account events.
const (
	EventTradeUpdates  Event = "trade_updates"
	EventListening     Event = "listening"
	EventAuthorization Event = "authorization"
)

// Market data events.
const (
	EventTrades       Event = "t"
	EventQuotes       Event = "q"
	EventBars         Event = "b"
	EventDailyBars    Event = "d"
	EventUpdatedBars  Event = "u"
	EventStatuses     Event = "s"
	EventLULDs        Event = "l"
	EventCorrections  Event = "c"
	EventCancelErrors Event = "x"
	EventNews         Event = "n"
	EventOrderbooks   Event = "o"
	EventSuccess      Event = "success"
	EventSubscription Event = "subscription"
	EventError        Event = "error"
)

var familyEvents = map[Family][]Event{
	FamilyAccount: {EventTradeUpdates, EventListening, EventAuthorization},
	FamilyMarketData: {
		EventTrades, EventQuotes, EventBars, EventDailyBars, EventUpdatedBars,
		EventStatuses, EventLULDs, EventCorrections, EventCancelErrors,
		EventNews, EventOrderbooks,
		EventSuccess, EventSubscription, EventError,
	},
}

// Subscription channel per market data event. Corrections and cancels are
// delivered with trades; control events have no channel.
var channels = map[Event]string{
	EventTrades:      "trades",
	EventQuotes:      "quotes",
	EventBars:        "bars",
	EventDailyBars:   "dailyBars",
	EventUpdatedBars: "updatedBars",
	EventStatuses:    "statuses",
	EventLULDs:       "lulds",
	EventNews:        "news",
	EventOrderbooks:  "orderbooks",
}

// Events returns the family's event set in declaration order.
func (f Family) Events() []Event {
	return append([]Event(nil), familyEvents[f]...)
}

// Valid reports whether e belongs to the family.
func (f Family) Valid(e Event) bool {
	for _, ev := range familyEvents[f] {
		if ev == e {
			return true
		}
	}
	return false
}

// Listenable reports whether e is sent in an account listen request.
// Only trade_updates is a real stream; the others are server replies.
func (e Event) Listenable() bool {
	return e == EventTradeUpdates
}

// Channel returns the subscription channel of a market data event.
func (e Event) Channel() (string, bool) {
	ch, ok := channels[e]
	return ch, ok
}

// ParseEvent resolves a tag ("t") or channel name ("trades") to an event of
// the family.
func ParseEvent(f Family, s string) (Event, error) {
	if e := Event(s); f.Valid(e) {
		return e, nil
	}
	if f == FamilyMarketData {
		for e, ch := range channels {
			if ch == s {
				return e, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q for %s stream", ErrUnknownEvent, s, f)
}
