package router

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

func TestFamilyEvents(t *testing.T) {
	tests := []struct {
		family Family
		event  Event
		valid  bool
	}{
		{FamilyAccount, EventTradeUpdates, true},
		{FamilyAccount, EventAuthorization, true},
		{FamilyAccount, EventTrades, false},
		{FamilyMarketData, EventTrades, true},
		{FamilyMarketData, EventCorrections, true},
		{FamilyMarketData, EventSubscription, true},
		{FamilyMarketData, EventTradeUpdates, false},
		{FamilyMarketData, Event("zz"), false},
	}
	for _, tt := range tests {
		t.Run(tt.family.String()+"/"+string(tt.event), func(t *testing.T) {
			if got := tt.family.Valid(tt.event); got != tt.valid {
				t.Errorf("Valid(%q) = %v, want %v", tt.event, got, tt.valid)
			}
		})
	}
}

func TestEventChannel(t *testing.T) {
	if ch, ok := EventDailyBars.Channel(); !ok || ch != "dailyBars" {
		t.Errorf("Channel(d) = %q, %v", ch, ok)
	}
	for _, e := range []Event{EventCorrections, EventCancelErrors, EventSuccess, EventError} {
		if _, ok := e.Channel(); ok {
			t.Errorf("%q should have no channel", e)
		}
	}
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent(FamilyMarketData, "quotes")
	require.NoError(t, err)
	require.Equal(t, EventQuotes, e)

	e, err = ParseEvent(FamilyMarketData, "b")
	require.NoError(t, err)
	require.Equal(t, EventBars, e)

	_, err = ParseEvent(FamilyAccount, "trades")
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestParse(t *testing.T) {
	now := time.Now()

	t.Run("account object", func(t *testing.T) {
		envs, err := Parse(FamilyAccount, []byte(`{"stream":"trade_updates","data":{"event":"new"}}`), now)
		require.NoError(t, err)
		require.Len(t, envs, 1)
		require.Equal(t, EventTradeUpdates, envs[0].Event)
		require.JSONEq(t, `{"event":"new"}`, string(envs[0].Raw))
		require.Equal(t, now, envs[0].ReceivedAt)
	})

	t.Run("market data array", func(t *testing.T) {
		envs, err := Parse(FamilyMarketData, []byte(`[{"T":"t","S":"AAPL","p":1},{"T":"q","S":"MSFT"}]`), now)
		require.NoError(t, err)
		require.Len(t, envs, 2)
		require.Equal(t, EventTrades, envs[0].Event)
		require.Equal(t, EventQuotes, envs[1].Event)
		require.Contains(t, string(envs[0].Raw), `"S":"AAPL"`)
	})

	t.Run("market data bare object", func(t *testing.T) {
		envs, err := Parse(FamilyMarketData, []byte(` {"T":"success","msg":"connected"} `), now)
		require.NoError(t, err)
		require.Len(t, envs, 1)
		require.Equal(t, EventSuccess, envs[0].Event)
	})

	t.Run("unknown tag is returned", func(t *testing.T) {
		envs, err := Parse(FamilyMarketData, []byte(`[{"T":"zz"}]`), now)
		require.NoError(t, err)
		require.Equal(t, Event("zz"), envs[0].Event)
	})

	t.Run("malformed element keeps its siblings", func(t *testing.T) {
		envs, err := Parse(FamilyMarketData, []byte(`[{"T":"t","S":"AAPL","p":1},{"bogus":1},{"T":"q","S":"MSFT"}]`), now)
		require.Len(t, envs, 2)
		require.Equal(t, EventTrades, envs[0].Event)
		require.Equal(t, EventQuotes, envs[1].Event)
		require.Equal(t, now, envs[1].ReceivedAt)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, `{"bogus":1}`, string(de.Data))
		require.Equal(t, 1, DecodeErrors(err))
	})

	malformed := []struct {
		name     string
		family   Family
		data     string
		wantData string
		dropped  int
	}{
		{"empty", FamilyMarketData, "  ", "  ", 1},
		{"not json", FamilyMarketData, "hello", "hello", 1},
		{"truncated array", FamilyMarketData, `[{"T":"t"`, `[{"T":"t"`, 1},
		{"missing tag", FamilyMarketData, `[{"S":"AAPL"}]`, `{"S":"AAPL"}`, 1},
		{"missing stream", FamilyAccount, `{"data":{}}`, `{"data":{}}`, 1},
		{"array of scalars", FamilyMarketData, `[1,2]`, `1`, 2},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			envs, err := Parse(tt.family, []byte(tt.data), now)
			require.Empty(t, envs)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, tt.wantData, string(de.Data))
			require.Equal(t, tt.dropped, DecodeErrors(err))
		})
	}

	require.Zero(t, DecodeErrors(nil))
}

func TestDecode(t *testing.T) {
	envs, err := Parse(FamilyMarketData, []byte(`[{"T":"b","S":"SPY","o":1.5,"h":2,"l":1,"c":1.75,"v":100,"t":"2024-01-15T14:30:00Z"}]`), time.Now())
	require.NoError(t, err)

	bar, err := Decode[model.StreamBar](envs[0])
	require.NoError(t, err)
	require.Equal(t, "SPY", bar.Symbol)
	require.Equal(t, 1.75, bar.Close)
	require.Equal(t, "b", bar.Type)
	require.True(t, bar.Timestamp.Equal(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)))

	quote, err := Decode[model.StreamQuote](Envelope{Raw: []byte(`{"T":"q","S":"AAPL","bp":1.5}`)})
	require.NoError(t, err)
	require.Equal(t, 1.5, quote.BidPrice)

	_, err = Decode[model.StreamBar](Envelope{Raw: []byte(`{"o":"x"}`)})
	var de *DecodeError
	require.True(t, errors.As(err, &de))
}

func TestAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		frame  string
		want   AuthResult
	}{
		{"account authorized", FamilyAccount, `{"stream":"authorization","data":{"status":"authorized","action":"authenticate"}}`, AuthAccepted},
		{"account unauthorized", FamilyAccount, `{"stream":"authorization","data":{"status":"unauthorized","action":"authenticate"}}`, AuthRejected},
		{"account listening", FamilyAccount, `{"stream":"listening","data":{"streams":["trade_updates"]}}`, AuthNone},
		{"market authenticated", FamilyMarketData, `[{"T":"success","msg":"authenticated"}]`, AuthAccepted},
		{"market connected", FamilyMarketData, `[{"T":"success","msg":"connected"}]`, AuthNone},
		{"market auth failed", FamilyMarketData, `[{"T":"error","code":402,"msg":"auth failed"}]`, AuthRejected},
		{"market invalid syntax", FamilyMarketData, `[{"T":"error","code":400,"msg":"invalid syntax"}]`, AuthNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs, err := Parse(tt.family, []byte(tt.frame), time.Now())
			require.NoError(t, err)
			require.Equal(t, tt.want, Authorization(tt.family, envs[0]))
		})
	}
}

// collector records handler invocations in order.
type collector struct {
	mu    sync.Mutex
	calls []string
}

func (c *collector) handler(name string) Handler {
	return func(env Envelope) {
		c.mu.Lock()
		c.calls = append(c.calls, name+":"+string(env.Event))
		c.mu.Unlock()
	}
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func TestRouter_Add(t *testing.T) {
	r := New(FamilyAccount)

	require.ErrorIs(t, r.Add(EventTrades, func(Envelope) {}), ErrUnknownEvent)
	require.NoError(t, r.Add(EventTradeUpdates, func(Envelope) {}))
	require.Equal(t, 1, r.Handlers(EventTradeUpdates))
	require.Equal(t, 1, r.Remove(EventTradeUpdates))
	require.Equal(t, 0, r.Handlers(EventTradeUpdates))
}

func TestRouter_DispatchInRegistrationOrder(t *testing.T) {
	r := New(FamilyMarketData)
	r.Start()
	defer r.Stop()

	var c collector
	h := c.handler("dup")
	require.NoError(t, r.Add(EventTrades, c.handler("first")))
	require.NoError(t, r.Add(EventTrades, h))
	require.NoError(t, r.Add(EventTrades, h))
	require.NoError(t, r.Add(EventQuotes, c.handler("quotes")))

	_, err := r.Route([]byte(`[{"T":"t","S":"AAPL"},{"T":"q","S":"AAPL"}]`), time.Now())
	require.NoError(t, err)

	want := []string{"first:t", "dup:t", "dup:t", "quotes:q"}
	require.Eventually(t, func() bool { return len(c.snapshot()) == len(want) }, time.Second, 5*time.Millisecond)
	require.Equal(t, want, c.snapshot())
	require.EqualValues(t, 4, r.Stats().Dispatched)
}

func TestRouter_DropsUnknownAndMalformed(t *testing.T) {
	r := New(FamilyMarketData)
	r.Start()
	defer r.Stop()

	var c collector
	require.NoError(t, r.Add(EventTrades, c.handler("t")))

	_, err := r.Route([]byte(`not json`), time.Now())
	require.Error(t, err)

	envs, err := r.Route([]byte(`[{"T":"zz"},{"T":"t"}]`), time.Now())
	require.NoError(t, err)
	require.Len(t, envs, 2)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	stats := r.Stats()
	require.EqualValues(t, 2, stats.FramesReceived)
	require.EqualValues(t, 1, stats.ParseErrors)
	require.EqualValues(t, 1, stats.UnknownEvents)
}

func TestRouter_MalformedElementDoesNotDropFrame(t *testing.T) {
	r := New(FamilyMarketData)
	r.Start()
	defer r.Stop()

	var c collector
	require.NoError(t, r.Add(EventTrades, c.handler("t")))

	envs, err := r.Route([]byte(`[{"T":"t","S":"AAPL","p":1},{"bogus":1},[],{"T":"t","S":"MSFT","p":2}]`), time.Now())
	require.Error(t, err)
	require.Len(t, envs, 2)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	stats := r.Stats()
	require.EqualValues(t, 1, stats.FramesReceived)
	require.EqualValues(t, 2, stats.ParseErrors)
	require.EqualValues(t, 2, stats.Dispatched)
}

func TestRouter_NoHandlerCountsUnhandled(t *testing.T) {
	r := New(FamilyAccount)
	r.Start()
	defer r.Stop()

	_, err := r.Route([]byte(`{"stream":"listening","data":{"streams":[]}}`), time.Now())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.Stats().Unhandled == 1 }, time.Second, 5*time.Millisecond)
}

func TestRouter_HandlerPanicIsContained(t *testing.T) {
	r := New(FamilyAccount)
	r.Start()
	defer r.Stop()

	var c collector
	require.NoError(t, r.Add(EventTradeUpdates, func(Envelope) { panic("boom") }))
	require.NoError(t, r.Add(EventTradeUpdates, c.handler("after")))

	_, err := r.Route([]byte(`{"stream":"trade_updates","data":{}}`), time.Now())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	require.EqualValues(t, 1, r.Stats().HandlerPanics)
}

func TestRouter_StopSilencesHandlers(t *testing.T) {
	r := New(FamilyAccount)

	var c collector
	require.NoError(t, r.Add(EventTradeUpdates, c.handler("h")))

	// Queue before the dispatcher runs, then stop: nothing may fire.
	_, err := r.Route([]byte(`{"stream":"trade_updates","data":{}}`), time.Now())
	require.NoError(t, err)
	r.Stop()
	r.Start()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatch loop did not exit after Stop")
	}

	_, err = r.Route([]byte(`{"stream":"trade_updates","data":{}}`), time.Now())
	require.NoError(t, err)
	require.Empty(t, c.snapshot())

	r.Stop()
}
