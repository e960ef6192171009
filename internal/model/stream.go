package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Account stream payloads (the "data" member of a frame)
// -----------------------------------------------------------------------------

// TradeUpdate is an order lifecycle event from the trade_updates stream.
type TradeUpdate struct {
	Event       string              `json:"event"` // new, fill, partial_fill, canceled, ...
	ExecutionID string              `json:"execution_id,omitempty"`
	Order       Order               `json:"order"`
	Timestamp   *time.Time          `json:"timestamp,omitempty"`
	Price       decimal.NullDecimal `json:"price"`
	Qty         decimal.NullDecimal `json:"qty"`
	PositionQty decimal.NullDecimal `json:"position_qty"`
}

// Authorization is the payload of the authorization frame.
type Authorization struct {
	Status string `json:"status"` // authorized or unauthorized
	Action string `json:"action"`
}

// Authorized reports whether the server accepted the credentials.
func (a Authorization) Authorized() bool { return a.Status == "authorized" }

// Listening is the payload of the listening frame.
type Listening struct {
	Streams []string `json:"streams"`
	Error   string   `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------
// Market data stream messages (one array element)
// -----------------------------------------------------------------------------

// Every element carries its tag in "T". The Type field gives that key an
// exact match so it never falls through to the "t" timestamp.

// StreamTrade is a trade message ("T":"t").
type StreamTrade struct {
	Type   string `json:"T"`
	Symbol string `json:"S"`
	Trade
}

// StreamQuote is a quote message ("T":"q").
type StreamQuote struct {
	Type   string `json:"T"`
	Symbol string `json:"S"`
	Quote
}

// StreamBar is a minute, daily or updated bar message ("T":"b", "d", "u").
type StreamBar struct {
	Type   string `json:"T"`
	Symbol string `json:"S"`
	Bar
}

// TradingStatus is a halt or resume message ("T":"s").
type TradingStatus struct {
	Type       string    `json:"T"`
	Symbol     string    `json:"S"`
	StatusCode string    `json:"sc"`
	StatusMsg  string    `json:"sm"`
	ReasonCode string    `json:"rc"`
	ReasonMsg  string    `json:"rm"`
	Timestamp  time.Time `json:"t"`
	Tape       string    `json:"z"`
}

// LULD is a limit up / limit down band message ("T":"l").
type LULD struct {
	Type           string    `json:"T"`
	Symbol         string    `json:"S"`
	LimitUpPrice   float64   `json:"u"`
	LimitDownPrice float64   `json:"d"`
	Indicator      string    `json:"i"`
	Timestamp      time.Time `json:"t"`
	Tape           string    `json:"z"`
}

// TradeCorrection is a correction message ("T":"c").
type TradeCorrection struct {
	Type                string    `json:"T"`
	Symbol              string    `json:"S"`
	Exchange            string    `json:"x"`
	OriginalID          int64     `json:"oi"`
	OriginalPrice       float64   `json:"op"`
	OriginalSize        float64   `json:"os"`
	OriginalConditions  []string  `json:"oc"`
	CorrectedID         int64     `json:"ci"`
	CorrectedPrice      float64   `json:"cp"`
	CorrectedSize       float64   `json:"cs"`
	CorrectedConditions []string  `json:"cc"`
	Timestamp           time.Time `json:"t"`
	Tape                string    `json:"z"`
}

// TradeCancel is a cancel or error message ("T":"x").
type TradeCancel struct {
	Type      string    `json:"T"`
	Symbol    string    `json:"S"`
	ID        int64     `json:"i"`
	Exchange  string    `json:"x"`
	Price     float64   `json:"p"`
	Size      float64   `json:"s"`
	Action    string    `json:"a"` // C (cancel) or E (error)
	Timestamp time.Time `json:"t"`
	Tape      string    `json:"z"`
}

// Success is a control message ("T":"success"), e.g. msg "connected" or
// "authenticated".
type Success struct {
	Msg string `json:"msg"`
}

// StreamError is a control message ("T":"error").
type StreamError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Subscription echoes the active channel lists ("T":"subscription").
type Subscription struct {
	Trades      []string `json:"trades,omitempty"`
	Quotes      []string `json:"quotes,omitempty"`
	Bars        []string `json:"bars,omitempty"`
	DailyBars   []string `json:"dailyBars,omitempty"`
	UpdatedBars []string `json:"updatedBars,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	LULDs       []string `json:"lulds,omitempty"`
	Corrections []string `json:"corrections,omitempty"`
	CancelErrs  []string `json:"cancelErrors,omitempty"`
}
