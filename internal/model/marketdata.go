package model

import "time"

// -----------------------------------------------------------------------------
// Ticks
// -----------------------------------------------------------------------------

// Trade is a single print. Size is fractional for crypto.
type Trade struct {
	Timestamp  time.Time `json:"t"`
	Price      float64   `json:"p"`
	Size       float64   `json:"s"`
	Exchange   string    `json:"x,omitempty"`
	ID         int64     `json:"i"`
	Conditions []string  `json:"c,omitempty"`
	Tape       string    `json:"z,omitempty"`
	TakerSide  string    `json:"tks,omitempty"` // crypto only: B or S
}

// Quote is a top-of-book quote.
type Quote struct {
	Timestamp   time.Time `json:"t"`
	BidExchange string    `json:"bx,omitempty"`
	BidPrice    float64   `json:"bp"`
	BidSize     float64   `json:"bs"`
	AskExchange string    `json:"ax,omitempty"`
	AskPrice    float64   `json:"ap"`
	AskSize     float64   `json:"as"`
	Conditions  []string  `json:"c,omitempty"`
	Tape        string    `json:"z,omitempty"`
}

// Bar is an OHLCV aggregate.
type Bar struct {
	Timestamp  time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     float64   `json:"v"`
	TradeCount uint64    `json:"n"`
	VWAP       float64   `json:"vw"`
}

// Snapshot bundles the latest trade, quote and bars of a symbol.
type Snapshot struct {
	LatestTrade  *Trade `json:"latestTrade"`
	LatestQuote  *Quote `json:"latestQuote"`
	MinuteBar    *Bar   `json:"minuteBar"`
	DailyBar     *Bar   `json:"dailyBar"`
	PrevDailyBar *Bar   `json:"prevDailyBar"`
}

// OrderbookEntry is one price level.
type OrderbookEntry struct {
	Price float64 `json:"p"`
	Size  float64 `json:"s"`
}

// Orderbook is a crypto order book.
type Orderbook struct {
	Timestamp time.Time        `json:"t"`
	Bids      []OrderbookEntry `json:"b"`
	Asks      []OrderbookEntry `json:"a"`
}

// AuctionPrice is one opening or closing auction print.
type AuctionPrice struct {
	Timestamp time.Time `json:"t"`
	Exchange  string    `json:"x"`
	Price     float64   `json:"p"`
	Size      float64   `json:"s,omitempty"`
	Condition string    `json:"c"`
}

// DailyAuctions are the auctions of one trading day.
type DailyAuctions struct {
	Date    string         `json:"d"`
	Opening []AuctionPrice `json:"o"`
	Closing []AuctionPrice `json:"c"`
}

// ForexRate is a currency exchange rate.
type ForexRate struct {
	Timestamp time.Time `json:"t"`
	BidPrice  float64   `json:"bp"`
	MidPrice  float64   `json:"mp"`
	AskPrice  float64   `json:"ap"`
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

// Historical responses key results by symbol and paginate with NextPageToken.

type MultiBars struct {
	Bars          map[string][]Bar `json:"bars"`
	NextPageToken *string          `json:"next_page_token"`
}

type MultiTrades struct {
	Trades        map[string][]Trade `json:"trades"`
	NextPageToken *string            `json:"next_page_token"`
}

type MultiQuotes struct {
	Quotes        map[string][]Quote `json:"quotes"`
	NextPageToken *string            `json:"next_page_token"`
}

type MultiAuctions struct {
	Auctions      map[string][]DailyAuctions `json:"auctions"`
	NextPageToken *string                    `json:"next_page_token"`
}

type LatestBars struct {
	Bars map[string]Bar `json:"bars"`
}

type LatestTrades struct {
	Trades map[string]Trade `json:"trades"`
}

type LatestQuotes struct {
	Quotes map[string]Quote `json:"quotes"`
}

type LatestOrderbooks struct {
	Orderbooks map[string]Orderbook `json:"orderbooks"`
}

// Snapshots is the crypto and options snapshot response. Stock snapshots
// come back as a bare map[string]Snapshot.
type Snapshots struct {
	Snapshots     map[string]Snapshot `json:"snapshots"`
	NextPageToken *string             `json:"next_page_token"`
}

type ForexRates struct {
	Rates         map[string][]ForexRate `json:"rates"`
	NextPageToken *string                `json:"next_page_token"`
}

type LatestForexRates struct {
	Rates map[string]ForexRate `json:"rates"`
}

// ExchangeCodes maps exchange or condition codes to display names.
type ExchangeCodes map[string]string

// -----------------------------------------------------------------------------
// News and screener
// -----------------------------------------------------------------------------

type NewsImage struct {
	Size string `json:"size"`
	URL  string `json:"url"`
}

// NewsArticle is a news item from the news endpoint.
type NewsArticle struct {
	ID        int64       `json:"id"`
	Headline  string      `json:"headline"`
	Author    string      `json:"author"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Summary   string      `json:"summary"`
	Content   string      `json:"content"`
	URL       string      `json:"url"`
	Images    []NewsImage `json:"images"`
	Symbols   []string    `json:"symbols"`
	Source    string      `json:"source"`
}

type NewsPage struct {
	News          []NewsArticle `json:"news"`
	NextPageToken *string       `json:"next_page_token"`
}

type MostActive struct {
	Symbol     string  `json:"symbol"`
	Volume     float64 `json:"volume"`
	TradeCount float64 `json:"trade_count"`
}

type MostActives struct {
	MostActives []MostActive `json:"most_actives"`
	LastUpdated time.Time    `json:"last_updated"`
}

type Mover struct {
	Symbol        string  `json:"symbol"`
	PercentChange float64 `json:"percent_change"`
	Change        float64 `json:"change"`
	Price         float64 `json:"price"`
}

type Movers struct {
	Gainers     []Mover   `json:"gainers"`
	Losers      []Mover   `json:"losers"`
	MarketType  string    `json:"market_type"`
	LastUpdated time.Time `json:"last_updated"`
}

// -----------------------------------------------------------------------------
// Corporate actions (market data API)
// -----------------------------------------------------------------------------

type CashDividend struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Rate          float64 `json:"rate"`
	Special       bool    `json:"special"`
	Foreign       bool    `json:"foreign"`
	ProcessDate   string  `json:"process_date"`
	ExDate        string  `json:"ex_date"`
	RecordDate    string  `json:"record_date,omitempty"`
	PayableDate   string  `json:"payable_date,omitempty"`
	DueBillOnDate string  `json:"due_bill_on_date,omitempty"`
}

type Split struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	NewRate     float64 `json:"new_rate"`
	OldRate     float64 `json:"old_rate"`
	ProcessDate string  `json:"process_date"`
	ExDate      string  `json:"ex_date"`
	RecordDate  string  `json:"record_date,omitempty"`
	PayableDate string  `json:"payable_date,omitempty"`
}

type NameChange struct {
	ID          string `json:"id"`
	NewSymbol   string `json:"new_symbol"`
	OldSymbol   string `json:"old_symbol"`
	ProcessDate string `json:"process_date"`
}

// CorporateActions groups actions by type. Unlisted types are ignored.
type CorporateActions struct {
	CashDividends []CashDividend `json:"cash_dividends,omitempty"`
	ForwardSplits []Split        `json:"forward_splits,omitempty"`
	ReverseSplits []Split        `json:"reverse_splits,omitempty"`
	UnitSplits    []Split        `json:"unit_splits,omitempty"`
	NameChanges   []NameChange   `json:"name_changes,omitempty"`
}

type CorporateActionsPage struct {
	CorporateActions CorporateActions `json:"corporate_actions"`
	NextPageToken    *string          `json:"next_page_token"`
}
