package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Account
// -----------------------------------------------------------------------------

// Account is the trading account summary.
type Account struct {
	ID                       uuid.UUID       `json:"id"`
	AccountNumber            string          `json:"account_number"`
	Status                   string          `json:"status"`
	CryptoStatus             string          `json:"crypto_status"`
	Currency                 string          `json:"currency"`
	Cash                     decimal.Decimal `json:"cash"`
	PortfolioValue           decimal.Decimal `json:"portfolio_value"`
	Equity                   decimal.Decimal `json:"equity"`
	LastEquity               decimal.Decimal `json:"last_equity"`
	BuyingPower              decimal.Decimal `json:"buying_power"`
	RegTBuyingPower          decimal.Decimal `json:"regt_buying_power"`
	DaytradingBuyingPower    decimal.Decimal `json:"daytrading_buying_power"`
	NonMarginableBuyingPower decimal.Decimal `json:"non_marginable_buying_power"`
	LongMarketValue          decimal.Decimal `json:"long_market_value"`
	ShortMarketValue         decimal.Decimal `json:"short_market_value"`
	InitialMargin            decimal.Decimal `json:"initial_margin"`
	MaintenanceMargin        decimal.Decimal `json:"maintenance_margin"`
	SMA                      decimal.Decimal `json:"sma"`
	Multiplier               decimal.Decimal `json:"multiplier"`
	DaytradeCount            int             `json:"daytrade_count"`
	PatternDayTrader         bool            `json:"pattern_day_trader"`
	TradingBlocked           bool            `json:"trading_blocked"`
	TransfersBlocked         bool            `json:"transfers_blocked"`
	AccountBlocked           bool            `json:"account_blocked"`
	ShortingEnabled          bool            `json:"shorting_enabled"`
	TradeSuspendedByUser     bool            `json:"trade_suspended_by_user"`
	CreatedAt                time.Time       `json:"created_at"`
}

// PortfolioHistory is the equity time series of the account.
type PortfolioHistory struct {
	Timestamp     []int64   `json:"timestamp"` // Unix seconds
	Equity        []float64 `json:"equity"`
	ProfitLoss    []float64 `json:"profit_loss"`
	ProfitLossPct []float64 `json:"profit_loss_pct"`
	BaseValue     float64   `json:"base_value"`
	Timeframe     string    `json:"timeframe"`
}

// AccountConfigurations are the user-adjustable account settings.
type AccountConfigurations struct {
	DTBPCheck              string `json:"dtbp_check,omitempty"`
	TradeConfirmEmail      string `json:"trade_confirm_email,omitempty"`
	SuspendTrade           bool   `json:"suspend_trade"`
	NoShorting             bool   `json:"no_shorting"`
	FractionalTrading      bool   `json:"fractional_trading"`
	MaxMarginMultiplier    string `json:"max_margin_multiplier,omitempty"`
	PDTCheck               string `json:"pdt_check,omitempty"`
	MaxOptionsTradingLevel *int   `json:"max_options_trading_level,omitempty"`
}

// AccountActivity is a trade fill or a non-trade activity such as a dividend.
// Fields not relevant to the activity type are left zero.
type AccountActivity struct {
	ID              string          `json:"id"`
	ActivityType    string          `json:"activity_type"`
	TransactionTime *time.Time      `json:"transaction_time,omitempty"`
	Type            string          `json:"type,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	Side            string          `json:"side,omitempty"`
	Symbol          string          `json:"symbol,omitempty"`
	LeavesQty       decimal.Decimal `json:"leaves_qty"`
	OrderID         string          `json:"order_id,omitempty"`
	CumQty          decimal.Decimal `json:"cum_qty"`
	OrderStatus     string          `json:"order_status,omitempty"`
	Date            string          `json:"date,omitempty"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Description     string          `json:"description,omitempty"`
	Status          string          `json:"status,omitempty"`
}

// -----------------------------------------------------------------------------
// Orders and positions
// -----------------------------------------------------------------------------

// Order is an equity, option or crypto order. AssetClass tells them apart.
type Order struct {
	ID             uuid.UUID           `json:"id"`
	ClientOrderID  string              `json:"client_order_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	SubmittedAt    time.Time           `json:"submitted_at"`
	FilledAt       *time.Time          `json:"filled_at"`
	ExpiredAt      *time.Time          `json:"expired_at"`
	CanceledAt     *time.Time          `json:"canceled_at"`
	FailedAt       *time.Time          `json:"failed_at"`
	ReplacedAt     *time.Time          `json:"replaced_at"`
	ReplacedBy     *uuid.UUID          `json:"replaced_by"`
	Replaces       *uuid.UUID          `json:"replaces"`
	AssetID        uuid.UUID           `json:"asset_id"`
	Symbol         string              `json:"symbol"`
	AssetClass     string              `json:"asset_class"` // us_equity, us_option, crypto
	Notional       decimal.NullDecimal `json:"notional"`
	Qty            decimal.NullDecimal `json:"qty"`
	FilledQty      decimal.Decimal     `json:"filled_qty"`
	FilledAvgPrice decimal.NullDecimal `json:"filled_avg_price"`
	OrderClass     string              `json:"order_class"`
	OrderType      string              `json:"order_type"`
	Type           string              `json:"type"`
	Side           string              `json:"side"`
	TimeInForce    string              `json:"time_in_force"`
	LimitPrice     decimal.NullDecimal `json:"limit_price"`
	StopPrice      decimal.NullDecimal `json:"stop_price"`
	Status         string              `json:"status"`
	ExtendedHours  bool                `json:"extended_hours"`
	Legs           []Order             `json:"legs"`
	TrailPercent   decimal.NullDecimal `json:"trail_percent"`
	TrailPrice     decimal.NullDecimal `json:"trail_price"`
	HWM            decimal.NullDecimal `json:"hwm"`
	Subtag         *string             `json:"subtag"`
	Source         *string             `json:"source"`
}

// Position is an open position.
type Position struct {
	AssetID                uuid.UUID       `json:"asset_id"`
	Symbol                 string          `json:"symbol"`
	Exchange               string          `json:"exchange"`
	AssetClass             string          `json:"asset_class"`
	AvgEntryPrice          decimal.Decimal `json:"avg_entry_price"`
	Qty                    decimal.Decimal `json:"qty"`
	QtyAvailable           decimal.Decimal `json:"qty_available"`
	Side                   string          `json:"side"`
	MarketValue            decimal.Decimal `json:"market_value"`
	CostBasis              decimal.Decimal `json:"cost_basis"`
	UnrealizedPL           decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPC         decimal.Decimal `json:"unrealized_plpc"`
	UnrealizedIntradayPL   decimal.Decimal `json:"unrealized_intraday_pl"`
	UnrealizedIntradayPLPC decimal.Decimal `json:"unrealized_intraday_plpc"`
	CurrentPrice           decimal.Decimal `json:"current_price"`
	LastdayPrice           decimal.Decimal `json:"lastday_price"`
	ChangeToday            decimal.Decimal `json:"change_today"`
	AssetMarginable        bool            `json:"asset_marginable"`
}

// OrderResult is one entry of a bulk cancel or bulk close response.
type OrderResult struct {
	ID     string          `json:"id"` // order ID or symbol
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// -----------------------------------------------------------------------------
// Assets, watchlists, calendar
// -----------------------------------------------------------------------------

// Asset is a tradable instrument.
type Asset struct {
	ID                           uuid.UUID           `json:"id"`
	Class                        string              `json:"class"`
	Exchange                     string              `json:"exchange"`
	Symbol                       string              `json:"symbol"`
	Name                         string              `json:"name"`
	Status                       string              `json:"status"`
	Tradable                     bool                `json:"tradable"`
	Marginable                   bool                `json:"marginable"`
	Shortable                    bool                `json:"shortable"`
	EasyToBorrow                 bool                `json:"easy_to_borrow"`
	Fractionable                 bool                `json:"fractionable"`
	MaintenanceMarginRequirement decimal.NullDecimal `json:"maintenance_margin_requirement"`
	Attributes                   []string            `json:"attributes"`
}

// Watchlist is a named list of assets.
type Watchlist struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Assets    []Asset   `json:"assets"`
}

// Clock is the market clock.
type Clock struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// CalendarDay is one trading day. Times are exchange-local "HH:MM".
type CalendarDay struct {
	Date           string `json:"date"`
	Open           string `json:"open"`
	Close          string `json:"close"`
	SettlementDate string `json:"settlement_date"`
}

// -----------------------------------------------------------------------------
// Options and corporate actions
// -----------------------------------------------------------------------------

// OptionContract is a listed option contract.
type OptionContract struct {
	ID                string              `json:"id"`
	Symbol            string              `json:"symbol"`
	Name              string              `json:"name"`
	Status            string              `json:"status"`
	Tradable          bool                `json:"tradable"`
	ExpirationDate    string              `json:"expiration_date"`
	RootSymbol        string              `json:"root_symbol"`
	UnderlyingSymbol  string              `json:"underlying_symbol"`
	UnderlyingAssetID string              `json:"underlying_asset_id"`
	Type              string              `json:"type"`  // call or put
	Style             string              `json:"style"` // american or european
	StrikePrice       decimal.Decimal     `json:"strike_price"`
	Size              decimal.Decimal     `json:"size"`
	OpenInterest      decimal.NullDecimal `json:"open_interest"`
	OpenInterestDate  *string             `json:"open_interest_date"`
	ClosePrice        decimal.NullDecimal `json:"close_price"`
	ClosePriceDate    *string             `json:"close_price_date"`
}

// OptionContractsPage is a page of option contracts.
type OptionContractsPage struct {
	OptionContracts []OptionContract `json:"option_contracts"`
	NextPageToken   *string          `json:"next_page_token"`
}

// Announcement is a corporate action announcement on the trading API.
type Announcement struct {
	ID                      string              `json:"id"`
	CorporateActionsID      string              `json:"corporate_action_id"`
	CAType                  string              `json:"ca_type"`
	CASubType               string              `json:"ca_sub_type"`
	InitiatingSymbol        string              `json:"initiating_symbol"`
	InitiatingOriginalCusip string              `json:"initiating_original_cusip"`
	TargetSymbol            string              `json:"target_symbol"`
	TargetOriginalCusip     string              `json:"target_original_cusip"`
	DeclarationDate         string              `json:"declaration_date"`
	ExpirationDate          string              `json:"expiration_date"`
	RecordDate              string              `json:"record_date"`
	PayableDate             string              `json:"payable_date"`
	Cash                    decimal.NullDecimal `json:"cash"`
	OldRate                 decimal.NullDecimal `json:"old_rate"`
	NewRate                 decimal.NullDecimal `json:"new_rate"`
}

// -----------------------------------------------------------------------------
// Crypto funding
// -----------------------------------------------------------------------------

// CryptoWallet is a deposit address for an asset.
type CryptoWallet struct {
	ChainID   string    `json:"chain_id,omitempty"`
	Asset     string    `json:"asset_id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// WhitelistedAddress is an approved withdrawal destination.
type WhitelistedAddress struct {
	ID        string    `json:"id"`
	ChainID   string    `json:"chain_id,omitempty"`
	Asset     string    `json:"asset"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CryptoTransfer is a deposit or withdrawal.
type CryptoTransfer struct {
	ID          string              `json:"id"`
	TxHash      *string             `json:"tx_hash"`
	Direction   string              `json:"direction"` // INCOMING or OUTGOING
	Status      string              `json:"status"`
	Amount      decimal.Decimal     `json:"amount"`
	USDValue    decimal.NullDecimal `json:"usd_value"`
	NetworkFee  decimal.NullDecimal `json:"network_fee"`
	Fees        decimal.NullDecimal `json:"fees"`
	Chain       string              `json:"chain"`
	Asset       string              `json:"asset"`
	FromAddress *string             `json:"from_address"`
	ToAddress   *string             `json:"to_address"`
	CreatedAt   time.Time           `json:"created_at"`
}

// FeeEstimate is the estimated network fee for a withdrawal.
type FeeEstimate struct {
	Fee decimal.Decimal `json:"fee"`
}
