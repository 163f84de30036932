package types

import "time"

// Direction is the directional call emitted by detectors and the consensus
// engine.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	None Direction = "NONE"
)

// Candle is one OHLCV bar. Sequences are chronological and immutable once
// produced by the gateway. high >= max(open, close) and low <= min(open, close).
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ConsensusSignal is the outcome of one multi-indicator evaluation. A new
// evaluation always produces a new value; signals are never mutated.
type ConsensusSignal struct {
	Symbol            string
	InstrumentID      string
	Direction         Direction
	Confidence        float64 // 0..100
	MatchedIndicators []string
	Price             float64
	Target            float64
	Stoploss          float64
	RiskRewardRatio   float64
	Timestamp         time.Time
}

// TradeStatus tracks a trade through its lifecycle.
type TradeStatus string

const (
	StatusPending   TradeStatus = "PENDING"
	StatusExecuted  TradeStatus = "EXECUTED"
	StatusClosed    TradeStatus = "CLOSED"
	StatusCancelled TradeStatus = "CANCELLED"
)

// ExecutedTrade is a trade the lifecycle manager opened and tracks. It is
// mutated only by lifecycle transitions (monitor / close / cancel).
type ExecutedTrade struct {
	ID           string
	Symbol       string
	InstrumentID string
	Direction    Direction
	EntryPrice   float64
	Quantity     float64
	Target       float64
	Stoploss     float64
	OrderRef     string
	Status       TradeStatus
	Confidence   float64
	CreatedAt    time.Time
	ClosedAt     time.Time
	ExitPrice    float64
	PnL          float64
	HasPnL       bool
}

// Statistics aggregates lifecycle performance over active and closed trades.
type Statistics struct {
	ActiveTrades  int
	ClosedTrades  int
	WinRate       float64 // 0..100, 0 when no closed trades
	AvgConfidence float64
	TotalPnL      float64
}

// OptionType designates calls (CE) and puts (PE).
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// ExpiryType selects the weekly or monthly expiry calendar.
type ExpiryType string

const (
	Weekly  ExpiryType = "WEEKLY"
	Monthly ExpiryType = "MONTHLY"
)

// Greeks are option price sensitivities. Theta is per calendar day, vega per
// 1% volatility change, rho per 1% rate change.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// OptionContract is a priced contract, recomputed whenever its market inputs
// change.
type OptionContract struct {
	Symbol            string
	BaseSymbol        string
	OptionType        OptionType
	StrikePrice       float64
	ExpiryType        ExpiryType
	ExpiryDate        time.Time
	SpotPrice         float64
	ImpliedVolatility float64 // 0..100
	Greeks            Greeks
	Bid               float64
	Ask               float64
}

// LegSide marks a strategy leg as bought or written.
type LegSide string

const (
	LongLeg  LegSide = "LONG"
	ShortLeg LegSide = "SHORT"
)

// StrategyLeg is one contract within a multi-leg plan.
type StrategyLeg struct {
	Contract OptionContract
	Side     LegSide
	Premium  float64
}

// StrategyPlan is a constructed multi-leg option strategy with its composite
// payoff statistics.
type StrategyPlan struct {
	Name          string
	Legs          []StrategyLeg
	NetDebit      float64
	NetCredit     float64
	MaxProfit     float64
	MaxLoss       float64
	BreakEvenLow  float64
	BreakEvenHigh float64
}

// Quote is the gateway's last-traded snapshot for one instrument.
type Quote struct {
	InstrumentID string
	LastPrice    float64
}

// BracketOrder bundles an entry with predefined target and stoploss.
type BracketOrder struct {
	Symbol   string
	Quantity float64
	Side     Direction
	Price    float64
	Target   float64
	Stoploss float64
}

// Position is the gateway's view of an open position.
type Position struct {
	Symbol    string
	Quantity  float64
	AvgPrice  float64
	LastPrice float64
}
