// Package advisor composes the consensus engine, the trade lifecycle manager
// and the options pricer behind the single facade the presentation layer
// talks to. The engine is a single logical actor: it starts no goroutines,
// and callers must serialize access to one instance (the scheduler package
// does this with a mutex).
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantrail/advisor/config"
	"github.com/quantrail/advisor/consensus"
	"github.com/quantrail/advisor/gateway"
	"github.com/quantrail/advisor/lifecycle"
	"github.com/quantrail/advisor/logger"
	"github.com/quantrail/advisor/options"
	"github.com/quantrail/advisor/recorder"
	"github.com/quantrail/advisor/risk"
	"github.com/quantrail/advisor/types"
)

// Engine is the decision-and-lifecycle core. All collaborators are injected
// once at construction; there is no lazy loading and no ambient session
// state.
type Engine struct {
	cfg       *config.Config
	gw        gateway.MarketGateway
	consensus *consensus.Engine
	trades    *lifecycle.Manager
	log       logger.Logger
	now       func() time.Time
}

// New wires the engine. rec may be nil to disable the closed-trade log.
func New(cfg *config.Config, gw gateway.MarketGateway, log logger.Logger, rec recorder.Recorder) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("advisor: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gw == nil {
		return nil, errors.New("advisor: nil gateway")
	}
	if log == nil {
		log = logger.Nop()
	}
	ce := consensus.New(consensus.Config{
		HigherShortMA:   cfg.Consensus.HigherShortMA,
		HigherLongMA:    cfg.Consensus.HigherLongMA,
		LowerShortMA:    cfg.Consensus.LowerShortMA,
		LowerLongMA:     cfg.Consensus.LowerLongMA,
		RSIPeriod:       cfg.Consensus.RSIPeriod,
		BollingerPeriod: cfg.Consensus.BollingerPeriod,
		BollingerK:      cfg.Consensus.BollingerK,
		ATRPeriod:       cfg.Consensus.ATRPeriod,
		MinConfidence:   cfg.Consensus.MinConfidence,
	}, log)
	tm := lifecycle.New(gw, lifecycle.Config{
		MaxOpenTrades: cfg.Lifecycle.MaxOpenTrades,
		MinConfidence: cfg.Lifecycle.MinConfidence,
	}, log, rec)
	return &Engine{
		cfg:       cfg,
		gw:        gw,
		consensus: ce,
		trades:    tm,
		log:       log,
		now:       time.Now,
	}, nil
}

// Analyze fetches both candle timeframes and the current quote, then runs
// the full consensus evaluation. The returned signal is informational when
// its direction is NONE.
func (e *Engine) Analyze(ctx context.Context, instrumentID, symbol string) (types.ConsensusSignal, error) {
	if instrumentID == "" || symbol == "" {
		return types.ConsensusSignal{}, fmt.Errorf("advisor: instrumentID and symbol are required")
	}
	to := e.now()
	from := to.AddDate(0, 0, -10)

	higher, err := e.gw.GetHistoricalCandles(ctx, instrumentID, e.cfg.Instrument.HigherInterval, from.Unix(), to.Unix())
	if err != nil {
		return types.ConsensusSignal{}, err
	}
	lower, err := e.gw.GetHistoricalCandles(ctx, instrumentID, e.cfg.Instrument.LowerInterval, from.Unix(), to.Unix())
	if err != nil {
		return types.ConsensusSignal{}, err
	}
	quotes, err := e.gw.GetQuote(ctx, []string{instrumentID})
	if err != nil {
		return types.ConsensusSignal{}, err
	}
	q, ok := quotes[instrumentID]
	if !ok {
		return types.ConsensusSignal{}, fmt.Errorf("advisor: no quote for instrument %s", instrumentID)
	}
	return e.consensus.Evaluate(symbol, instrumentID, higher, lower, q.LastPrice), nil
}

// ExecuteSignals analyzes the configured instrument and opens a trade when
// the signal clears the lifecycle gate. A nil trade with a nil error means
// the gate rejected the signal — an expected outcome, not a failure.
func (e *Engine) ExecuteSignals(ctx context.Context) (*types.ExecutedTrade, error) {
	sig, err := e.Analyze(ctx, e.cfg.Instrument.InstrumentID, e.cfg.Instrument.Symbol)
	if err != nil {
		return nil, err
	}
	trade, err := e.trades.Execute(ctx, sig, e.orderQuantity(sig))
	switch {
	case err == nil:
		return trade, nil
	case errors.Is(err, lifecycle.ErrNoDirection),
		errors.Is(err, lifecycle.ErrLowConfidence),
		errors.Is(err, lifecycle.ErrMaxOpenTrades):
		e.log.Info("signal_not_executed",
			logger.String("symbol", sig.Symbol),
			logger.Float64("confidence", sig.Confidence),
			logger.String("reason", err.Error()),
		)
		return nil, nil
	default:
		return nil, err
	}
}

// orderQuantity sizes the order so a stop-out loses at most
// equity*maxRiskPerTrade against the signal's stop distance. The fixed
// configured quantity is the fallback when sizing is disabled (equity 0) or
// snaps to nothing tradeable.
func (e *Engine) orderQuantity(sig types.ConsensusSignal) float64 {
	if e.cfg.Risk.Equity <= 0 {
		return e.cfg.Instrument.Quantity
	}
	qty := risk.CalcQty(e.cfg.Risk.Equity, e.cfg.Risk.MaxRiskPerTrade, sig.Price, sig.Stoploss, risk.Sizing{
		QuantityPrecision: e.cfg.Risk.QuantityPrecision,
		MinQty:            e.cfg.Risk.MinQty,
		StepSize:          e.cfg.Risk.StepSize,
	})
	if qty <= 0 {
		return e.cfg.Instrument.Quantity
	}
	return qty
}

// Monitor reconciles active trades against gateway positions and returns
// the trades transitioned to CLOSED during this call.
func (e *Engine) Monitor(ctx context.Context) ([]types.ExecutedTrade, error) {
	return e.trades.Monitor(ctx)
}

// CloseTrade manually exits an active trade. It reports false without error
// when the trade id is unknown.
func (e *Engine) CloseTrade(ctx context.Context, tradeID string) (bool, error) {
	_, err := e.trades.CloseTrade(ctx, tradeID)
	if errors.Is(err, lifecycle.ErrTradeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActiveTrades snapshots the active set.
func (e *Engine) ActiveTrades() []types.ExecutedTrade {
	return e.trades.ActiveTrades()
}

// Statistics aggregates performance over active and closed trades.
func (e *Engine) Statistics() types.Statistics {
	return e.trades.Statistics()
}

// PriceOption returns the theoretical premium and Greeks for one contract.
// Rate and volatility are percentages.
func (e *Engine) PriceOption(spot, strike, daysToExpiry, volPct, ratePct float64, optType types.OptionType) (float64, types.Greeks, error) {
	price, err := options.Price(spot, strike, daysToExpiry, volPct, ratePct, 0, optType)
	if err != nil {
		return 0, types.Greeks{}, err
	}
	greeks, err := options.ComputeGreeks(spot, strike, daysToExpiry, volPct, ratePct, 0, optType)
	if err != nil {
		return 0, types.Greeks{}, err
	}
	return price, greeks, nil
}

// SuggestStrategy exposes the option strategy rule table.
func (e *Engine) SuggestStrategy(trend string, volPct, basePrice float64) ([]string, error) {
	return options.SuggestStrategy(trend, volPct, basePrice)
}
