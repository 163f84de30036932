// Package lifecycle tracks automatically placed trades from execution to
// close. The manager is a single logical actor: it spawns no goroutines and
// expects the host to serialize calls against one instance. Gateway failures
// propagate to the caller with the trade's recorded state untouched, so a
// retry is always safe.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantrail/advisor/gateway"
	"github.com/quantrail/advisor/logger"
	"github.com/quantrail/advisor/metrics"
	"github.com/quantrail/advisor/recorder"
	"github.com/quantrail/advisor/types"
)

// Open-gate and lookup rejections.
var (
	ErrMaxOpenTrades = errors.New("lifecycle: max open trades reached")
	ErrNoDirection   = errors.New("lifecycle: signal has no direction")
	ErrLowConfidence = errors.New("lifecycle: confidence below minimum")
	ErrInvalidInput  = errors.New("lifecycle: invalid input")
	ErrTradeNotFound = errors.New("lifecycle: trade not found")
)

// Config tunes the open gate.
type Config struct {
	MaxOpenTrades int     // default 3
	MinConfidence float64 // default 80
}

// Manager owns the active-trade store. All mutation happens inside Execute,
// Monitor, CloseTrade and Cancel; nothing else writes to it.
type Manager struct {
	gw     gateway.MarketGateway
	log    logger.Logger
	rec    recorder.Recorder
	cfg    Config
	active map[string]*types.ExecutedTrade
	closed []types.ExecutedTrade
	now    func() time.Time
}

// New builds a manager. rec may be nil; recording then becomes a no-op.
func New(gw gateway.MarketGateway, cfg Config, log logger.Logger, rec recorder.Recorder) *Manager {
	if cfg.MaxOpenTrades <= 0 {
		cfg.MaxOpenTrades = 3
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 80
	}
	if log == nil {
		log = logger.Nop()
	}
	if rec == nil {
		rec = recorder.Noop{}
	}
	return &Manager{
		gw:     gw,
		log:    log,
		rec:    rec,
		cfg:    cfg,
		active: make(map[string]*types.ExecutedTrade),
		now:    time.Now,
	}
}

// Execute runs the open gate against a consensus signal and, when it clears,
// places a bracket order and records the trade as EXECUTED.
func (m *Manager) Execute(ctx context.Context, sig types.ConsensusSignal, quantity float64) (*types.ExecutedTrade, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity %v", ErrInvalidInput, quantity)
	}
	if sig.Direction == types.None {
		return nil, ErrNoDirection
	}
	if sig.Confidence < m.cfg.MinConfidence {
		return nil, fmt.Errorf("%w: %.1f < %.1f", ErrLowConfidence, sig.Confidence, m.cfg.MinConfidence)
	}
	if len(m.active) >= m.cfg.MaxOpenTrades {
		return nil, fmt.Errorf("%w: %d", ErrMaxOpenTrades, m.cfg.MaxOpenTrades)
	}

	orderID, err := m.gw.PlaceBracketOrder(ctx, types.BracketOrder{
		Symbol:   sig.Symbol,
		Quantity: quantity,
		Side:     sig.Direction,
		Price:    sig.Price,
		Target:   sig.Target,
		Stoploss: sig.Stoploss,
	})
	if err != nil {
		m.log.Error("order_submit_failed",
			logger.String("symbol", sig.Symbol),
			logger.String("side", string(sig.Direction)),
			logger.Err(err),
		)
		return nil, err
	}

	trade := &types.ExecutedTrade{
		ID:           uuid.New().String(),
		Symbol:       sig.Symbol,
		InstrumentID: sig.InstrumentID,
		Direction:    sig.Direction,
		EntryPrice:   sig.Price,
		Quantity:     quantity,
		Target:       sig.Target,
		Stoploss:     sig.Stoploss,
		OrderRef:     orderID,
		Status:       types.StatusExecuted,
		Confidence:   sig.Confidence,
		CreatedAt:    m.now(),
	}
	m.active[trade.ID] = trade

	metrics.TradesOpened.Inc()
	metrics.OpenTrades.Set(float64(len(m.active)))
	m.log.Info("trade_opened",
		logger.String("trade_id", trade.ID),
		logger.String("symbol", trade.Symbol),
		logger.String("side", string(trade.Direction)),
		logger.Float64("entry", trade.EntryPrice),
		logger.Float64("target", trade.Target),
		logger.Float64("stoploss", trade.Stoploss),
		logger.Float64("qty", quantity),
		logger.String("order_ref", orderID),
	)
	out := *trade
	return &out, nil
}

// Monitor reconciles every active trade against the gateway's position
// state. Trades whose position is gone are transitioned to CLOSED and
// returned. The position query happens once up front, so a gateway failure
// leaves all trades untouched.
func (m *Manager) Monitor(ctx context.Context) ([]types.ExecutedTrade, error) {
	if len(m.active) == 0 {
		return nil, nil
	}
	positions, err := m.gw.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	open := make(map[string]types.Position, len(positions))
	for _, p := range positions {
		if p.Quantity != 0 {
			open[p.Symbol] = p
		}
	}

	var closedNow []types.ExecutedTrade
	for id, trade := range m.active {
		if _, stillOpen := open[trade.Symbol]; stillOpen {
			continue
		}
		exitPrice, err := m.lastPrice(ctx, trade)
		if err != nil {
			return closedNow, err
		}
		m.closeTrade(trade, exitPrice, "monitor")
		delete(m.active, id)
		closedNow = append(closedNow, *trade)
	}
	metrics.OpenTrades.Set(float64(len(m.active)))
	return closedNow, nil
}

// CloseTrade manually exits an active trade: fetch the quote, cancel the
// bracket order, then mark the trade CLOSED. Both gateway calls precede any
// mutation.
func (m *Manager) CloseTrade(ctx context.Context, tradeID string) (*types.ExecutedTrade, error) {
	trade, ok := m.active[tradeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}
	exitPrice, err := m.lastPrice(ctx, trade)
	if err != nil {
		return nil, err
	}
	if err := m.gw.CancelOrder(ctx, trade.OrderRef); err != nil {
		return nil, err
	}
	m.closeTrade(trade, exitPrice, "manual")
	delete(m.active, tradeID)
	metrics.OpenTrades.Set(float64(len(m.active)))
	out := *trade
	return &out, nil
}

// Cancel aborts a non-terminal trade without computing P&L. The trade ends
// up in the terminal log as CANCELLED, recorded alongside closed trades but
// kept out of the performance aggregates.
func (m *Manager) Cancel(ctx context.Context, tradeID string) error {
	trade, ok := m.active[tradeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}
	if err := m.gw.CancelOrder(ctx, trade.OrderRef); err != nil {
		return err
	}
	trade.Status = types.StatusCancelled
	trade.ClosedAt = m.now()
	delete(m.active, tradeID)
	m.closed = append(m.closed, *trade)
	metrics.OpenTrades.Set(float64(len(m.active)))
	m.log.Info("trade_cancelled", logger.String("trade_id", trade.ID))
	if err := m.rec.RecordClosedTrade(*trade); err != nil {
		m.log.Error("record_closed_trade_failed",
			logger.String("trade_id", trade.ID), logger.Err(err))
	}
	return nil
}

func (m *Manager) lastPrice(ctx context.Context, trade *types.ExecutedTrade) (float64, error) {
	quotes, err := m.gw.GetQuote(ctx, []string{trade.InstrumentID})
	if err != nil {
		return 0, err
	}
	q, ok := quotes[trade.InstrumentID]
	if !ok {
		return 0, fmt.Errorf("lifecycle: no quote for instrument %s", trade.InstrumentID)
	}
	return q.LastPrice, nil
}

func (m *Manager) closeTrade(trade *types.ExecutedTrade, exitPrice float64, trigger string) {
	pnl := (exitPrice - trade.EntryPrice) * trade.Quantity
	if trade.Direction == types.Sell {
		pnl = -pnl
	}
	trade.Status = types.StatusClosed
	trade.ClosedAt = m.now()
	trade.ExitPrice = exitPrice
	trade.PnL = pnl
	trade.HasPnL = true
	m.closed = append(m.closed, *trade)

	metrics.TradesClosed.WithLabelValues(trigger).Inc()
	metrics.RealizedPnL.Add(pnl)
	m.log.Info("trade_closed",
		logger.String("trade_id", trade.ID),
		logger.String("symbol", trade.Symbol),
		logger.String("trigger", trigger),
		logger.Float64("exit", exitPrice),
		logger.Float64("pnl", pnl),
	)
	if err := m.rec.RecordClosedTrade(*trade); err != nil {
		m.log.Error("record_closed_trade_failed",
			logger.String("trade_id", trade.ID), logger.Err(err))
	}
}

// ActiveTrades returns a snapshot of the active set.
func (m *Manager) ActiveTrades() []types.ExecutedTrade {
	out := make([]types.ExecutedTrade, 0, len(m.active))
	for _, t := range m.active {
		out = append(out, *t)
	}
	return out
}

// ClosedTrades returns a snapshot of the closed-trade log.
func (m *Manager) ClosedTrades() []types.ExecutedTrade {
	out := make([]types.ExecutedTrade, len(m.closed))
	copy(out, m.closed)
	return out
}

// Statistics aggregates over the full tracked set. Win rate counts only
// CLOSED trades and is 0 when none exist; average confidence spans active
// and closed trades. CANCELLED trades sit in the terminal log but never
// entered the market, so they stay out of every aggregate.
func (m *Manager) Statistics() types.Statistics {
	stats := types.Statistics{ActiveTrades: len(m.active)}
	confSum := 0.0
	total := 0
	for _, t := range m.active {
		confSum += t.Confidence
		total++
	}
	wins, closedCount := 0, 0
	for _, t := range m.closed {
		if t.Status != types.StatusClosed {
			continue
		}
		closedCount++
		confSum += t.Confidence
		total++
		if t.HasPnL {
			stats.TotalPnL += t.PnL
			if t.PnL > 0 {
				wins++
			}
		}
	}
	stats.ClosedTrades = closedCount
	if closedCount > 0 {
		stats.WinRate = float64(wins) / float64(closedCount) * 100
	}
	if total > 0 {
		stats.AvgConfidence = confSum / float64(total)
	}
	return stats
}
