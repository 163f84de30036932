package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantrail/advisor/testutils"
	"github.com/quantrail/advisor/types"
)

func buySignal(confidence float64) types.ConsensusSignal {
	return types.ConsensusSignal{
		Symbol:          "NIFTY",
		InstrumentID:    "256265",
		Direction:       types.Buy,
		Confidence:      confidence,
		Price:           100,
		Target:          104,
		Stoploss:        98,
		RiskRewardRatio: 2,
		Timestamp:       time.Now(),
	}
}

func buildManager(t *testing.T) (*Manager, *testutils.MockGateway) {
	gw := testutils.NewMockGateway()
	gw.Quotes["256265"] = types.Quote{InstrumentID: "256265", LastPrice: 103}
	m := New(gw, Config{MaxOpenTrades: 2, MinConfidence: 80}, testutils.NewMockLogger(), nil)
	return m, gw
}

/*
-----------------------------------------------------------------------
Open gate – a confident directional signal opens a trade in EXECUTED
state with the gateway's order reference attached.
-----------------------------------------------------------------------
*/
func TestExecuteOpensTrade(t *testing.T) {
	m, gw := buildManager(t)

	trade, err := m.Execute(context.Background(), buySignal(85), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade.Status != types.StatusExecuted {
		t.Fatalf("status = %s, want EXECUTED", trade.Status)
	}
	if trade.ID == "" || trade.OrderRef == "" {
		t.Fatalf("trade missing id/order ref: %+v", trade)
	}
	if len(gw.Orders()) != 1 {
		t.Fatalf("expected 1 bracket order, got %d", len(gw.Orders()))
	}
	o := gw.Orders()[0]
	if o.Target != 104 || o.Stoploss != 98 || o.Side != types.Buy {
		t.Fatalf("bracket order should carry the signal levels: %+v", o)
	}
}

func TestExecuteRejectsNoneDirection(t *testing.T) {
	m, _ := buildManager(t)
	sig := buySignal(90)
	sig.Direction = types.None
	if _, err := m.Execute(context.Background(), sig, 10); !errors.Is(err, ErrNoDirection) {
		t.Fatalf("expected ErrNoDirection, got %v", err)
	}
}

func TestExecuteRejectsLowConfidence(t *testing.T) {
	m, _ := buildManager(t)
	if _, err := m.Execute(context.Background(), buySignal(60), 10); !errors.Is(err, ErrLowConfidence) {
		t.Fatalf("expected ErrLowConfidence, got %v", err)
	}
}

func TestExecuteRejectsInvalidQuantity(t *testing.T) {
	m, _ := buildManager(t)
	if _, err := m.Execute(context.Background(), buySignal(90), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExecuteEnforcesConcurrencyCap(t *testing.T) {
	m, _ := buildManager(t)
	for i := 0; i < 2; i++ {
		if _, err := m.Execute(context.Background(), buySignal(90), 10); err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
	}
	if _, err := m.Execute(context.Background(), buySignal(90), 10); !errors.Is(err, ErrMaxOpenTrades) {
		t.Fatalf("expected ErrMaxOpenTrades, got %v", err)
	}
}

/*
-----------------------------------------------------------------------
Gateway failure on execution must leave nothing behind – no trade, no
state change, so the caller can simply retry.
-----------------------------------------------------------------------
*/
func TestExecuteGatewayFailureLeavesStateUntouched(t *testing.T) {
	m, gw := buildManager(t)
	gw.FailPlace = errors.New("exchange down")

	if _, err := m.Execute(context.Background(), buySignal(90), 10); err == nil {
		t.Fatalf("expected gateway error")
	}
	if len(m.ActiveTrades()) != 0 {
		t.Fatalf("failed execution must not leave an active trade")
	}

	gw.FailPlace = nil
	if _, err := m.Execute(context.Background(), buySignal(90), 10); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

/*
-----------------------------------------------------------------------
Monitor – an active trade whose position disappeared from the gateway
transitions to CLOSED exactly once, with P&L computed from the quote.
-----------------------------------------------------------------------
*/
func TestMonitorClosesVanishedPositions(t *testing.T) {
	m, gw := buildManager(t)
	trade, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Position still open: nothing happens.
	gw.Positions = []types.Position{{Symbol: "NIFTY", Quantity: 10}}
	closed, err := m.Monitor(context.Background())
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(closed) != 0 {
		t.Fatalf("open position should not close the trade")
	}

	// Position gone: trade closes at the quoted 103.
	gw.Positions = nil
	closed, err = m.Monitor(context.Background())
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(closed))
	}
	got := closed[0]
	if got.ID != trade.ID || got.Status != types.StatusClosed {
		t.Fatalf("unexpected closed trade: %+v", got)
	}
	if !got.HasPnL || got.PnL != 30 { // (103-100)*10
		t.Fatalf("pnl = %v, want 30", got.PnL)
	}
	if got.ClosedAt.IsZero() {
		t.Fatalf("closedAt not set")
	}
	if len(m.ActiveTrades()) != 0 {
		t.Fatalf("closed trade still in the active set")
	}

	// Second monitor pass is a no-op: closedAt was set exactly once.
	closed, err = m.Monitor(context.Background())
	if err != nil || len(closed) != 0 {
		t.Fatalf("repeat monitor should close nothing: %v %v", closed, err)
	}
}

func TestMonitorSellPnLMirrored(t *testing.T) {
	m, gw := buildManager(t)
	sig := buySignal(90)
	sig.Direction = types.Sell
	sig.Target = 96
	sig.Stoploss = 102
	if _, err := m.Execute(context.Background(), sig, 10); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	gw.Quotes["256265"] = types.Quote{InstrumentID: "256265", LastPrice: 95}
	closed, err := m.Monitor(context.Background())
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(closed) != 1 || closed[0].PnL != 50 { // (100-95)*10
		t.Fatalf("short pnl = %+v, want 50", closed)
	}
}

func TestMonitorGatewayFailureLeavesTradesActive(t *testing.T) {
	m, gw := buildManager(t)
	if _, err := m.Execute(context.Background(), buySignal(90), 10); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	gw.FailPos = errors.New("positions unavailable")
	if _, err := m.Monitor(context.Background()); err == nil {
		t.Fatalf("expected gateway error")
	}
	if len(m.ActiveTrades()) != 1 {
		t.Fatalf("trade must stay active after a failed monitor pass")
	}
}

/*
-----------------------------------------------------------------------
Manual close – quote, cancel, then mutate. A failing cancel leaves the
trade active and unchanged.
-----------------------------------------------------------------------
*/
func TestCloseTradeManually(t *testing.T) {
	m, gw := buildManager(t)
	trade, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	closed, err := m.CloseTrade(context.Background(), trade.ID)
	if err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}
	if closed.Status != types.StatusClosed || closed.PnL != 30 {
		t.Fatalf("unexpected close: %+v", closed)
	}
	if len(gw.Cancelled()) != 1 || gw.Cancelled()[0] != trade.OrderRef {
		t.Fatalf("underlying order not cancelled: %v", gw.Cancelled())
	}
}

func TestCloseTradeCancelFailureIsAtomic(t *testing.T) {
	m, gw := buildManager(t)
	trade, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	gw.FailCancel = errors.New("cancel rejected")

	if _, err := m.CloseTrade(context.Background(), trade.ID); err == nil {
		t.Fatalf("expected cancel error")
	}
	active := m.ActiveTrades()
	if len(active) != 1 || active[0].Status != types.StatusExecuted {
		t.Fatalf("failed close must leave the trade EXECUTED: %+v", active)
	}
}

func TestCloseUnknownTrade(t *testing.T) {
	m, _ := buildManager(t)
	if _, err := m.CloseTrade(context.Background(), "nope"); !errors.Is(err, ErrTradeNotFound) {
		t.Fatalf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestCancelTransitionsWithoutPnL(t *testing.T) {
	m, _ := buildManager(t)
	trade, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := m.Cancel(context.Background(), trade.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	closed := m.ClosedTrades()
	if len(closed) != 1 || closed[0].Status != types.StatusCancelled || closed[0].HasPnL {
		t.Fatalf("unexpected cancelled trade: %+v", closed)
	}
}

// captureRecorder collects everything the manager records.
type captureRecorder struct {
	trades []types.ExecutedTrade
}

func (r *captureRecorder) RecordClosedTrade(t types.ExecutedTrade) error {
	r.trades = append(r.trades, t)
	return nil
}

func (r *captureRecorder) Close() error { return nil }

/*
-----------------------------------------------------------------------
Every terminal transition reaches the recorder: monitor and manual
closes as CLOSED, cancellations as CANCELLED.
-----------------------------------------------------------------------
*/
func TestTerminalTransitionsAreRecorded(t *testing.T) {
	gw := testutils.NewMockGateway()
	gw.Quotes["256265"] = types.Quote{InstrumentID: "256265", LastPrice: 103}
	rec := &captureRecorder{}
	m := New(gw, Config{MaxOpenTrades: 2, MinConfidence: 80}, testutils.NewMockLogger(), rec)

	t1, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	t2, err := m.Execute(context.Background(), buySignal(85), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := m.CloseTrade(context.Background(), t1.ID); err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}
	if err := m.Cancel(context.Background(), t2.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if len(rec.trades) != 2 {
		t.Fatalf("expected 2 recorded trades, got %d", len(rec.trades))
	}
	if rec.trades[0].ID != t1.ID || rec.trades[0].Status != types.StatusClosed {
		t.Fatalf("first record should be the CLOSED trade: %+v", rec.trades[0])
	}
	if rec.trades[1].ID != t2.ID || rec.trades[1].Status != types.StatusCancelled {
		t.Fatalf("second record should be the CANCELLED trade: %+v", rec.trades[1])
	}
}

/*
-----------------------------------------------------------------------
Statistics – win rate over closed trades only, average confidence over
the full tracked set, total P&L over trades that have one.
-----------------------------------------------------------------------
*/
func TestStatistics(t *testing.T) {
	m, gw := buildManager(t)

	if s := m.Statistics(); s.WinRate != 0 || s.AvgConfidence != 0 {
		t.Fatalf("empty stats should be zero: %+v", s)
	}

	// Winner: buy at 100, close at 103.
	t1, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := m.CloseTrade(context.Background(), t1.ID); err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}

	// Loser: buy at 100, close at 97.
	t2, err := m.Execute(context.Background(), buySignal(80), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	gw.Quotes["256265"] = types.Quote{InstrumentID: "256265", LastPrice: 97}
	if _, err := m.CloseTrade(context.Background(), t2.ID); err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}

	// Still-active third trade contributes only to average confidence.
	if _, err := m.Execute(context.Background(), buySignal(100), 10); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	s := m.Statistics()
	if s.ActiveTrades != 1 || s.ClosedTrades != 2 {
		t.Fatalf("counts = %+v", s)
	}
	if s.WinRate != 50 {
		t.Fatalf("win rate = %v, want 50", s.WinRate)
	}
	if s.AvgConfidence != 90 { // (90+80+100)/3
		t.Fatalf("avg confidence = %v, want 90", s.AvgConfidence)
	}
	if s.TotalPnL != 0 { // +30 - 30
		t.Fatalf("total pnl = %v, want 0", s.TotalPnL)
	}
}

/*
-----------------------------------------------------------------------
A cancelled trade never entered the market: it must not inflate the
closed-trade count or dilute the win rate.
-----------------------------------------------------------------------
*/
func TestStatisticsExcludeCancelledTrades(t *testing.T) {
	m, _ := buildManager(t)

	// Winner: buy at 100, close at 103.
	t1, err := m.Execute(context.Background(), buySignal(90), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := m.CloseTrade(context.Background(), t1.ID); err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}

	// Cancelled before any fill.
	t2, err := m.Execute(context.Background(), buySignal(80), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := m.Cancel(context.Background(), t2.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	s := m.Statistics()
	if s.ClosedTrades != 1 {
		t.Fatalf("closed trades = %d, want 1 (cancelled excluded)", s.ClosedTrades)
	}
	if s.WinRate != 100 {
		t.Fatalf("win rate = %v, want 100 (one winner, cancellation out of the denominator)", s.WinRate)
	}
	if s.AvgConfidence != 90 {
		t.Fatalf("avg confidence = %v, want 90 (closed winner only)", s.AvgConfidence)
	}
	if len(m.ClosedTrades()) != 2 {
		t.Fatalf("terminal log should still hold both trades")
	}
}
