package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantrail/advisor/types"
)

// MockGateway implements gateway.MarketGateway in-memory with scripted
// responses and per-call failure injection.
type MockGateway struct {
	mu sync.RWMutex

	Quotes    map[string]types.Quote
	Candles   map[string][]types.Candle // keyed by instrumentID
	Positions []types.Position

	orders    []types.BracketOrder
	cancelled []string
	nextOrder int

	FailQuote  error
	FailCandle error
	FailPlace  error
	FailCancel error
	FailPos    error
}

// NewMockGateway returns an empty gateway; populate the exported fields to
// script responses.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Quotes:  make(map[string]types.Quote),
		Candles: make(map[string][]types.Candle),
	}
}

func (m *MockGateway) GetQuote(ctx context.Context, ids []string) (map[string]types.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailQuote != nil {
		return nil, m.FailQuote
	}
	out := make(map[string]types.Quote, len(ids))
	for _, id := range ids {
		if q, ok := m.Quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (m *MockGateway) GetHistoricalCandles(ctx context.Context, id, interval string, from, to int64) ([]types.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailCandle != nil {
		return nil, m.FailCandle
	}
	return m.Candles[id], nil
}

func (m *MockGateway) PlaceBracketOrder(ctx context.Context, order types.BracketOrder) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPlace != nil {
		return "", m.FailPlace
	}
	m.nextOrder++
	m.orders = append(m.orders, order)
	return fmt.Sprintf("MOCK-%d", m.nextOrder), nil
}

func (m *MockGateway) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCancel != nil {
		return m.FailCancel
	}
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

func (m *MockGateway) GetPositions(ctx context.Context) ([]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPos != nil {
		return nil, m.FailPos
	}
	out := make([]types.Position, len(m.Positions))
	copy(out, m.Positions)
	return out, nil
}

// Orders returns a copy of all placed bracket orders (for assertions).
func (m *MockGateway) Orders() []types.BracketOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.BracketOrder, len(m.orders))
	copy(out, m.orders)
	return out
}

// Cancelled returns the order refs cancelled so far.
func (m *MockGateway) Cancelled() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}
