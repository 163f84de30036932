package gateway

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/quantrail/advisor/types"
)

// Paper is a broker-free gateway: deterministic synthetic candles, perfect
// fills, in-memory positions. It exists for local runs and demos; it is not
// safe for concurrent use, matching the single-actor model the engine
// assumes.
type Paper struct {
	positions map[string]types.Position
	nextOrder int
	seed      float64
}

// NewPaper creates a paper gateway. seed shifts the synthetic price walk so
// different runs can exercise different regimes.
func NewPaper(seed float64) *Paper {
	return &Paper{
		positions: make(map[string]types.Position),
		seed:      seed,
	}
}

func (p *Paper) price(i int) float64 {
	base := 1000 + p.seed
	return base + 20*math.Sin(float64(i)/7) + float64(i)*0.4
}

func (p *Paper) GetQuote(ctx context.Context, instrumentIDs []string) (map[string]types.Quote, error) {
	out := make(map[string]types.Quote, len(instrumentIDs))
	for _, id := range instrumentIDs {
		out[id] = types.Quote{InstrumentID: id, LastPrice: p.price(200)}
	}
	return out, nil
}

func (p *Paper) GetHistoricalCandles(ctx context.Context, instrumentID, interval string, from, to int64) ([]types.Candle, error) {
	const n = 200
	candles := make([]types.Candle, n)
	ts := time.Unix(from, 0)
	step := time.Minute * 15
	if interval == "60minute" {
		step = time.Hour
	}
	for i := 0; i < n; i++ {
		c := p.price(i)
		o := p.price(i - 1)
		hi := math.Max(o, c) + 2
		lo := math.Min(o, c) - 2
		candles[i] = types.Candle{
			Timestamp: ts.Add(step * time.Duration(i)),
			Open:      o,
			High:      hi,
			Low:       lo,
			Close:     c,
			Volume:    1000 + 500*math.Abs(math.Sin(float64(i)/3)),
		}
	}
	return candles, nil
}

func (p *Paper) PlaceBracketOrder(ctx context.Context, order types.BracketOrder) (string, error) {
	if order.Quantity <= 0 || order.Price <= 0 {
		return "", fmt.Errorf("paper gateway: invalid order %+v", order)
	}
	p.nextOrder++
	qty := order.Quantity
	if order.Side == types.Sell {
		qty = -qty
	}
	pos := p.positions[order.Symbol]
	pos.Symbol = order.Symbol
	pos.Quantity += qty
	pos.AvgPrice = order.Price
	pos.LastPrice = order.Price
	if pos.Quantity == 0 {
		delete(p.positions, order.Symbol)
	} else {
		p.positions[order.Symbol] = pos
	}
	return fmt.Sprintf("PAPER-%d", p.nextOrder), nil
}

func (p *Paper) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}

func (p *Paper) GetPositions(ctx context.Context) ([]types.Position, error) {
	out := make([]types.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	return out, nil
}
