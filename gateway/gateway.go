// Package gateway defines the market-gateway capability the engine consumes.
// The real broker integration lives outside this repository; the engine only
// sees this interface. Any non-nil error from a gateway call is a gateway
// error and is propagated to the caller unmodified.
package gateway

import (
	"context"

	"github.com/quantrail/advisor/types"
)

// MarketGateway is the broker capability surface: quotes, candles, bracket
// orders, cancellation and position state. Implementations own
// authentication and transport; sessions are constructed explicitly by the
// host and injected, never held as process-wide state.
type MarketGateway interface {
	GetQuote(ctx context.Context, instrumentIDs []string) (map[string]types.Quote, error)
	GetHistoricalCandles(ctx context.Context, instrumentID, interval string, from, to int64) ([]types.Candle, error)
	PlaceBracketOrder(ctx context.Context, order types.BracketOrder) (orderID string, err error)
	CancelOrder(ctx context.Context, orderID string) error
	GetPositions(ctx context.Context) ([]types.Position, error)
}
