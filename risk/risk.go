// Package risk holds the trade-sizing and level math shared by the consensus
// engine and the lifecycle manager.
package risk

import (
	"math"

	"github.com/quantrail/advisor/types"
)

// Levels computes the ATR-based target and stoploss for a directional entry:
// target = price + 2*ATR, stoploss = price - ATR for BUY, mirrored for SELL.
// The reward:risk design target is therefore fixed at 2:1.
func Levels(direction types.Direction, price, atr float64) (target, stoploss float64) {
	switch direction {
	case types.Buy:
		return price + 2*atr, price - atr
	case types.Sell:
		return price - 2*atr, price + atr
	default:
		return price, price
	}
}

// RewardRatio is |target-price| / |price-stoploss|, 0 when the stoploss sits
// exactly at the entry price.
func RewardRatio(price, target, stoploss float64) float64 {
	riskDist := math.Abs(price - stoploss)
	if riskDist == 0 {
		return 0
	}
	return math.Abs(target-price) / riskDist
}

// Sizing bounds the quantity produced by CalcQty.
type Sizing struct {
	QuantityPrecision int     // decimal places to round to
	MinQty            float64 // broker minimum order size
	StepSize          float64 // exchange quantity increment; <=0 disables snapping
}

// CalcQty sizes a position so that a stop-out loses at most equity*maxRisk.
// The raw quantity is snapped down to the step size, rounded to the
// configured precision, and zeroed when it falls below the broker minimum.
func CalcQty(equity, maxRisk, price, stoploss float64, s Sizing) float64 {
	slDist := math.Abs(price - stoploss)
	if slDist == 0 || equity <= 0 || maxRisk <= 0 {
		return 0
	}
	qty := equity * maxRisk / slDist
	if s.StepSize > 0 {
		qty = math.Floor(qty/s.StepSize) * s.StepSize
	}
	if s.QuantityPrecision >= 0 {
		scale := math.Pow(10, float64(s.QuantityPrecision))
		qty = math.Floor(qty*scale) / scale
	}
	if qty < s.MinQty {
		return 0
	}
	return qty
}
