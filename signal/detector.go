// Package signal maps indicator state onto directional calls. Crossover
// detectors compare the current evaluation window against the same
// computation excluding the most recent candle, so they fire on the crossing
// event itself rather than on a persisting condition. RSI and Bollinger use
// static zones.
package signal

import (
	"github.com/quantrail/advisor/indicator"
	"github.com/quantrail/advisor/types"
)

// MACross detects a short/long moving-average crossover. BUY when the short
// MA was at or below the long MA on the previous window and is above it now;
// SELL on the mirrored condition.
func MACross(closes []float64, shortPeriod, longPeriod int) types.Direction {
	if len(closes) < 2 {
		return types.None
	}
	prev := closes[:len(closes)-1]
	prevShort := indicator.SMA(prev, shortPeriod)
	prevLong := indicator.SMA(prev, longPeriod)
	curShort := indicator.SMA(closes, shortPeriod)
	curLong := indicator.SMA(closes, longPeriod)

	if prevShort <= prevLong && curShort > curLong {
		return types.Buy
	}
	if prevShort >= prevLong && curShort < curLong {
		return types.Sell
	}
	return types.None
}

// RSIZone signals BUY in the oversold zone (<30) and SELL in the overbought
// zone (>70). There is no hysteresis: values oscillating around a boundary
// flip the signal on every evaluation.
func RSIZone(closes []float64, period int) types.Direction {
	rsi := indicator.RSI(closes, period)
	switch {
	case rsi < 30:
		return types.Buy
	case rsi > 70:
		return types.Sell
	default:
		return types.None
	}
}

// MACDCross detects a MACD-line vs signal-line crossover with the same
// previous-window logic as MACross.
func MACDCross(closes []float64) types.Direction {
	if len(closes) < 2 {
		return types.None
	}
	prev := closes[:len(closes)-1]
	prevLine := indicator.MACDLine(prev)
	prevSig := indicator.MACDSignal(prev)
	curLine := indicator.MACDLine(closes)
	curSig := indicator.MACDSignal(closes)

	if prevLine <= prevSig && curLine > curSig {
		return types.Buy
	}
	if prevLine >= prevSig && curLine < curSig {
		return types.Sell
	}
	return types.None
}

// BollingerTouch signals BUY when the last close is at or below the lower
// band and SELL at or above the upper band.
func BollingerTouch(closes []float64, period int, k float64) types.Direction {
	if len(closes) < period {
		return types.None
	}
	_, upper, lower := indicator.Bollinger(closes, period, k)
	last := closes[len(closes)-1]
	switch {
	case last <= lower:
		return types.Buy
	case last >= upper:
		return types.Sell
	default:
		return types.None
	}
}

// VolumeConfirmation signals in the last candle's direction when its volume
// exceeds 1.5x the 10-candle average volume.
func VolumeConfirmation(candles []types.Candle) types.Direction {
	const lookback = 10
	if len(candles) < lookback+1 {
		return types.None
	}
	last := candles[len(candles)-1]
	sum := 0.0
	for _, c := range candles[len(candles)-lookback-1 : len(candles)-1] {
		sum += c.Volume
	}
	avg := sum / lookback
	if last.Volume <= avg*1.5 {
		return types.None
	}
	switch {
	case last.Close > last.Open:
		return types.Buy
	case last.Close < last.Open:
		return types.Sell
	default:
		return types.None
	}
}

// TrendStrength signals BUY when at least 3 of the last 4 consecutive candle
// pairs print higher highs and higher lows, SELL on the mirrored
// lower-high/lower-low condition.
func TrendStrength(candles []types.Candle) types.Direction {
	const pairs = 4
	if len(candles) < pairs+1 {
		return types.None
	}
	up, down := 0, 0
	for i := len(candles) - pairs; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		if cur.High > prev.High && cur.Low > prev.Low {
			up++
		}
		if cur.High < prev.High && cur.Low < prev.Low {
			down++
		}
	}
	switch {
	case up >= 3:
		return types.Buy
	case down >= 3:
		return types.Sell
	default:
		return types.None
	}
}

// SupportResistance signals a bounce when the last close sits within 5% of
// the 20-candle range extremes: BUY near the low, SELL near the high.
func SupportResistance(candles []types.Candle) types.Direction {
	const lookback = 20
	if len(candles) < lookback {
		return types.None
	}
	window := candles[len(candles)-lookback:]
	high, low := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	span := high - low
	if span <= 0 {
		return types.None
	}
	last := window[len(window)-1].Close
	switch {
	case last <= low+span*0.05:
		return types.Buy
	case last >= high-span*0.05:
		return types.Sell
	default:
		return types.None
	}
}
