// Package indicator provides the pure technical-indicator math the signal
// detectors and the consensus engine are built on. All functions are
// stateless; history too short for a window degrades to a neutral value
// instead of returning an error, so a thin candle feed simply produces no
// signal rather than a failure.
package indicator

import (
	"math"

	"github.com/quantrail/advisor/types"
)

// SMA returns the arithmetic mean of the last period closes. With fewer than
// period closes it returns the most recent close; callers treat that as an
// undecided indicator.
func SMA(closes []float64, period int) float64 {
	n := len(closes)
	if n == 0 || period <= 0 {
		return 0
	}
	if n < period {
		return closes[n-1]
	}
	sum := 0.0
	for _, c := range closes[n-period:] {
		sum += c
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average seeded with the first element,
// multiplier 2/(period+1).
func EMA(closes []float64, period int) float64 {
	if len(closes) == 0 || period <= 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = c*k + ema*(1-k)
	}
	return ema
}

// RSI computes the relative strength index over the last period deltas.
// A window with no losses yields 100 (the zero-division guard), no gains
// yields 0. Short history returns the neutral 50.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	gains, losses := 0.0, 0.0
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDLine is EMA12 - EMA26 of the close series.
func MACDLine(closes []float64) float64 {
	return EMA(closes, 12) - EMA(closes, 26)
}

// MACDSeries returns the rolling MACD line for every prefix of closes. The
// signal line is the EMA9 of this series, not of a single scalar.
func MACDSeries(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = MACDLine(closes[:i+1])
	}
	return out
}

// MACDSignal is the EMA9 of the rolling MACD series.
func MACDSignal(closes []float64) float64 {
	return EMA(MACDSeries(closes), 9)
}

// Bollinger returns the middle/upper/lower bands: SMA(period) +/- k times the
// population standard deviation over the same window.
func Bollinger(closes []float64, period int, k float64) (middle, upper, lower float64) {
	middle = SMA(closes, period)
	n := len(closes)
	if n < period || period <= 0 {
		return middle, middle, middle
	}
	variance := 0.0
	for _, c := range closes[n-period:] {
		d := c - middle
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return middle, middle + k*sd, middle - k*sd
}

// ATR returns the mean of the last period true ranges. True range needs the
// previous close, so at least period+1 candles are required; with fewer the
// result is 0 and ok is false.
func ATR(candles []types.Candle, period int) (atr float64, ok bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}
	sum := 0.0
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1].Close)
	}
	return sum / float64(period), true
}

func trueRange(c types.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if d := math.Abs(c.High - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(c.Low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// Closes extracts the close series from a candle sequence.
func Closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
