// Package consensus implements the multi-timeframe voting strategy: every
// detector gets one vote, the majority fraction becomes the confidence, and
// only a confident majority is allowed to emit a direction.
package consensus

import (
	"time"

	"github.com/quantrail/advisor/indicator"
	"github.com/quantrail/advisor/logger"
	"github.com/quantrail/advisor/metrics"
	"github.com/quantrail/advisor/risk"
	"github.com/quantrail/advisor/signal"
	"github.com/quantrail/advisor/types"
)

// Config tunes the indicator windows and the confidence gate.
type Config struct {
	HigherShortMA   int     // default 9
	HigherLongMA    int     // default 21
	LowerShortMA    int     // default 5
	LowerLongMA     int     // default 13
	RSIPeriod       int     // default 14
	BollingerPeriod int     // default 20
	BollingerK      float64 // default 2
	ATRPeriod       int     // default 14
	MinConfidence   float64 // default 80
}

// Defaults returns the standard configuration.
func Defaults() Config {
	return Config{
		HigherShortMA:   9,
		HigherLongMA:    21,
		LowerShortMA:    5,
		LowerLongMA:     13,
		RSIPeriod:       14,
		BollingerPeriod: 20,
		BollingerK:      2,
		ATRPeriod:       14,
		MinConfidence:   80,
	}
}

// Engine aggregates detector votes across a higher trend timeframe and a
// lower confirmation timeframe. It holds no candle state: every Evaluate
// call works on the series it is handed and produces a fresh signal.
type Engine struct {
	cfg Config
	log logger.Logger
}

// New builds an engine; zero-valued config fields fall back to Defaults.
func New(cfg Config, log logger.Logger) *Engine {
	d := Defaults()
	if cfg.HigherShortMA <= 0 {
		cfg.HigherShortMA = d.HigherShortMA
	}
	if cfg.HigherLongMA <= 0 {
		cfg.HigherLongMA = d.HigherLongMA
	}
	if cfg.LowerShortMA <= 0 {
		cfg.LowerShortMA = d.LowerShortMA
	}
	if cfg.LowerLongMA <= 0 {
		cfg.LowerLongMA = d.LowerLongMA
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = d.RSIPeriod
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = d.BollingerPeriod
	}
	if cfg.BollingerK <= 0 {
		cfg.BollingerK = d.BollingerK
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = d.ATRPeriod
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = d.MinConfidence
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cfg: cfg, log: log}
}

// vote pairs a detector name with its directional call.
type vote struct {
	name string
	dir  types.Direction
}

// Evaluate runs the full detector set over the higher-timeframe trend series
// and the lower-timeframe confirmation series, then attaches ATR-based
// target/stoploss levels. The returned signal is never mutated afterwards; a
// re-evaluation produces a new one.
func (e *Engine) Evaluate(symbol, instrumentID string, higher, lower []types.Candle, price float64) types.ConsensusSignal {
	hc := indicator.Closes(higher)
	lc := indicator.Closes(lower)

	votes := []vote{
		{"ma_cross_trend", signal.MACross(hc, e.cfg.HigherShortMA, e.cfg.HigherLongMA)},
		{"ma_cross_confirm", signal.MACross(lc, e.cfg.LowerShortMA, e.cfg.LowerLongMA)},
		{"rsi_trend", signal.RSIZone(hc, e.cfg.RSIPeriod)},
		{"rsi_confirm", signal.RSIZone(lc, e.cfg.RSIPeriod)},
		{"macd_trend", signal.MACDCross(hc)},
		{"macd_confirm", signal.MACDCross(lc)},
		{"bollinger_trend", signal.BollingerTouch(hc, e.cfg.BollingerPeriod, e.cfg.BollingerK)},
		{"volume_confirm", signal.VolumeConfirmation(lower)},
		{"trend_strength", signal.TrendStrength(higher)},
		{"support_resistance", signal.SupportResistance(higher)},
	}

	buyCount, sellCount := 0, 0
	for _, v := range votes {
		switch v.dir {
		case types.Buy:
			buyCount++
		case types.Sell:
			sellCount++
		}
	}

	majority := types.None
	majorityCount := 0
	switch {
	case buyCount > sellCount:
		majority, majorityCount = types.Buy, buyCount
	case sellCount > buyCount:
		majority, majorityCount = types.Sell, sellCount
	}

	confidence := float64(majorityCount) / float64(len(votes)) * 100

	direction := majority
	if confidence < e.cfg.MinConfidence {
		direction = types.None
	}

	var matched []string
	for _, v := range votes {
		if majority != types.None && v.dir == majority {
			matched = append(matched, v.name)
		}
	}

	atr, _ := indicator.ATR(higher, e.cfg.ATRPeriod)
	target, stoploss := risk.Levels(direction, price, atr)

	sig := types.ConsensusSignal{
		Symbol:            symbol,
		InstrumentID:      instrumentID,
		Direction:         direction,
		Confidence:        confidence,
		MatchedIndicators: matched,
		Price:             price,
		Target:            target,
		Stoploss:          stoploss,
		RiskRewardRatio:   risk.RewardRatio(price, target, stoploss),
		Timestamp:         time.Now(),
	}

	metrics.SignalsEvaluated.WithLabelValues(string(direction)).Inc()
	e.log.Info("signal_evaluated",
		logger.String("symbol", symbol),
		logger.String("direction", string(direction)),
		logger.Float64("confidence", confidence),
		logger.Int("buy_votes", buyCount),
		logger.Int("sell_votes", sellCount),
		logger.Float64("price", price),
		logger.Float64("target", target),
		logger.Float64("stoploss", stoploss),
	)
	return sig
}
