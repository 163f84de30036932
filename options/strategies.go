package options

import (
	"fmt"
	"math"
	"time"

	"github.com/quantrail/advisor/types"
)

// StrategyInputs carries the common market parameters for the builders.
type StrategyInputs struct {
	BaseSymbol string
	Spot       float64
	IVPct      float64 // 0..100
	RatePct    float64 // 0..100
	ExpiryType types.ExpiryType
	Now        time.Time
}

func (in StrategyInputs) leg(optType types.OptionType, strike float64, side types.LegSide) (types.StrategyLeg, error) {
	c, err := Contract(in.BaseSymbol, optType, strike, in.Spot, in.IVPct, in.RatePct, in.ExpiryType, in.Now)
	if err != nil {
		return types.StrategyLeg{}, err
	}
	// Mid premium; the builders work on theoretical value, not the spread.
	premium := (c.Bid + c.Ask) / 2
	return types.StrategyLeg{Contract: c, Side: side, Premium: premium}, nil
}

// BullCallSpread buys the lower-strike call and writes the higher-strike
// call. Max loss is the net debit; max profit the strike width minus debit;
// breakeven the lower strike plus debit.
func BullCallSpread(in StrategyInputs, lowStrike, highStrike float64) (types.StrategyPlan, error) {
	if lowStrike >= highStrike {
		return types.StrategyPlan{}, fmt.Errorf("%w: bull call spread needs lowStrike < highStrike", ErrInvalidInput)
	}
	long, err := in.leg(types.Call, lowStrike, types.LongLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	short, err := in.leg(types.Call, highStrike, types.ShortLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	debit := long.Premium - short.Premium
	width := highStrike - lowStrike
	return types.StrategyPlan{
		Name:          "Bull Call Spread",
		Legs:          []types.StrategyLeg{long, short},
		NetDebit:      debit,
		MaxProfit:     width - debit,
		MaxLoss:       debit,
		BreakEvenLow:  lowStrike + debit,
		BreakEvenHigh: lowStrike + debit,
	}, nil
}

// IronCondor writes an out-of-the-money put spread and call spread around
// the spot: long putLow, short putHigh, short callLow, long callHigh.
// Max profit is the net credit; max loss the wider wing minus credit.
func IronCondor(in StrategyInputs, putLow, putHigh, callLow, callHigh float64) (types.StrategyPlan, error) {
	if !(putLow < putHigh && putHigh < callLow && callLow < callHigh) {
		return types.StrategyPlan{}, fmt.Errorf("%w: iron condor strikes must be ascending", ErrInvalidInput)
	}
	longPut, err := in.leg(types.Put, putLow, types.LongLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	shortPut, err := in.leg(types.Put, putHigh, types.ShortLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	shortCall, err := in.leg(types.Call, callLow, types.ShortLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	longCall, err := in.leg(types.Call, callHigh, types.LongLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	credit := shortPut.Premium - longPut.Premium + shortCall.Premium - longCall.Premium
	width := math.Max(putHigh-putLow, callHigh-callLow)
	return types.StrategyPlan{
		Name:          "Iron Condor",
		Legs:          []types.StrategyLeg{longPut, shortPut, shortCall, longCall},
		NetCredit:     credit,
		MaxProfit:     credit,
		MaxLoss:       width - credit,
		BreakEvenLow:  putHigh - credit,
		BreakEvenHigh: callLow + credit,
	}, nil
}

// Straddle buys the call and the put at the same strike. Loss is capped at
// the combined debit; profit is open-ended on either side of the
// breakevens.
func Straddle(in StrategyInputs, strike float64) (types.StrategyPlan, error) {
	call, err := in.leg(types.Call, strike, types.LongLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	put, err := in.leg(types.Put, strike, types.LongLeg)
	if err != nil {
		return types.StrategyPlan{}, err
	}
	debit := call.Premium + put.Premium
	return types.StrategyPlan{
		Name:          "Long Straddle",
		Legs:          []types.StrategyLeg{call, put},
		NetDebit:      debit,
		MaxProfit:     math.Inf(1),
		MaxLoss:       debit,
		BreakEvenLow:  strike - debit,
		BreakEvenHigh: strike + debit,
	}, nil
}

// SuggestStrategy is a fixed rule table, not an optimizer: trend picks the
// directional family and the volatility cutoffs (30 and 35) unlock
// short-premium and spread ideas.
func SuggestStrategy(trend string, volPct, basePrice float64) ([]string, error) {
	if basePrice <= 0 {
		return nil, fmt.Errorf("%w: base price %v", ErrInvalidInput, basePrice)
	}
	var out []string
	switch trend {
	case "BULLISH":
		out = append(out, "Buy ATM Call")
		if volPct > 30 {
			out = append(out, "Bull Call Spread (debit, caps the vol premium)")
		}
		if volPct > 35 {
			out = append(out, "Sell OTM Put (collect elevated premium)")
		}
	case "BEARISH":
		out = append(out, "Buy ATM Put")
		if volPct > 30 {
			out = append(out, "Bear Put Spread (debit, caps the vol premium)")
		}
		if volPct > 35 {
			out = append(out, "Sell OTM Call (collect elevated premium)")
		}
	case "NEUTRAL":
		if volPct > 35 {
			out = append(out, "Iron Condor (range-bound, high premium)")
			out = append(out, "Short Straddle (experienced traders only)")
		} else if volPct > 30 {
			out = append(out, "Iron Condor (range-bound)")
		} else {
			out = append(out, "Long Straddle (cheap volatility, await breakout)")
		}
	default:
		return nil, fmt.Errorf("%w: unknown trend %q", ErrInvalidInput, trend)
	}
	return out, nil
}
