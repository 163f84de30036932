// Package options prices European contracts with the closed-form
// Black-Scholes model and builds strike ladders, expiry dates and standard
// multi-leg strategies on top of it. Volatility, rate and dividend inputs
// are percentages (0..100); time to expiry is days/365.
package options

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/quantrail/advisor/types"
)

// ErrInvalidInput rejects non-positive market inputs before any computation.
var ErrInvalidInput = errors.New("options: invalid input")

// Abramowitz & Stegun polynomial approximation of the standard normal CDF,
// absolute error below 7.5e-8.
func normCDF(x float64) float64 {
	if x < 0 {
		return 1 - normCDF(-x)
	}
	const (
		b0 = 0.2316419
		b1 = 0.319381530
		b2 = -0.356563782
		b3 = 1.781477937
		b4 = -1.821255978
		b5 = 1.330274429
	)
	t := 1 / (1 + b0*x)
	poly := t * (b1 + t*(b2+t*(b3+t*(b4+t*b5))))
	return 1 - normPDF(x)*poly
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func validate(spot, strike, days float64) error {
	if spot <= 0 {
		return fmt.Errorf("%w: spot %v", ErrInvalidInput, spot)
	}
	if strike <= 0 {
		return fmt.Errorf("%w: strike %v", ErrInvalidInput, strike)
	}
	if days < 0 {
		return fmt.Errorf("%w: daysToExpiry %v", ErrInvalidInput, days)
	}
	return nil
}

func dValues(spot, strike, t, sigma, r, q float64) (d1, d2 float64) {
	d1 = (math.Log(spot/strike) + (r-q+sigma*sigma/2)*t) / (sigma * math.Sqrt(t))
	d2 = d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// Price returns the theoretical premium. volPct, ratePct and divPct are
// percentages. Expired or zero-volatility contracts collapse to intrinsic
// value; the result never goes below 0.
func Price(spot, strike, daysToExpiry, volPct, ratePct, divPct float64, optType types.OptionType) (float64, error) {
	if err := validate(spot, strike, daysToExpiry); err != nil {
		return 0, err
	}
	t := daysToExpiry / 365
	sigma := volPct / 100
	r := ratePct / 100
	q := divPct / 100

	if t <= 0 || sigma <= 0 {
		return intrinsic(spot, strike, optType), nil
	}

	d1, d2 := dValues(spot, strike, t, sigma, r, q)
	var price float64
	switch optType {
	case types.Call:
		price = spot*math.Exp(-q*t)*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2)
	case types.Put:
		price = strike*math.Exp(-r*t)*normCDF(-d2) - spot*math.Exp(-q*t)*normCDF(-d1)
	default:
		return 0, fmt.Errorf("%w: option type %q", ErrInvalidInput, optType)
	}
	return math.Max(price, 0), nil
}

func intrinsic(spot, strike float64, optType types.OptionType) float64 {
	if optType == types.Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}

// ComputeGreeks returns the sensitivities with the usual retail conventions:
// theta per calendar day, vega per 1% volatility move, rho per 1% rate move.
func ComputeGreeks(spot, strike, daysToExpiry, volPct, ratePct, divPct float64, optType types.OptionType) (types.Greeks, error) {
	if err := validate(spot, strike, daysToExpiry); err != nil {
		return types.Greeks{}, err
	}
	if optType != types.Call && optType != types.Put {
		return types.Greeks{}, fmt.Errorf("%w: option type %q", ErrInvalidInput, optType)
	}
	t := daysToExpiry / 365
	sigma := volPct / 100
	r := ratePct / 100
	q := divPct / 100
	if t <= 0 || sigma <= 0 {
		// Degenerate contract: delta is a step on moneyness, the rest vanish.
		g := types.Greeks{}
		if optType == types.Call && spot > strike {
			g.Delta = 1
		}
		if optType == types.Put && spot < strike {
			g.Delta = -1
		}
		return g, nil
	}

	d1, d2 := dValues(spot, strike, t, sigma, r, q)
	sqrtT := math.Sqrt(t)
	eqt := math.Exp(-q * t)
	ert := math.Exp(-r * t)
	pdf := normPDF(d1)

	g := types.Greeks{
		Gamma: eqt * pdf / (spot * sigma * sqrtT),
		Vega:  spot * eqt * pdf * sqrtT / 100,
	}
	if optType == types.Call {
		g.Delta = eqt * normCDF(d1)
		g.Theta = (-spot*pdf*sigma*eqt/(2*sqrtT) - r*strike*ert*normCDF(d2) + q*spot*eqt*normCDF(d1)) / 365
		g.Rho = strike * t * ert * normCDF(d2) / 100
	} else {
		g.Delta = eqt * (normCDF(d1) - 1)
		g.Theta = (-spot*pdf*sigma*eqt/(2*sqrtT) + r*strike*ert*normCDF(-d2) - q*spot*eqt*normCDF(-d1)) / 365
		g.Rho = -strike * t * ert * normCDF(-d2) / 100
	}
	return g, nil
}

// StrikeLadder generates strikes from floor(base/interval)*interval-500 up to
// ceil(base/interval)*interval+500 in interval steps, dropping non-positive
// strikes.
func StrikeLadder(basePrice, interval float64) ([]float64, error) {
	if basePrice <= 0 || interval <= 0 {
		return nil, fmt.Errorf("%w: base %v interval %v", ErrInvalidInput, basePrice, interval)
	}
	start := math.Floor(basePrice/interval)*interval - 500
	end := math.Ceil(basePrice/interval)*interval + 500
	var out []float64
	for s := start; s <= end; s += interval {
		if s > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

// NextExpiry returns the upcoming expiry date. WEEKLY is the next Thursday
// strictly after now; MONTHLY is the last Thursday of the current month,
// rolling to the next month when it has already passed.
func NextExpiry(expiryType types.ExpiryType, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch expiryType {
	case types.Weekly:
		days := (int(time.Thursday) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), nil
	case types.Monthly:
		exp := lastThursday(today.Year(), today.Month(), today.Location())
		if !exp.After(today) {
			next := today.AddDate(0, 1, 0)
			exp = lastThursday(next.Year(), next.Month(), today.Location())
		}
		return exp, nil
	default:
		return time.Time{}, fmt.Errorf("%w: expiry type %q", ErrInvalidInput, expiryType)
	}
}

func lastThursday(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, loc) // last day of month
	offset := (int(d.Weekday()) - int(time.Thursday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// Contract prices a single strike and fills in its Greeks.
func Contract(baseSymbol string, optType types.OptionType, strike, spot, ivPct, ratePct float64, expiryType types.ExpiryType, now time.Time) (types.OptionContract, error) {
	expiry, err := NextExpiry(expiryType, now)
	if err != nil {
		return types.OptionContract{}, err
	}
	days := expiry.Sub(now).Hours() / 24
	if days < 0 {
		days = 0
	}
	price, err := Price(spot, strike, days, ivPct, ratePct, 0, optType)
	if err != nil {
		return types.OptionContract{}, err
	}
	greeks, err := ComputeGreeks(spot, strike, days, ivPct, ratePct, 0, optType)
	if err != nil {
		return types.OptionContract{}, err
	}
	return types.OptionContract{
		Symbol:            fmt.Sprintf("%s%.0f%s", baseSymbol, strike, optType),
		BaseSymbol:        baseSymbol,
		OptionType:        optType,
		StrikePrice:       strike,
		ExpiryType:        expiryType,
		ExpiryDate:        expiry,
		SpotPrice:         spot,
		ImpliedVolatility: ivPct,
		Greeks:            greeks,
		Bid:               price * 0.995,
		Ask:               price * 1.005,
	}, nil
}

// ChainStrike pairs the call and put priced at one strike.
type ChainStrike struct {
	Strike float64
	Call   types.OptionContract
	Put    types.OptionContract
}

// Chain prices a full strike ladder around the base price.
func Chain(baseSymbol string, spot, interval, ivPct, ratePct float64, expiryType types.ExpiryType, now time.Time) ([]ChainStrike, error) {
	strikes, err := StrikeLadder(spot, interval)
	if err != nil {
		return nil, err
	}
	out := make([]ChainStrike, 0, len(strikes))
	for _, k := range strikes {
		call, err := Contract(baseSymbol, types.Call, k, spot, ivPct, ratePct, expiryType, now)
		if err != nil {
			return nil, err
		}
		put, err := Contract(baseSymbol, types.Put, k, spot, ivPct, ratePct, expiryType, now)
		if err != nil {
			return nil, err
		}
		out = append(out, ChainStrike{Strike: k, Call: call, Put: put})
	}
	return out, nil
}
