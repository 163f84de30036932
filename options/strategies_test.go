package options

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantrail/advisor/types"
)

func testInputs() StrategyInputs {
	return StrategyInputs{
		BaseSymbol: "NIFTY",
		Spot:       2750,
		IVPct:      25,
		RatePct:    6.5,
		ExpiryType: types.Monthly,
		Now:        time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestBullCallSpreadPayoff(t *testing.T) {
	plan, err := BullCallSpread(testInputs(), 2700, 2800)
	if err != nil {
		t.Fatalf("BullCallSpread: %v", err)
	}
	if len(plan.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(plan.Legs))
	}
	if plan.NetDebit <= 0 {
		t.Fatalf("lower-strike call must cost more: debit %v", plan.NetDebit)
	}
	// Payoff algebra: maxProfit + maxLoss == strike width.
	if math.Abs(plan.MaxProfit+plan.MaxLoss-100) > 1e-9 {
		t.Fatalf("maxProfit %v + maxLoss %v != width 100", plan.MaxProfit, plan.MaxLoss)
	}
	if math.Abs(plan.BreakEvenLow-(2700+plan.NetDebit)) > 1e-9 {
		t.Fatalf("breakeven %v, want lowStrike+debit", plan.BreakEvenLow)
	}
}

func TestBullCallSpreadRejectsInvertedStrikes(t *testing.T) {
	if _, err := BullCallSpread(testInputs(), 2800, 2700); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("inverted strikes should be ErrInvalidInput, got %v", err)
	}
}

func TestIronCondorPayoff(t *testing.T) {
	plan, err := IronCondor(testInputs(), 2500, 2600, 2900, 3000)
	if err != nil {
		t.Fatalf("IronCondor: %v", err)
	}
	if len(plan.Legs) != 4 {
		t.Fatalf("expected 4 legs, got %d", len(plan.Legs))
	}
	if plan.NetCredit <= 0 {
		t.Fatalf("condor should collect a credit, got %v", plan.NetCredit)
	}
	if plan.MaxProfit != plan.NetCredit {
		t.Fatalf("max profit %v should equal the credit %v", plan.MaxProfit, plan.NetCredit)
	}
	if math.Abs(plan.MaxProfit+plan.MaxLoss-100) > 1e-9 {
		t.Fatalf("profit+loss should equal the wing width: %v + %v", plan.MaxProfit, plan.MaxLoss)
	}
	if !(plan.BreakEvenLow < 2600 && plan.BreakEvenHigh > 2900) {
		t.Fatalf("breakevens (%v, %v) should sit outside the short strikes",
			plan.BreakEvenLow, plan.BreakEvenHigh)
	}
}

func TestStraddlePayoff(t *testing.T) {
	plan, err := Straddle(testInputs(), 2750)
	if err != nil {
		t.Fatalf("Straddle: %v", err)
	}
	if plan.MaxLoss != plan.NetDebit {
		t.Fatalf("straddle max loss %v should equal the debit %v", plan.MaxLoss, plan.NetDebit)
	}
	if !math.IsInf(plan.MaxProfit, 1) {
		t.Fatalf("straddle profit should be unbounded, got %v", plan.MaxProfit)
	}
	if math.Abs((plan.BreakEvenHigh-2750)-(2750-plan.BreakEvenLow)) > 1e-9 {
		t.Fatalf("breakevens not symmetric around the strike: %v / %v",
			plan.BreakEvenLow, plan.BreakEvenHigh)
	}
}

func TestSuggestStrategyRuleTable(t *testing.T) {
	// Low-vol bullish: directional buy only.
	got, err := SuggestStrategy("BULLISH", 20, 2750)
	if err != nil {
		t.Fatalf("SuggestStrategy: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("low-vol bullish should have 1 suggestion, got %v", got)
	}

	// vol > 30 unlocks the spread, > 35 the short premium idea.
	got, _ = SuggestStrategy("BULLISH", 32, 2750)
	if len(got) != 2 {
		t.Fatalf("vol 32 bullish should have 2 suggestions, got %v", got)
	}
	got, _ = SuggestStrategy("BULLISH", 40, 2750)
	if len(got) != 3 {
		t.Fatalf("vol 40 bullish should have 3 suggestions, got %v", got)
	}

	// Neutral flips between condor and straddle families on the same cutoffs.
	got, _ = SuggestStrategy("NEUTRAL", 25, 2750)
	if len(got) != 1 {
		t.Fatalf("low-vol neutral should suggest the long straddle, got %v", got)
	}
	got, _ = SuggestStrategy("NEUTRAL", 40, 2750)
	if len(got) != 2 {
		t.Fatalf("high-vol neutral should suggest 2 short-premium ideas, got %v", got)
	}

	if _, err := SuggestStrategy("SIDEWAYS-ISH", 25, 2750); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown trend should be ErrInvalidInput, got %v", err)
	}
	if _, err := SuggestStrategy("BULLISH", 25, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero base price should be ErrInvalidInput, got %v", err)
	}
}
