package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildMultipliersNoPolicy(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	mult := BuildMultipliers(scenario, nil, NewIndexTable(), CategoryAN)
	wantSeries(t, mult, []string{"1", "1", "1"})
}

func TestFixedPolicyCompoundsMonthly(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 13}
	policies := []EscalationPolicy{{
		Scope:        "ALL",
		Method:       EscalationFixed,
		FixedPct:     dec("12"),
		StepPerMonth: 1,
		Active:       true,
	}}
	mult := BuildMultipliers(scenario, policies, NewIndexTable(), CategoryAN)

	if !mult[0].Equal(dec("1")) {
		t.Fatalf("first month multiplier %s, want 1", mult[0])
	}
	// 12% annual at a 1% monthly compounding rate: month 12 is (1.01)^12.
	want := dec("1.01").Pow(dec("12"))
	if diff := mult[12].Sub(want).Abs(); diff.GreaterThan(dec("0.000001")) {
		t.Fatalf("month 12 multiplier %s, want %s", mult[12], want)
	}
}

func TestFixedPolicyStepHoldsBetweenSteps(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 7}
	policies := []EscalationPolicy{{
		Scope:        "ALL",
		Method:       EscalationFixed,
		FixedPct:     dec("12"),
		StepPerMonth: 3,
		Active:       true,
	}}
	mult := BuildMultipliers(scenario, policies, NewIndexTable(), CategoryAN)

	for i := 0; i < 3; i++ {
		if !mult[i].Equal(dec("1")) {
			t.Errorf("month %d multiplier %s, want 1 before first step", i, mult[i])
		}
	}
	if !mult[3].Equal(mult[4]) || !mult[4].Equal(mult[5]) {
		t.Error("multiplier should hold flat between steps")
	}
	if !mult[3].GreaterThan(mult[2]) {
		t.Error("multiplier should rise at the step boundary")
	}
}

func TestIndexPolicyBaseMonthIsOne(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("100"))
	index.Add("CPI", YM{2025, 2}, dec("110"))
	index.Add("CPI", YM{2025, 3}, dec("121"))
	policies := []EscalationPolicy{{
		Scope:      "ALL",
		Method:     EscalationIndex,
		Frequency:  EscalationMonthly,
		Components: []IndexComponent{{SeriesCode: "CPI", WeightPct: dec("100")}},
		Active:     true,
	}}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)
	wantSeries(t, mult, []string{"1", "1.1", "1.21"})
}

func TestIndexPolicyWeightedBasket(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("100"))
	index.Add("CPI", YM{2025, 2}, dec("120"))
	index.Add("FUEL", YM{2025, 1}, dec("50"))
	index.Add("FUEL", YM{2025, 2}, dec("55"))
	policies := []EscalationPolicy{{
		Scope:     "ALL",
		Method:    EscalationIndex,
		Frequency: EscalationMonthly,
		Components: []IndexComponent{
			{SeriesCode: "CPI", WeightPct: dec("60")},
			{SeriesCode: "FUEL", WeightPct: dec("40")},
		},
		Active: true,
	}}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)
	// 0.6*1.2 + 0.4*1.1 = 1.16
	wantSeries(t, mult, []string{"1", "1.16"})
}

func TestIndexPolicyAnnualLocksBlock(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 14}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("100"))
	index.Add("CPI", YM{2025, 6}, dec("150"))
	index.Add("CPI", YM{2026, 1}, dec("200"))
	policies := []EscalationPolicy{{
		Scope:      "ALL",
		Method:     EscalationIndex,
		Frequency:  EscalationAnnual,
		Components: []IndexComponent{{SeriesCode: "CPI", WeightPct: dec("100")}},
		Active:     true,
	}}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)

	for i := 0; i < 12; i++ {
		if !mult[i].Equal(dec("1")) {
			t.Errorf("month %d multiplier %s, want block-start value 1", i, mult[i])
		}
	}
	if !mult[12].Equal(dec("2")) || !mult[13].Equal(dec("2")) {
		t.Errorf("second block multipliers %s/%s, want 2", mult[12], mult[13])
	}
}

func TestIndexPolicyMissingPointHoldsLastKnown(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("100"))
	index.Add("CPI", YM{2025, 2}, dec("110"))
	// No point for 2025-03: the 2025-02 value holds.
	policies := []EscalationPolicy{{
		Scope:      "ALL",
		Method:     EscalationIndex,
		Frequency:  EscalationMonthly,
		Components: []IndexComponent{{SeriesCode: "CPI", WeightPct: dec("100")}},
		Active:     true,
	}}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)
	wantSeries(t, mult, []string{"1", "1.1", "1.1"})
}

func TestIndexPolicyBaseOverride(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 1}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("110"))
	base := dec("100")
	policies := []EscalationPolicy{{
		Scope:      "ALL",
		Method:     EscalationIndex,
		Frequency:  EscalationMonthly,
		Components: []IndexComponent{{SeriesCode: "CPI", WeightPct: dec("100"), BaseValue: &base}},
		Active:     true,
	}}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)
	wantSeries(t, mult, []string{"1.1"})
}

func TestPoliciesCombineMultiplicatively(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2}
	index := NewIndexTable()
	index.Add("CPI", YM{2025, 1}, dec("100"))
	index.Add("CPI", YM{2025, 2}, dec("110"))
	policies := []EscalationPolicy{
		{
			Scope:      "AN",
			Method:     EscalationIndex,
			Frequency:  EscalationMonthly,
			Components: []IndexComponent{{SeriesCode: "CPI", WeightPct: dec("100")}},
			Active:     true,
		},
		{
			Scope:        "ALL",
			Method:       EscalationFixed,
			FixedPct:     dec("24"),
			StepPerMonth: 1,
			Active:       true,
		},
		{
			Scope:        "EM",
			Method:       EscalationFixed,
			FixedPct:     dec("99"),
			StepPerMonth: 1,
			Active:       true,
		},
	}
	mult := BuildMultipliers(scenario, policies, index, CategoryAN)
	// Index policy 1.1 at month 2 times fixed 1.02 from the ALL policy; the
	// EM-scoped policy must not touch AN.
	want := dec("1.1").Mul(dec("1.02"))
	if !mult[1].Equal(want) {
		t.Fatalf("combined multiplier %s, want %s", mult[1], want)
	}
}

func TestInactivePolicyIgnored(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2}
	policies := []EscalationPolicy{{
		Scope:        "ALL",
		Method:       EscalationFixed,
		FixedPct:     decimal.NewFromInt(50),
		StepPerMonth: 1,
		Active:       false,
	}}
	mult := BuildMultipliers(scenario, policies, NewIndexTable(), CategoryAN)
	wantSeries(t, mult, []string{"1", "1"})
}
