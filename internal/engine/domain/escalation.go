package domain

import "github.com/shopspring/decimal"

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
	decimalTwelve  = decimal.NewFromInt(12)
)

// BuildMultipliers computes the per-month Rise & Fall multiplier series for a
// category. Every active policy whose scope covers the category contributes,
// and contributions combine multiplicatively. With no applicable policy the
// multiplier is 1.0 throughout.
func BuildMultipliers(scenario Scenario, policies []EscalationPolicy, index *IndexTable, category Category) MonthlySeries {
	mult := make(MonthlySeries, scenario.Months)
	for i := range mult {
		mult[i] = decimalOne
	}
	for _, policy := range policies {
		if !policy.Active || !policy.AppliesTo(category) {
			continue
		}
		switch policy.Method {
		case EscalationFixed:
			applyFixedPolicy(mult, policy)
		case EscalationIndex:
			applyIndexPolicy(mult, scenario, policy, index)
		}
	}
	return mult
}

// applyFixedPolicy compounds an annual percent at a monthly rate, stepping
// every step-per-month months.
func applyFixedPolicy(mult MonthlySeries, policy EscalationPolicy) {
	step := policy.StepPerMonth
	if step < 1 {
		step = 1
	}
	monthlyRate := policy.FixedPct.Div(decimalHundred).Div(decimalTwelve)
	factor := decimalOne
	growth := decimalOne.Add(monthlyRate)
	for i := range mult {
		mult[i] = mult[i].Mul(factor)
		if (i+1)%step == 0 {
			factor = factor.Mul(growth)
		}
	}
}

// applyIndexPolicy scales by a weighted index basket relative to each
// component's base value. With annual frequency the basket is pinned to the
// first month of each 12-month block from the scenario start.
func applyIndexPolicy(mult MonthlySeries, scenario Scenario, policy EscalationPolicy, index *IndexTable) {
	if len(policy.Components) == 0 {
		return
	}
	base := policy.Base
	if base.IsZero() {
		base = scenario.Start
	}

	bases := make([]decimal.Decimal, len(policy.Components))
	for i, comp := range policy.Components {
		bases[i] = resolveComponentBase(comp, index, base)
	}

	basket := func(period YM) decimal.Decimal {
		total := decimal.Zero
		for i, comp := range policy.Components {
			cur, ok := index.ValueOnOrBefore(comp.SeriesCode, period)
			if !ok || cur.IsZero() {
				cur = bases[i]
			}
			ratio := cur.Div(bases[i])
			total = total.Add(ratio.Mul(comp.WeightPct.Div(decimalHundred)))
		}
		return total
	}

	for i := range mult {
		anchor := i
		if policy.Frequency != EscalationMonthly {
			anchor = (i / 12) * 12
		}
		mult[i] = mult[i].Mul(basket(scenario.Start.AddMonths(anchor)))
	}
}

// resolveComponentBase returns the divisor for one basket component: the
// explicit override when given, otherwise the index value at the policy base
// period, falling back to 1.0 when missing or zero.
func resolveComponentBase(comp IndexComponent, index *IndexTable, basePeriod YM) decimal.Decimal {
	if comp.BaseValue != nil && !comp.BaseValue.IsZero() {
		return *comp.BaseValue
	}
	if v, ok := index.ValueOnOrBefore(comp.SeriesCode, basePeriod); ok && !v.IsZero() {
		return v
	}
	return decimalOne
}
