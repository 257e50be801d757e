package domain

import "strings"

// ApplyTax returns the series plus non-inclusive tax for every month where a
// matching rule is in its validity window. Multiple matching rules are
// additive on the base value: each contributes its own rate, not compounded
// on the others' additions. Inclusive rules never add anything.
func ApplyTax(scenario Scenario, series MonthlySeries, rules []TaxRule, scope string) MonthlySeries {
	if len(rules) == 0 {
		return series.Clone()
	}
	out := series.Clone()
	for i := range series {
		period := scenario.Start.AddMonths(i)
		for _, rule := range rules {
			if !rule.Active || rule.Inclusive {
				continue
			}
			appliesTo := strings.ToLower(strings.TrimSpace(rule.AppliesTo))
			if appliesTo != "" && appliesTo != scope {
				continue
			}
			if !rule.From.IsZero() && period.Before(rule.From) {
				continue
			}
			if !rule.To.IsZero() && period.After(rule.To) {
				continue
			}
			out[i] = out[i].Add(series[i].Mul(rule.RatePct.Div(decimalHundred)))
		}
	}
	return out
}
