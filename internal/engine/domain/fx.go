package domain

import "github.com/shopspring/decimal"

// ResolveFxRate finds the rate-to-base valid for the currency in the given
// month. When more than one window matches, the rate with the latest start
// wins. A false return means no rate exists and the amount must be left
// unconverted, never zeroed.
func ResolveFxRate(rates []FxRate, currency string, period YM) (decimal.Decimal, bool) {
	var (
		best      decimal.Decimal
		bestStart int
		found     bool
	)
	for _, rate := range rates {
		if rate.Currency != currency {
			continue
		}
		if !rate.From.IsZero() && period.Before(rate.From) {
			continue
		}
		if !rate.To.IsZero() && period.After(rate.To) {
			continue
		}
		start := 0
		if !rate.From.IsZero() {
			start = rate.From.Key()
		}
		if !found || start > bestStart {
			best = rate.RateToBase
			bestStart = start
			found = true
		}
	}
	return best, found
}

// ConvertToBase converts a monthly series using the per-month currency
// resolved against the scenario's FX windows. Months without a matching rate
// (or without a currency, meaning already in base) pass through unconverted.
func ConvertToBase(scenario Scenario, series MonthlySeries, currencies []string, rates []FxRate) MonthlySeries {
	out := series.Clone()
	for i := range out {
		if out[i].IsZero() || i >= len(currencies) {
			continue
		}
		currency := currencies[i]
		if currency == "" || currency == scenario.BaseCurrency {
			continue
		}
		if rate, ok := ResolveFxRate(rates, currency, scenario.Start.AddMonths(i)); ok {
			out[i] = out[i].Mul(rate)
		}
	}
	return out
}
