package domain

import "github.com/shopspring/decimal"

// ExpandSchedule turns one line total into a monthly accrual series over the
// scenario horizon.
//
// Frequency rules (Excel parity):
//   - once: the full total posts into the single start month.
//   - monthly: the full total posts into every month of the clamped span,
//     deliberately not divided.
//   - anything else: the total is split evenly across the clamped span.
//
// lineStart zero means the scenario start; offsets before the scenario start
// clamp to month zero, and lines starting past the horizon contribute nothing.
func ExpandSchedule(scenarioStart YM, horizon int, lineStart YM, durationMonths int, freq Frequency, total decimal.Decimal) MonthlySeries {
	out := NewMonthlySeries(horizon)
	if horizon <= 0 || total.IsZero() {
		return out
	}
	start := lineStart
	if start.IsZero() {
		start = scenarioStart
	}
	offset := start.MonthsSince(scenarioStart)
	if offset < 0 {
		offset = 0
	}
	if offset >= horizon {
		return out
	}
	if durationMonths < 1 {
		durationMonths = horizon
	}
	span := horizon - offset
	if durationMonths < span {
		span = durationMonths
	}

	switch freq {
	case FrequencyOnce:
		out.AddAt(offset, total)
	case FrequencyMonthly:
		for i := 0; i < span; i++ {
			out.AddAt(offset+i, total)
		}
	default:
		per := total.Div(decimal.NewFromInt(int64(span)))
		for i := 0; i < span; i++ {
			out.AddAt(offset+i, per)
		}
	}
	return out
}

// BOQExpansion is the raw (pre-overlay) result of expanding BOQ lines.
type BOQExpansion struct {
	Revenue MonthlySeries
	COGS    MonthlySeries
	// LineRevenue keeps per-line revenue for follow-BOQ reward weighting.
	LineRevenue map[int64]MonthlySeries
}

// ExpandBOQ accrues every active BOQ line of the category into monthly
// revenue and cost series. An empty category expands all lines.
func ExpandBOQ(scenario Scenario, lines []BOQLineItem, category Category) BOQExpansion {
	exp := BOQExpansion{
		Revenue:     NewMonthlySeries(scenario.Months),
		COGS:        NewMonthlySeries(scenario.Months),
		LineRevenue: make(map[int64]MonthlySeries),
	}
	for _, line := range lines {
		if !line.Active {
			continue
		}
		if category != "" && line.Category != category {
			continue
		}
		rev := ExpandSchedule(scenario.Start, scenario.Months, line.Start, line.Months, line.Frequency, line.Quantity.Mul(line.UnitPrice))
		cogs := ExpandSchedule(scenario.Start, scenario.Months, line.Start, line.Months, line.Frequency, line.Quantity.Mul(line.UnitCOGS))
		exp.Revenue = exp.Revenue.Add(rev)
		exp.COGS = exp.COGS.Add(cogs)
		exp.LineRevenue[line.ID] = rev
	}
	return exp
}

// ServiceExpansion is the raw services expense schedule with the currency
// effective per month (the last active agreement posting into a month wins).
type ServiceExpansion struct {
	Expense    MonthlySeries
	Currencies []string
}

// ExpandServices accrues every active service agreement into a monthly
// expense series, recording the agreement currency per month for FX.
func ExpandServices(scenario Scenario, agreements []ServiceAgreement) ServiceExpansion {
	exp := ServiceExpansion{
		Expense:    NewMonthlySeries(scenario.Months),
		Currencies: make([]string, scenario.Months),
	}
	for _, svc := range agreements {
		if !svc.Active {
			continue
		}
		sched := ExpandSchedule(scenario.Start, scenario.Months, svc.Start, svc.Months, FrequencyMonthly, svc.Quantity.Mul(svc.UnitCost))
		for i := range sched {
			if sched[i].IsZero() {
				continue
			}
			exp.Expense[i] = exp.Expense[i].Add(sched[i])
			if svc.Currency != "" {
				exp.Currencies[i] = svc.Currency
			}
		}
	}
	return exp
}
