package domain

import "github.com/shopspring/decimal"

// RebateMode selects whether tier percents resolve against the single month's
// basis or the cumulative basis since run start.
type RebateMode string

const (
	RebateModeMonthly RebateMode = "monthly"
	RebateModeYTD     RebateMode = "ytd"
)

// RebateBasis carries the revenue series a rebate may be computed against.
type RebateBasis struct {
	Revenue         MonthlySeries           // category revenue (scopes all/boq)
	ProductRevenue  map[int64]MonthlySeries // per-product revenue (scope product)
	ServicesRevenue MonthlySeries           // services revenue (scope services)
}

// RebateOverlay is the contra-revenue result: the accrual adjustment in the
// earning month (always <= 0) and the cash adjustment shifted by each
// rebate's pay-month lag. Cash shifted past the horizon is dropped.
type RebateOverlay struct {
	Accrual MonthlySeries
	Cash    MonthlySeries
}

// ApplyRebates computes the overlay for every active revenue-basis rebate.
// Rebates outside their validity window, or with a basis other than revenue,
// contribute nothing.
func ApplyRebates(scenario Scenario, rebates []RebateDefinition, basis RebateBasis, mode RebateMode) RebateOverlay {
	overlay := RebateOverlay{
		Accrual: NewMonthlySeries(scenario.Months),
		Cash:    NewMonthlySeries(scenario.Months),
	}
	ytdBasis := make(map[int64]decimal.Decimal)

	for i := 0; i < scenario.Months; i++ {
		period := scenario.Start.AddMonths(i)
		for _, rb := range rebates {
			if !rb.Active || !rb.InWindow(period) {
				continue
			}
			if rb.Basis != "" && rb.Basis != "revenue" {
				continue
			}

			switch rb.Kind {
			case RebatePercent, RebateTierPercent:
				value := basisValueAt(rb, basis, i)
				pct := resolvePercent(rb, value, ytdBasis, mode)
				if pct.IsZero() || value.IsZero() {
					continue
				}
				amount := value.Mul(pct.Div(decimalHundred))
				overlay.Accrual.AddAt(i, amount.Neg())
				overlay.Cash.AddAt(i+rb.PayMonthLag, amount.Neg())
			case RebateLumpSum:
				for _, lump := range rb.Lumps {
					if lump.Period != period {
						continue
					}
					overlay.Accrual.AddAt(i, lump.Amount.Neg())
					overlay.Cash.AddAt(i+rb.PayMonthLag, lump.Amount.Neg())
				}
			}
		}
	}
	return overlay
}

func basisValueAt(rb RebateDefinition, basis RebateBasis, month int) decimal.Decimal {
	switch rb.Scope {
	case RebateScopeProduct:
		if rb.ProductID == nil {
			return decimal.Zero
		}
		if series, ok := basis.ProductRevenue[*rb.ProductID]; ok && month < len(series) {
			return series[month]
		}
		return decimal.Zero
	case RebateScopeServices:
		if month < len(basis.ServicesRevenue) {
			return basis.ServicesRevenue[month]
		}
		return decimal.Zero
	default: // all, boq
		if month < len(basis.Revenue) {
			return basis.Revenue[month]
		}
		return decimal.Zero
	}
}

// resolvePercent picks the percent for a percent or tier_percent rebate. For
// plain percent the first tier's percent applies flat. Tiered rebates match
// the value (or the cumulative value in ytd mode) against ascending
// [min, max) bands with the unbounded band catching everything >= its min.
func resolvePercent(rb RebateDefinition, value decimal.Decimal, ytdBasis map[int64]decimal.Decimal, mode RebateMode) decimal.Decimal {
	if len(rb.Tiers) == 0 {
		return decimal.Zero
	}
	if rb.Kind == RebatePercent {
		return rb.Tiers[0].Percent
	}

	lookup := value
	if mode == RebateModeYTD {
		cum := ytdBasis[rb.ID].Add(value)
		ytdBasis[rb.ID] = cum
		lookup = cum
	}
	for _, tier := range rb.Tiers {
		if lookup.Cmp(tier.Min) < 0 {
			continue
		}
		if tier.Max != nil && lookup.Cmp(*tier.Max) >= 0 {
			continue
		}
		return tier.Percent
	}
	return decimal.Zero
}
