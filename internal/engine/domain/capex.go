package domain

import "github.com/shopspring/decimal"

// DepreciationSeries spreads the depreciable base of every active
// straight-line asset over its useful life, starting at the asset's service
// start (or the scenario start when unset). Months past the horizon are
// dropped. Assets carrying any other depreciation method contribute nothing;
// an empty method means straight-line, matching the column default.
func DepreciationSeries(scenario Scenario, assets []CapexAsset) MonthlySeries {
	out := NewMonthlySeries(scenario.Months)
	for _, asset := range assets {
		if !asset.Active || asset.UsefulLifeM < 1 {
			continue
		}
		if asset.DeprMethod != "" && asset.DeprMethod != DeprStraightLine {
			continue
		}
		base := asset.Amount.Sub(asset.SalvageValue)
		if base.Sign() < 0 {
			base = decimal.Zero
		}
		perMonth := base.Div(decimal.NewFromInt(int64(asset.UsefulLifeM)))
		start := asset.ServiceStart
		if start.IsZero() {
			start = scenario.Start
		}
		offset := start.MonthsSince(scenario.Start)
		if offset < 0 {
			offset = 0
		}
		for i := 0; i < asset.UsefulLifeM; i++ {
			out.AddAt(offset+i, perMonth)
		}
	}
	return out
}

// RewardSeries spreads each reward-enabled asset's reward revenue over its
// term. Spread "even" divides the total equally; "follow_boq" weights months
// by the linked BOQ line's monthly revenue, falling back to even when the
// link is absent or the line's revenue sums to zero.
func RewardSeries(scenario Scenario, assets []CapexAsset, lineRevenue map[int64]MonthlySeries) MonthlySeries {
	out := NewMonthlySeries(scenario.Months)
	for _, asset := range assets {
		if !asset.Active || !asset.RewardEnabled {
			continue
		}
		pct := scenario.DefaultRewardPct
		if asset.RewardPct != nil {
			pct = *asset.RewardPct
		}
		total := asset.Amount.Mul(pct).Div(decimalHundred)
		if total.Sign() <= 0 {
			continue
		}
		term := asset.TermOverrideM
		if term < 1 {
			term = scenario.Months
		}
		if term > scenario.Months {
			term = scenario.Months
		}
		if term < 1 {
			continue
		}

		if asset.RewardSpread == RewardSpreadFollowBOQ && asset.LinkedBOQItemID != nil {
			if weights, ok := lineRevenue[*asset.LinkedBOQItemID]; ok {
				if spreadByWeights(out, total, term, weights) {
					continue
				}
			}
		}

		perMonth := total.Div(decimal.NewFromInt(int64(term)))
		for i := 0; i < term; i++ {
			out.AddAt(i, perMonth)
		}
	}
	return out
}

// spreadByWeights distributes total over the first term months proportionally
// to weights. It reports false when the weight mass is zero so the caller can
// fall back to an even spread.
func spreadByWeights(out MonthlySeries, total decimal.Decimal, term int, weights MonthlySeries) bool {
	if term > len(weights) {
		term = len(weights)
	}
	sum := decimal.Zero
	for i := 0; i < term; i++ {
		sum = sum.Add(weights[i])
	}
	if sum.IsZero() {
		return false
	}
	for i := 0; i < term; i++ {
		out.AddAt(i, total.Mul(weights[i]).Div(sum))
	}
	return true
}
