package domain

import "testing"

func flatPercentRebate(id int64, pct string, lag int) RebateDefinition {
	return RebateDefinition{
		ID:          id,
		Scope:       RebateScopeAll,
		Kind:        RebatePercent,
		Basis:       "revenue",
		PayMonthLag: lag,
		Tiers:       []RebateTier{{Percent: dec(pct)}},
		Active:      true,
	}
}

func TestPercentRebateAccrualAndLaggedCash(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 4}
	basis := RebateBasis{Revenue: MonthlySeries{dec("1000"), dec("0"), dec("0"), dec("0")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{flatPercentRebate(1, "10", 2)}, basis, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"-100", "0", "0", "0"})
	wantSeries(t, overlay.Cash, []string{"0", "0", "-100", "0"})
}

func TestRebateCashPastHorizonDropped(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2}
	basis := RebateBasis{Revenue: MonthlySeries{dec("0"), dec("500")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{flatPercentRebate(1, "10", 3)}, basis, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"0", "-50"})
	wantSeries(t, overlay.Cash, []string{"0", "0"})
}

func TestTierPercentMonthlyBands(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	max1 := dec("1000")
	rb := RebateDefinition{
		ID:    7,
		Scope: RebateScopeAll,
		Kind:  RebateTierPercent,
		Basis: "revenue",
		Tiers: []RebateTier{
			{Min: dec("0"), Max: &max1, Percent: dec("1")},
			{Min: dec("1000"), Percent: dec("5")},
		},
		Active: true,
	}
	basis := RebateBasis{Revenue: MonthlySeries{dec("500"), dec("1000"), dec("2000")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, basis, RebateModeMonthly)

	// 500 hits the [0,1000) band, 1000 and 2000 the unbounded band.
	wantSeries(t, overlay.Accrual, []string{"-5", "-50", "-100"})
}

func TestTierPercentYTDUsesCumulativeBasis(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	max1 := dec("1000")
	rb := RebateDefinition{
		ID:    8,
		Scope: RebateScopeAll,
		Kind:  RebateTierPercent,
		Basis: "revenue",
		Tiers: []RebateTier{
			{Min: dec("0"), Max: &max1, Percent: dec("1")},
			{Min: dec("1000"), Percent: dec("5")},
		},
		Active: true,
	}
	basis := RebateBasis{Revenue: MonthlySeries{dec("600"), dec("600"), dec("600")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, basis, RebateModeYTD)

	// Cumulative basis 600 / 1200 / 1800: month one in the low band, the
	// rest in the unbounded band, but the percent applies to each month's
	// own value.
	wantSeries(t, overlay.Accrual, []string{"-6", "-30", "-30"})
}

func TestLumpSumRebate(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 4}
	rb := RebateDefinition{
		ID:          9,
		Scope:       RebateScopeAll,
		Kind:        RebateLumpSum,
		PayMonthLag: 1,
		Lumps:       []RebateLump{{Period: YM{2025, 2}, Amount: dec("250")}},
		Active:      true,
	}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, RebateBasis{Revenue: NewMonthlySeries(4)}, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"0", "-250", "0", "0"})
	wantSeries(t, overlay.Cash, []string{"0", "0", "-250", "0"})
}

func TestRebateValidityWindow(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	rb := flatPercentRebate(1, "10", 0)
	rb.ValidFrom = YM{2025, 2}
	rb.ValidTo = YM{2025, 2}
	basis := RebateBasis{Revenue: MonthlySeries{dec("100"), dec("100"), dec("100")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, basis, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"0", "-10", "0"})
}

func TestRebateNonRevenueBasisSkipped(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 1}
	rb := flatPercentRebate(1, "10", 0)
	rb.Basis = "volume"
	basis := RebateBasis{Revenue: MonthlySeries{dec("100")}}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, basis, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"0"})
}

func TestProductScopedRebate(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2}
	productID := int64(42)
	rb := flatPercentRebate(1, "20", 0)
	rb.Scope = RebateScopeProduct
	rb.ProductID = &productID
	basis := RebateBasis{
		Revenue:        MonthlySeries{dec("1000"), dec("1000")},
		ProductRevenue: map[int64]MonthlySeries{42: {dec("100"), dec("200")}},
	}
	overlay := ApplyRebates(scenario, []RebateDefinition{rb}, basis, RebateModeMonthly)

	wantSeries(t, overlay.Accrual, []string{"-20", "-40"})
}
