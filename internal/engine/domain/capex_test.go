package domain

import "testing"

func TestDepreciationStraightLine(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 12}
	assets := []CapexAsset{{
		ID:           1,
		Amount:       dec("1300"),
		SalvageValue: dec("100"),
		UsefulLifeM:  6,
		ServiceStart: YM{2025, 3},
		DeprMethod:   DeprStraightLine,
		Active:       true,
	}}
	got := DepreciationSeries(scenario, assets)

	wantSeries(t, got, []string{"0", "0", "200", "200", "200", "200", "200", "200", "0", "0", "0", "0"})
	if !got.Sum().Equal(dec("1200")) {
		t.Fatalf("depreciation total %s, want amount minus salvage 1200", got.Sum())
	}
}

func TestDepreciationSalvageAboveAmountIsZero(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	assets := []CapexAsset{{
		Amount:       dec("100"),
		SalvageValue: dec("150"),
		UsefulLifeM:  3,
		Active:       true,
	}}
	got := DepreciationSeries(scenario, assets)
	if !got.IsZero() {
		t.Fatal("negative depreciable base must contribute nothing")
	}
}

func TestDepreciationNonStraightLineContributesNothing(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 6}
	assets := []CapexAsset{
		{Amount: dec("600"), UsefulLifeM: 6, DeprMethod: DepreciationMethod("declining_balance"), Active: true},
		{Amount: dec("600"), UsefulLifeM: 6, DeprMethod: DepreciationMethod("sum_of_years"), Active: true},
	}
	if got := DepreciationSeries(scenario, assets); !got.IsZero() {
		t.Fatalf("non-straight-line assets must contribute nothing, got %v", got)
	}
}

func TestDepreciationEmptyMethodIsStraightLine(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	assets := []CapexAsset{{Amount: dec("300"), UsefulLifeM: 3, Active: true}}
	got := DepreciationSeries(scenario, assets)
	wantSeries(t, got, []string{"100", "100", "100"})
}

func TestDepreciationZeroLifeNoOp(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	assets := []CapexAsset{{Amount: dec("100"), UsefulLifeM: 0, Active: true}}
	if got := DepreciationSeries(scenario, assets); !got.IsZero() {
		t.Fatal("zero useful life must contribute nothing")
	}
}

func TestRewardEvenSpreadSumsToTotal(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 12, DefaultRewardPct: dec("8")}
	assets := []CapexAsset{{
		Amount:        dec("12000"),
		RewardEnabled: true,
		RewardSpread:  RewardSpreadEven,
		TermOverrideM: 6,
		Active:        true,
	}}
	got := RewardSeries(scenario, assets, nil)

	// 12000 * 8% = 960 over 6 months.
	wantSeries(t, got, []string{"160", "160", "160", "160", "160", "160", "0", "0", "0", "0", "0", "0"})
	if !got.Sum().Equal(dec("960")) {
		t.Fatalf("reward total %s, want 960", got.Sum())
	}
}

func TestRewardPctOverride(t *testing.T) {
	pct := dec("50")
	scenario := Scenario{Start: YM{2025, 1}, Months: 2, DefaultRewardPct: dec("8")}
	assets := []CapexAsset{{
		Amount:        dec("100"),
		RewardEnabled: true,
		RewardPct:     &pct,
		RewardSpread:  RewardSpreadEven,
		Active:        true,
	}}
	got := RewardSeries(scenario, assets, nil)
	wantSeries(t, got, []string{"25", "25"})
}

func TestRewardFollowBOQWeights(t *testing.T) {
	line := int64(11)
	scenario := Scenario{Start: YM{2025, 1}, Months: 4, DefaultRewardPct: dec("10")}
	assets := []CapexAsset{{
		Amount:          dec("1000"),
		RewardEnabled:   true,
		RewardSpread:    RewardSpreadFollowBOQ,
		LinkedBOQItemID: &line,
		Active:          true,
	}}
	weights := map[int64]MonthlySeries{
		11: {dec("100"), dec("300"), dec("0"), dec("0")},
	}
	got := RewardSeries(scenario, assets, weights)

	// Total 100 split 1:3 across the first two months.
	wantSeries(t, got, []string{"25", "75", "0", "0"})
}

func TestRewardFollowBOQZeroWeightFallsBackToEven(t *testing.T) {
	line := int64(11)
	scenario := Scenario{Start: YM{2025, 1}, Months: 4, DefaultRewardPct: dec("10")}
	assets := []CapexAsset{{
		Amount:          dec("1000"),
		RewardEnabled:   true,
		RewardSpread:    RewardSpreadFollowBOQ,
		LinkedBOQItemID: &line,
		Active:          true,
	}}
	weights := map[int64]MonthlySeries{11: NewMonthlySeries(4)}
	got := RewardSeries(scenario, assets, weights)
	wantSeries(t, got, []string{"25", "25", "25", "25"})
}

func TestRewardUnknownSpreadDefaultsToEven(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2, DefaultRewardPct: dec("10")}
	assets := []CapexAsset{{
		Amount:        dec("100"),
		RewardEnabled: true,
		RewardSpread:  RewardSpread("mystery"),
		Active:        true,
	}}
	got := RewardSeries(scenario, assets, nil)
	wantSeries(t, got, []string{"5", "5"})
}

func TestRewardDisabledOrZeroSkipped(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 2, DefaultRewardPct: dec("0")}
	assets := []CapexAsset{
		{Amount: dec("100"), RewardEnabled: false, Active: true},
		{Amount: dec("100"), RewardEnabled: true, Active: true}, // zero pct
	}
	if got := RewardSeries(scenario, assets, nil); !got.IsZero() {
		t.Fatal("disabled or zero-percent rewards must contribute nothing")
	}
}

func TestRewardNegativeTotalSkipped(t *testing.T) {
	negativePct := dec("-10")
	scenario := Scenario{Start: YM{2025, 1}, Months: 2, DefaultRewardPct: dec("10")}
	assets := []CapexAsset{
		{Amount: dec("100"), RewardEnabled: true, RewardPct: &negativePct, Active: true},
		{Amount: dec("-100"), RewardEnabled: true, Active: true},
	}
	if got := RewardSeries(scenario, assets, nil); !got.IsZero() {
		t.Fatalf("negative reward totals must be skipped, got %v", got)
	}
}
