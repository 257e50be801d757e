package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func wantSeries(t *testing.T, got MonthlySeries, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("series length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(dec(want[i])) {
			t.Errorf("month %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExpandScheduleOnce(t *testing.T) {
	start := YM{2025, 1}
	got := ExpandSchedule(start, 6, YM{2025, 3}, 12, FrequencyOnce, dec("500"))
	wantSeries(t, got, []string{"0", "0", "500", "0", "0", "0"})
}

func TestExpandScheduleMonthlyFullAmount(t *testing.T) {
	// Monthly posts the full amount every month of the span, not an average.
	start := YM{2025, 1}
	got := ExpandSchedule(start, 6, YM{2025, 2}, 3, FrequencyMonthly, dec("50"))
	wantSeries(t, got, []string{"0", "50", "50", "50", "0", "0"})
}

func TestExpandScheduleMonthlyClampedToHorizon(t *testing.T) {
	start := YM{2025, 1}
	got := ExpandSchedule(start, 4, YM{2025, 3}, 12, FrequencyMonthly, dec("10"))
	wantSeries(t, got, []string{"0", "0", "10", "10"})
}

func TestExpandScheduleEvenSplit(t *testing.T) {
	start := YM{2025, 1}
	got := ExpandSchedule(start, 6, YM{2025, 1}, 4, Frequency("quarterly"), dec("400"))
	wantSeries(t, got, []string{"100", "100", "100", "100", "0", "0"})
}

func TestExpandScheduleUnsetDurationSpansRemainingHorizon(t *testing.T) {
	// Duration 0 means unset and runs to the end of the horizon.
	start := YM{2025, 1}
	got := ExpandSchedule(start, 4, YM{2025, 2}, 0, FrequencyMonthly, dec("10"))
	wantSeries(t, got, []string{"0", "10", "10", "10"})
}

func TestExpandScheduleStartBeforeScenarioClamps(t *testing.T) {
	start := YM{2025, 6}
	got := ExpandSchedule(start, 3, YM{2025, 1}, 2, FrequencyMonthly, dec("7"))
	wantSeries(t, got, []string{"7", "7", "0"})
}

func TestExpandScheduleOffsetPastHorizon(t *testing.T) {
	start := YM{2025, 1}
	got := ExpandSchedule(start, 3, YM{2026, 1}, 5, FrequencyMonthly, dec("7"))
	wantSeries(t, got, []string{"0", "0", "0"})
}

func TestExpandBOQFiltersCategoryAndActive(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 3}
	lines := []BOQLineItem{
		{ID: 1, Category: CategoryAN, Quantity: dec("10"), UnitPrice: dec("5"), UnitCOGS: dec("2"), Frequency: FrequencyMonthly, Months: 3, Active: true},
		{ID: 2, Category: CategoryEM, Quantity: dec("1"), UnitPrice: dec("99"), Frequency: FrequencyMonthly, Months: 3, Active: true},
		{ID: 3, Category: CategoryAN, Quantity: dec("1"), UnitPrice: dec("99"), Frequency: FrequencyMonthly, Months: 3, Active: false},
	}
	exp := ExpandBOQ(scenario, lines, CategoryAN)
	wantSeries(t, exp.Revenue, []string{"50", "50", "50"})
	wantSeries(t, exp.COGS, []string{"20", "20", "20"})
	if _, ok := exp.LineRevenue[1]; !ok {
		t.Fatal("expected line 1 revenue retained")
	}
	if _, ok := exp.LineRevenue[2]; ok {
		t.Fatal("line 2 is another category, should not be expanded")
	}
}

func TestExpandServicesTracksCurrency(t *testing.T) {
	scenario := Scenario{Start: YM{2025, 1}, Months: 4}
	agreements := []ServiceAgreement{
		{ID: 1, Quantity: dec("2"), UnitCost: dec("30"), Currency: "USD", Months: 2, Active: true},
		{ID: 2, Quantity: dec("1"), UnitCost: dec("10"), Currency: "EUR", Start: YM{2025, 3}, Months: 2, Active: true},
	}
	exp := ExpandServices(scenario, agreements)
	wantSeries(t, exp.Expense, []string{"60", "60", "10", "10"})
	wantCur := []string{"USD", "USD", "EUR", "EUR"}
	for i, c := range wantCur {
		if exp.Currencies[i] != c {
			t.Errorf("month %d currency %q, want %q", i, exp.Currencies[i], c)
		}
	}
}
