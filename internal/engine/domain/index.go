package domain

import "github.com/shopspring/decimal"

// IndexPoint is one observation of a named index series.
type IndexPoint struct {
	Period YM
	Value  decimal.Decimal
}

// IndexTable holds the index observations referenced by escalation policies,
// keyed by series code. Series are small (one point per horizon month at
// most), so lookups scan linearly.
type IndexTable struct {
	series map[string][]IndexPoint
}

// NewIndexTable returns an empty table.
func NewIndexTable() *IndexTable {
	return &IndexTable{series: make(map[string][]IndexPoint)}
}

// Add records an observation for a series.
func (t *IndexTable) Add(code string, period YM, value decimal.Decimal) {
	if t == nil || code == "" || !period.Valid() {
		return
	}
	t.series[code] = append(t.series[code], IndexPoint{Period: period, Value: value})
}

// ValueOnOrBefore returns the series value at the given month, or the latest
// observation before it. A missing point therefore holds the last known
// value instead of zeroing the multiplier.
func (t *IndexTable) ValueOnOrBefore(code string, period YM) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	var (
		best    decimal.Decimal
		bestKey int
		found   bool
	)
	for _, pt := range t.series[code] {
		key := pt.Period.Key()
		if key > period.Key() {
			continue
		}
		if !found || key > bestKey {
			best = pt.Value
			bestKey = key
			found = true
		}
	}
	return best, found
}

// Has reports whether the table holds any points for the series.
func (t *IndexTable) Has(code string) bool {
	if t == nil {
		return false
	}
	return len(t.series[code]) > 0
}
