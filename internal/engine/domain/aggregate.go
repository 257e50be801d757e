package domain

import "github.com/shopspring/decimal"

// PeriodBucket is one aggregated period with its summed value, labelled by
// the bucket's closing month.
type PeriodBucket struct {
	Period YM
	Value  decimal.Decimal
}

// AggregateQuarterly sums a monthly series into calendar quarters, keyed by
// the quarter-end month. Partial quarters at the horizon edge aggregate
// whatever months exist.
func AggregateQuarterly(scenario Scenario, series MonthlySeries) []PeriodBucket {
	return aggregateBy(scenario, series, func(p YM) YM { return p.QuarterEnd() })
}

// AggregateAnnual sums a monthly series into calendar years, keyed by the
// December of each year.
func AggregateAnnual(scenario Scenario, series MonthlySeries) []PeriodBucket {
	return aggregateBy(scenario, series, func(p YM) YM { return p.YearEnd() })
}

func aggregateBy(scenario Scenario, series MonthlySeries, bucketOf func(YM) YM) []PeriodBucket {
	var out []PeriodBucket
	for i := range series {
		month := scenario.Start.AddMonths(i)
		bucket := bucketOf(month)
		if n := len(out); n > 0 && out[n-1].Period == bucket {
			out[n-1].Value = out[n-1].Value.Add(series[i])
			continue
		}
		out = append(out, PeriodBucket{Period: bucket, Value: series[i]})
	}
	return out
}
