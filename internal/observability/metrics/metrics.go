package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "scenario_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	engineRuns       *prometheus.CounterVec
	engineRunLatency *prometheus.HistogramVec
	factsPersisted   prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	schedulerTicks *prometheus.CounterVec
)

// Init registers engine metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		engineRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "engine_runs_total",
				Help: "Total engine runs by result",
			},
			[]string{"result"},
		)
		engineRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "engine_run_latency_seconds",
				Help:    "Engine run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		factsPersisted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "engine_facts_persisted_total",
				Help: "Total facts written by persisted runs",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "run_export_total",
				Help: "Total run exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_export_latency_seconds",
				Help:    "Run export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		schedulerTicks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_runs_total",
				Help: "Total scheduled engine runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			engineRuns,
			engineRunLatency,
			factsPersisted,
			exportTotal,
			exportLatency,
			schedulerTicks,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveEngineRun records one engine run's duration and result.
func ObserveEngineRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if engineRuns != nil {
		engineRuns.WithLabelValues(result).Inc()
	}
	if engineRunLatency != nil {
		engineRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddFactsPersisted adds the fact count of a persisted run.
func AddFactsPersisted(count int) {
	if count <= 0 {
		return
	}
	if factsPersisted != nil {
		factsPersisted.Add(float64(count))
	}
}

// ObserveExport records export latency by format and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncSchedulerRun increments the scheduled-run counter.
func IncSchedulerRun(result string) {
	if result == "" {
		result = resultSuccess
	}
	if schedulerTicks != nil {
		schedulerTicks.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
