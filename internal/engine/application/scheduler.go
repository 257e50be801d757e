package application

import (
	"context"
	"log"
	"time"

	"scenario-cloud/internal/observability/metrics"
)

// Scheduler recomputes configured scenarios once a day, persisting a fresh
// run for each.
type Scheduler struct {
	service    *Service
	scenarios  []int64
	categories []string
	options    RunOptions
	dailyAt    string
	logger     *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(service *Service, cfg Config, logger *log.Logger) *Scheduler {
	return &Scheduler{
		service:    service,
		scenarios:  cfg.Schedule.Scenarios,
		categories: cfg.Categories,
		options:    cfg.Defaults,
		dailyAt:    cfg.Schedule.DailyAt,
		logger:     logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *Scheduler) runOnce(ctx context.Context) {
	for _, scenarioID := range s.scenarios {
		if scenarioID <= 0 {
			continue
		}
		req := RunRequest{
			ScenarioID: scenarioID,
			Categories: s.categories,
			Options:    s.options,
			Persist:    true,
		}
		if _, err := s.service.Run(ctx, req); err != nil {
			metrics.IncSchedulerRun(metrics.ResultError)
			if s.logger != nil {
				s.logger.Printf("engine schedule error: scenario=%d err=%v", scenarioID, err)
			}
			continue
		}
		metrics.IncSchedulerRun(metrics.ResultSuccess)
	}
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
