package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scenario-cloud/internal/engine/domain"
)

// ScenarioRepository loads scenario headers.
type ScenarioRepository struct {
	db *sql.DB
}

// NewScenarioRepository constructs a repository.
func NewScenarioRepository(db *sql.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Get returns a scenario by id.
func (r *ScenarioRepository) Get(ctx context.Context, id int64) (*domain.Scenario, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("scenario repo: nil db")
	}
	var (
		s                     domain.Scenario
		startYear, startMonth int
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, start_year, start_month, months, base_currency, default_reward_pct, dso_days
FROM scenarios
WHERE id = $1`, id).Scan(
		&s.ID, &startYear, &startMonth, &s.Months, &s.BaseCurrency, &s.DefaultRewardPct, &s.DSODays,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario %d: %w", id, domain.ErrScenarioNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.Start = domain.YM{Year: startYear, Month: startMonth}
	return &s, nil
}
