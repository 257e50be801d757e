package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scenario-cloud/internal/engine/domain"
)

// FactStore persists engine runs and their facts.
type FactStore struct {
	db *sql.DB
}

// NewFactStore constructs a fact store.
func NewFactStore(db *sql.DB) *FactStore {
	return &FactStore{db: db}
}

// SaveRun writes the run row, every fact, and the finish timestamp in one
// transaction: either the complete set of facts for the run becomes visible
// or none do. The upsert keeps re-persisting idempotent per composite key.
func (s *FactStore) SaveRun(ctx context.Context, run domain.EngineRun, facts []domain.Fact) error {
	if s == nil || s.db == nil {
		return errors.New("fact store: nil db")
	}
	if run.ID == "" {
		return errors.New("fact store: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fact store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	options := run.OptionsJSON
	if len(options) == 0 {
		options = []byte("{}")
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO engine_runs (id, scenario_id, started_at, options)
VALUES ($1, $2, $3, $4)`,
		run.ID, run.ScenarioID, run.StartedAt, options,
	); err != nil {
		return fmt.Errorf("fact store: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO engine_facts (run_id, scenario_id, sheet_code, category, period_key, series, value)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, sheet_code, category, period_key, series)
DO UPDATE SET value = EXCLUDED.value`)
	if err != nil {
		return fmt.Errorf("fact store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, fact := range facts {
		if _, err := stmt.ExecContext(ctx,
			run.ID, run.ScenarioID, fact.SheetCode, string(fact.Category),
			fact.Period.Key(), string(fact.Series), fact.Value,
		); err != nil {
			return fmt.Errorf("fact store: upsert %s/%s/%d/%s: %w",
				fact.SheetCode, fact.Category, fact.Period.Key(), fact.Series, err)
		}
	}

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE engine_runs SET finished_at = $1 WHERE id = $2`, finished, run.ID); err != nil {
		return fmt.Errorf("fact store: finish run: %w", err)
	}
	return tx.Commit()
}

// RunSummary is an engine run header row.
type RunSummary struct {
	ID         string
	ScenarioID int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Options    []byte
}

// GetRun returns a run header by id.
func (s *FactStore) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("fact store: nil db")
	}
	var (
		run      RunSummary
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, scenario_id, started_at, finished_at, options
FROM engine_runs
WHERE id = $1`, runID).Scan(&run.ID, &run.ScenarioID, &run.StartedAt, &finished, &run.Options)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// FactFilter narrows a fact listing; zero values match everything.
type FactFilter struct {
	SheetCode string
	Category  string
	Series    string
}

// ListFacts returns a run's facts ordered by sheet, category, period and
// series, optionally filtered.
func (s *FactStore) ListFacts(ctx context.Context, runID string, filter FactFilter) ([]domain.Fact, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("fact store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, sheet_code, category, period_key, series, value
FROM engine_facts
WHERE run_id = $1
	AND ($2 = '' OR sheet_code = $2)
	AND ($3 = '' OR category = $3)
	AND ($4 = '' OR series = $4)
ORDER BY sheet_code, category, period_key, series`,
		runID, filter.SheetCode, filter.Category, filter.Series)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []domain.Fact
	for rows.Next() {
		var (
			fact      domain.Fact
			periodKey int
		)
		if err := rows.Scan(&fact.RunID, &fact.SheetCode, &fact.Category, &periodKey, &fact.Series, &fact.Value); err != nil {
			return nil, err
		}
		if fact.Period, err = domain.YMFromKey(periodKey); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}
