package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const schemaVersion = 1

// EnsureSchema bootstraps the engine tables idempotently. It runs once at
// process start, never from request handlers, and records the applied version
// in schema_version.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("engine schema: nil db")
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
	component TEXT PRIMARY KEY,
	version   INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("engine schema: version table: %w", err)
	}

	var current int
	err := db.QueryRowContext(ctx,
		`SELECT version FROM schema_version WHERE component = 'engine'`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("engine schema: read version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("engine schema: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("engine schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO schema_version (component, version) VALUES ('engine', $1)
ON CONFLICT (component) DO UPDATE SET version = EXCLUDED.version`, schemaVersion); err != nil {
		return fmt.Errorf("engine schema: record version: %w", err)
	}
	return tx.Commit()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
	id                 BIGSERIAL PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	start_year         INTEGER NOT NULL,
	start_month        INTEGER NOT NULL,
	months             INTEGER NOT NULL,
	base_currency      TEXT NOT NULL DEFAULT 'AUD',
	default_reward_pct NUMERIC NOT NULL DEFAULT 0,
	dso_days           INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS boq_line_items (
	id          BIGSERIAL PRIMARY KEY,
	scenario_id BIGINT NOT NULL REFERENCES scenarios(id),
	category    TEXT NOT NULL DEFAULT '',
	product_id  BIGINT,
	quantity    NUMERIC NOT NULL DEFAULT 0,
	unit_price  NUMERIC NOT NULL DEFAULT 0,
	unit_cogs   NUMERIC NOT NULL DEFAULT 0,
	frequency   TEXT NOT NULL DEFAULT 'monthly',
	start_year  INTEGER,
	start_month INTEGER,
	months      INTEGER NOT NULL DEFAULT 0,
	active      BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS product_category_map (
	product_id BIGINT PRIMARY KEY,
	category   TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS service_agreements (
	id          BIGSERIAL PRIMARY KEY,
	scenario_id BIGINT NOT NULL REFERENCES scenarios(id),
	quantity    NUMERIC NOT NULL DEFAULT 0,
	unit_cost   NUMERIC NOT NULL DEFAULT 0,
	currency    TEXT NOT NULL DEFAULT '',
	start_year  INTEGER,
	start_month INTEGER,
	months      INTEGER NOT NULL DEFAULT 0,
	active      BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS escalation_policies (
	id             BIGSERIAL PRIMARY KEY,
	scenario_id    BIGINT NOT NULL REFERENCES scenarios(id),
	scope          TEXT NOT NULL DEFAULT 'ALL',
	method         TEXT NOT NULL,
	fixed_pct      NUMERIC NOT NULL DEFAULT 0,
	step_per_month INTEGER NOT NULL DEFAULT 1,
	base_year      INTEGER,
	base_month     INTEGER,
	frequency      TEXT NOT NULL DEFAULT 'annual',
	active         BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS escalation_policy_components (
	id          BIGSERIAL PRIMARY KEY,
	policy_id   BIGINT NOT NULL REFERENCES escalation_policies(id) ON DELETE CASCADE,
	series_code TEXT NOT NULL,
	weight_pct  NUMERIC NOT NULL DEFAULT 0,
	base_value  NUMERIC
)`,
	`CREATE TABLE IF NOT EXISTS index_series (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS index_points (
	series_code TEXT NOT NULL REFERENCES index_series(code),
	year        INTEGER NOT NULL,
	month       INTEGER NOT NULL,
	value       NUMERIC NOT NULL,
	PRIMARY KEY (series_code, year, month)
)`,
	`CREATE TABLE IF NOT EXISTS rebate_definitions (
	id               BIGSERIAL PRIMARY KEY,
	scenario_id      BIGINT NOT NULL REFERENCES scenarios(id),
	name             TEXT NOT NULL DEFAULT '',
	scope            TEXT NOT NULL DEFAULT 'all',
	kind             TEXT NOT NULL,
	basis            TEXT NOT NULL DEFAULT 'revenue',
	product_id       BIGINT,
	valid_from_year  INTEGER,
	valid_from_month INTEGER,
	valid_to_year    INTEGER,
	valid_to_month   INTEGER,
	pay_month_lag    INTEGER NOT NULL DEFAULT 0,
	active           BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS rebate_tiers (
	id        BIGSERIAL PRIMARY KEY,
	rebate_id BIGINT NOT NULL REFERENCES rebate_definitions(id) ON DELETE CASCADE,
	min_value NUMERIC NOT NULL DEFAULT 0,
	max_value NUMERIC,
	percent   NUMERIC NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS rebate_lumps (
	id        BIGSERIAL PRIMARY KEY,
	rebate_id BIGINT NOT NULL REFERENCES rebate_definitions(id) ON DELETE CASCADE,
	year      INTEGER NOT NULL,
	month     INTEGER NOT NULL,
	amount    NUMERIC NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS fx_rates (
	id           BIGSERIAL PRIMARY KEY,
	scenario_id  BIGINT NOT NULL REFERENCES scenarios(id),
	currency     TEXT NOT NULL,
	start_year   INTEGER,
	start_month  INTEGER,
	end_year     INTEGER,
	end_month    INTEGER,
	rate_to_base NUMERIC NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tax_rules (
	id          BIGSERIAL PRIMARY KEY,
	scenario_id BIGINT NOT NULL REFERENCES scenarios(id),
	rate_pct    NUMERIC NOT NULL DEFAULT 0,
	inclusive   BOOLEAN NOT NULL DEFAULT FALSE,
	start_year  INTEGER,
	start_month INTEGER,
	end_year    INTEGER,
	end_month   INTEGER,
	applies_to  TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS capex_assets (
	id                  BIGSERIAL PRIMARY KEY,
	scenario_id         BIGINT NOT NULL REFERENCES scenarios(id),
	amount              NUMERIC NOT NULL DEFAULT 0,
	service_start_year  INTEGER,
	service_start_month INTEGER,
	useful_life_months  INTEGER NOT NULL DEFAULT 0,
	depr_method         TEXT NOT NULL DEFAULT 'straight_line',
	salvage_value       NUMERIC NOT NULL DEFAULT 0,
	reward_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
	reward_pct          NUMERIC,
	reward_spread       TEXT NOT NULL DEFAULT 'even',
	linked_boq_item_id  BIGINT,
	term_override_m     INTEGER NOT NULL DEFAULT 0,
	active              BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS engine_runs (
	id          TEXT PRIMARY KEY,
	scenario_id BIGINT NOT NULL REFERENCES scenarios(id),
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	options     JSONB NOT NULL DEFAULT '{}'::jsonb
)`,
	`CREATE TABLE IF NOT EXISTS engine_facts (
	run_id      TEXT NOT NULL REFERENCES engine_runs(id) ON DELETE CASCADE,
	scenario_id BIGINT NOT NULL,
	sheet_code  TEXT NOT NULL,
	category    TEXT NOT NULL,
	period_key  INTEGER NOT NULL,
	series      TEXT NOT NULL,
	value       NUMERIC NOT NULL,
	PRIMARY KEY (run_id, sheet_code, category, period_key, series)
)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_facts_scenario ON engine_facts (scenario_id, sheet_code)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_runs_scenario ON engine_runs (scenario_id, started_at DESC)`,
}
