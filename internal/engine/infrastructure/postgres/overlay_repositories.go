package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"scenario-cloud/internal/engine/domain"
)

// PolicyRepository lists escalation policies with their index components.
type PolicyRepository struct {
	db *sql.DB
}

// NewPolicyRepository constructs a repository.
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// ListActive returns the scenario's active policies, components attached.
func (r *PolicyRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.EscalationPolicy, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("policy repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, scope, method, fixed_pct, step_per_month, base_year, base_month, frequency
FROM escalation_policies
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.EscalationPolicy
	for rows.Next() {
		var (
			p            domain.EscalationPolicy
			baseY, baseM sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Scope, &p.Method, &p.FixedPct, &p.StepPerMonth, &baseY, &baseM, &p.Frequency); err != nil {
			return nil, err
		}
		p.Base = ymFromNullable(baseY, baseM)
		p.Active = true
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range policies {
		if policies[i].Method != domain.EscalationIndex {
			continue
		}
		components, err := r.listComponents(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
		policies[i].Components = components
	}
	return policies, nil
}

func (r *PolicyRepository) listComponents(ctx context.Context, policyID int64) ([]domain.IndexComponent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT series_code, weight_pct, base_value
FROM escalation_policy_components
WHERE policy_id = $1
ORDER BY id`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []domain.IndexComponent
	for rows.Next() {
		var (
			comp domain.IndexComponent
			base decimal.NullDecimal
		)
		if err := rows.Scan(&comp.SeriesCode, &comp.WeightPct, &base); err != nil {
			return nil, err
		}
		if base.Valid {
			v := base.Decimal
			comp.BaseValue = &v
		}
		components = append(components, comp)
	}
	return components, rows.Err()
}

// RebateRepository lists rebate definitions with tiers and lumps.
type RebateRepository struct {
	db *sql.DB
}

// NewRebateRepository constructs a repository.
func NewRebateRepository(db *sql.DB) *RebateRepository {
	return &RebateRepository{db: db}
}

// ListActive returns the scenario's active rebates, children attached.
func (r *RebateRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.RebateDefinition, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rebate repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, scope, kind, basis, product_id,
	valid_from_year, valid_from_month, valid_to_year, valid_to_month, pay_month_lag
FROM rebate_definitions
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rebates []domain.RebateDefinition
	for rows.Next() {
		var (
			rb           domain.RebateDefinition
			productID    sql.NullInt64
			fromY, fromM sql.NullInt64
			toY, toM     sql.NullInt64
		)
		if err := rows.Scan(&rb.ID, &rb.Name, &rb.Scope, &rb.Kind, &rb.Basis, &productID,
			&fromY, &fromM, &toY, &toM, &rb.PayMonthLag); err != nil {
			return nil, err
		}
		if productID.Valid {
			v := productID.Int64
			rb.ProductID = &v
		}
		rb.ValidFrom = ymFromNullable(fromY, fromM)
		rb.ValidTo = ymFromNullable(toY, toM)
		rb.Active = true
		rebates = append(rebates, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rebates {
		switch rebates[i].Kind {
		case domain.RebateLumpSum:
			lumps, err := r.listLumps(ctx, rebates[i].ID)
			if err != nil {
				return nil, err
			}
			rebates[i].Lumps = lumps
		default:
			tiers, err := r.listTiers(ctx, rebates[i].ID)
			if err != nil {
				return nil, err
			}
			rebates[i].Tiers = tiers
		}
	}
	return rebates, nil
}

// listTiers returns tiers in ascending band order, matching how they are
// evaluated.
func (r *RebateRepository) listTiers(ctx context.Context, rebateID int64) ([]domain.RebateTier, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT min_value, max_value, percent
FROM rebate_tiers
WHERE rebate_id = $1
ORDER BY min_value`, rebateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.RebateTier
	for rows.Next() {
		var (
			tier domain.RebateTier
			max  decimal.NullDecimal
		)
		if err := rows.Scan(&tier.Min, &max, &tier.Percent); err != nil {
			return nil, err
		}
		if max.Valid {
			v := max.Decimal
			tier.Max = &v
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

func (r *RebateRepository) listLumps(ctx context.Context, rebateID int64) ([]domain.RebateLump, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT year, month, amount
FROM rebate_lumps
WHERE rebate_id = $1
ORDER BY year, month`, rebateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lumps []domain.RebateLump
	for rows.Next() {
		var (
			lump        domain.RebateLump
			year, month int
		)
		if err := rows.Scan(&year, &month, &lump.Amount); err != nil {
			return nil, err
		}
		lump.Period = domain.YM{Year: year, Month: month}
		lumps = append(lumps, lump)
	}
	return lumps, rows.Err()
}

// FxRepository lists FX rate windows.
type FxRepository struct {
	db *sql.DB
}

// NewFxRepository constructs a repository.
func NewFxRepository(db *sql.DB) *FxRepository {
	return &FxRepository{db: db}
}

// ListRates returns every FX rate window of the scenario.
func (r *FxRepository) ListRates(ctx context.Context, scenarioID int64) ([]domain.FxRate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fx repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT currency, start_year, start_month, end_year, end_month, rate_to_base
FROM fx_rates
WHERE scenario_id = $1
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.FxRate
	for rows.Next() {
		var (
			rate         domain.FxRate
			fromY, fromM sql.NullInt64
			toY, toM     sql.NullInt64
		)
		if err := rows.Scan(&rate.Currency, &fromY, &fromM, &toY, &toM, &rate.RateToBase); err != nil {
			return nil, err
		}
		rate.From = ymFromNullable(fromY, fromM)
		rate.To = ymFromNullable(toY, toM)
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// TaxRepository lists tax rules.
type TaxRepository struct {
	db *sql.DB
}

// NewTaxRepository constructs a repository.
func NewTaxRepository(db *sql.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

// ListActive returns the scenario's active tax rules.
func (r *TaxRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.TaxRule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tax repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT rate_pct, inclusive, start_year, start_month, end_year, end_month, applies_to
FROM tax_rules
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.TaxRule
	for rows.Next() {
		var (
			rule         domain.TaxRule
			fromY, fromM sql.NullInt64
			toY, toM     sql.NullInt64
		)
		if err := rows.Scan(&rule.RatePct, &rule.Inclusive, &fromY, &fromM, &toY, &toM, &rule.AppliesTo); err != nil {
			return nil, err
		}
		rule.From = ymFromNullable(fromY, fromM)
		rule.To = ymFromNullable(toY, toM)
		rule.Active = true
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
