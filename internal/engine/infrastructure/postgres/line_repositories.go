package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"scenario-cloud/internal/engine/domain"
)

// BOQRepository lists BOQ line items.
type BOQRepository struct {
	db         *sql.DB
	categories *CategoryResolver
}

// NewBOQRepository constructs a repository.
func NewBOQRepository(db *sql.DB) *BOQRepository {
	return &BOQRepository{db: db, categories: NewCategoryResolver(db)}
}

// ListActive returns the scenario's active BOQ lines.
func (r *BOQRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.BOQLineItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("boq repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, category, product_id, quantity, unit_price, unit_cogs, frequency, start_year, start_month, months
FROM boq_line_items
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		items []domain.BOQLineItem
		refs  []boqLineRef
	)
	for rows.Next() {
		var (
			item           domain.BOQLineItem
			category       string
			productID      sql.NullInt64
			startY, startM sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &category, &productID, &item.Quantity, &item.UnitPrice,
			&item.UnitCOGS, &item.Frequency, &startY, &startM, &item.Months); err != nil {
			return nil, err
		}
		if productID.Valid {
			v := productID.Int64
			item.ProductID = &v
		}
		item.Start = ymFromNullable(startY, startM)
		item.Active = true
		items = append(items, item)
		refs = append(refs, boqLineRef{LineID: item.ID, Category: category, ProductID: productID.Int64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Category, err = r.categories.Resolve(ctx, refs[i])
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// ServiceRepository lists service agreements.
type ServiceRepository struct {
	db *sql.DB
}

// NewServiceRepository constructs a repository.
func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// ListActive returns the scenario's active service agreements.
func (r *ServiceRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.ServiceAgreement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("service repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, quantity, unit_cost, currency, start_year, start_month, months
FROM service_agreements
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agreements []domain.ServiceAgreement
	for rows.Next() {
		var (
			svc            domain.ServiceAgreement
			startY, startM sql.NullInt64
		)
		if err := rows.Scan(&svc.ID, &svc.Quantity, &svc.UnitCost, &svc.Currency, &startY, &startM, &svc.Months); err != nil {
			return nil, err
		}
		svc.Start = ymFromNullable(startY, startM)
		svc.Active = true
		agreements = append(agreements, svc)
	}
	return agreements, rows.Err()
}

// CapexRepository lists CAPEX assets.
type CapexRepository struct {
	db *sql.DB
}

// NewCapexRepository constructs a repository.
func NewCapexRepository(db *sql.DB) *CapexRepository {
	return &CapexRepository{db: db}
}

// ListActive returns the scenario's active CAPEX assets.
func (r *CapexRepository) ListActive(ctx context.Context, scenarioID int64) ([]domain.CapexAsset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("capex repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, amount, service_start_year, service_start_month, useful_life_months, depr_method,
	salvage_value, reward_enabled, reward_pct, reward_spread, linked_boq_item_id, term_override_m
FROM capex_assets
WHERE scenario_id = $1 AND active
ORDER BY id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.CapexAsset
	for rows.Next() {
		var (
			asset          domain.CapexAsset
			startY, startM sql.NullInt64
			rewardPct      decimal.NullDecimal
			linkedID       sql.NullInt64
		)
		if err := rows.Scan(&asset.ID, &asset.Amount, &startY, &startM, &asset.UsefulLifeM, &asset.DeprMethod,
			&asset.SalvageValue, &asset.RewardEnabled, &rewardPct, &asset.RewardSpread, &linkedID, &asset.TermOverrideM); err != nil {
			return nil, err
		}
		asset.ServiceStart = ymFromNullable(startY, startM)
		if rewardPct.Valid {
			v := rewardPct.Decimal
			asset.RewardPct = &v
		}
		if linkedID.Valid {
			v := linkedID.Int64
			asset.LinkedBOQItemID = &v
		}
		asset.Active = true
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// ymFromNullable builds a year-month from nullable columns; either null means
// unset and yields the zero value.
func ymFromNullable(year, month sql.NullInt64) domain.YM {
	if !year.Valid || !month.Valid {
		return domain.YM{}
	}
	return domain.YM{Year: int(year.Int64), Month: int(month.Int64)}
}
