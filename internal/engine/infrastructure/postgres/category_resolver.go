package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scenario-cloud/internal/engine/domain"
)

// boqLineRef carries the columns a category strategy may consult.
type boqLineRef struct {
	LineID    int64
	Category  string
	ProductID int64
}

// categoryStrategy resolves a category for one line. ok=false means the
// strategy has no answer and the next one is tried.
type categoryStrategy func(ctx context.Context, line boqLineRef) (domain.Category, bool, error)

// CategoryResolver resolves a BOQ line's business category through an
// ordered strategy chain, first match wins: the line's own category column,
// then the product mapping table.
type CategoryResolver struct {
	strategies []categoryStrategy
}

// NewCategoryResolver constructs the default chain.
func NewCategoryResolver(db *sql.DB) *CategoryResolver {
	return &CategoryResolver{strategies: []categoryStrategy{
		explicitCategory,
		productMapCategory(db),
	}}
}

// Resolve runs the chain. An unresolvable line is an error, never a silent
// default.
func (r *CategoryResolver) Resolve(ctx context.Context, line boqLineRef) (domain.Category, error) {
	for _, strategy := range r.strategies {
		category, ok, err := strategy(ctx, line)
		if err != nil {
			return "", err
		}
		if ok {
			return category, nil
		}
	}
	return "", fmt.Errorf("boq line %d: unresolved category", line.LineID)
}

func explicitCategory(_ context.Context, line boqLineRef) (domain.Category, bool, error) {
	if line.Category == "" {
		return "", false, nil
	}
	category := domain.Category(line.Category)
	if !category.IsValid() {
		return "", false, fmt.Errorf("boq line %d: unknown category %q", line.LineID, line.Category)
	}
	return category, true, nil
}

func productMapCategory(db *sql.DB) categoryStrategy {
	return func(ctx context.Context, line boqLineRef) (domain.Category, bool, error) {
		if db == nil || line.ProductID == 0 {
			return "", false, nil
		}
		var value string
		err := db.QueryRowContext(ctx,
			`SELECT category FROM product_category_map WHERE product_id = $1`,
			line.ProductID).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		category := domain.Category(value)
		if !category.IsValid() {
			return "", false, fmt.Errorf("product %d: unknown mapped category %q", line.ProductID, value)
		}
		return category, true, nil
	}
}
