package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"scenario-cloud/internal/engine/domain"
)

// IndexRepository loads index series points.
type IndexRepository struct {
	db *sql.DB
}

// NewIndexRepository constructs a repository.
func NewIndexRepository(db *sql.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// LoadSeries fetches all points for the requested series codes into an index
// table. Unknown codes simply contribute no points.
func (r *IndexRepository) LoadSeries(ctx context.Context, codes []string) (*domain.IndexTable, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("index repo: nil db")
	}
	table := domain.NewIndexTable()
	if len(codes) == 0 {
		return table, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT series_code, year, month, value
FROM index_points
WHERE series_code = ANY($1)
ORDER BY series_code, year, month`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code        string
			year, month int
			value       decimal.Decimal
		)
		if err := rows.Scan(&code, &year, &month, &value); err != nil {
			return nil, err
		}
		table.Add(code, domain.YM{Year: year, Month: month}, value)
	}
	return table, rows.Err()
}
