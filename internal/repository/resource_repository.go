package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// ResourceRepo reads the catalog of bookable resources. The reservation
// engine never writes to this table; catalog management is an external
// concern, so only lookups and the FOR UPDATE lock used by the engine
// are exposed here. It implements booking.Catalog.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to the given database.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

const resourceCols = `id, family, name, capacity, unit_price_cents, currency, granularity, free_occupancy, surcharge_bps, is_active, created_at, updated_at`

func scanResource(s rowScanner) (*model.Resource, error) {
	var (
		res         model.Resource
		family      string
		granularity string
	)
	err := s.Scan(
		&res.ID, &family, &res.Name, &res.Capacity,
		&res.UnitPriceCents, &res.Currency, &granularity,
		&res.FreeOccupancy, &res.SurchargeBps, &res.IsActive,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Family = model.Family(family)
	res.Granularity = model.Granularity(granularity)
	return &res, nil
}

// Resource returns one resource or sql.ErrNoRows.
func (r *ResourceRepo) Resource(ctx context.Context, id uint64) (*model.Resource, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resourceCols+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// ResourceForUpdateTx loads a resource with a row lock. The engine takes
// this lock before its conflict check so that two concurrent creates on
// the same resource serialize; readers outside a transaction are not
// blocked.
func (r *ResourceRepo) ResourceForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Resource, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+resourceCols+` FROM resources WHERE id = ? FOR UPDATE`, id)
	return scanResource(row)
}

// List returns catalog entries for browsing, optionally restricted to
// active resources, ordered by family then name for stable output.
func (r *ResourceRepo) List(ctx context.Context, onlyActive bool) ([]model.Resource, error) {
	query := `SELECT ` + resourceCols + ` FROM resources`
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY family, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
