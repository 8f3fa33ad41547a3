package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db sqlx.ExtContext
}

// NewRepository accepts either a *sqlx.DB or a *sqlx.Tx.
func NewRepository(db sqlx.ExtContext) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Package) error {
	query := `
		INSERT INTO packages (name, package_type, duration_months, price, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, package_type, duration_months, price, description, created_at
	`

	return r.db.QueryRowxContext(ctx, query, p.Name, p.Type, p.DurationMonths, p.Price, p.Description).StructScan(p)
}

func (r *repository) List(ctx context.Context, filter *PackageType) ([]Package, error) {
	query := `
		SELECT id, name, package_type, duration_months, price, description, created_at
		FROM packages
	`
	args := []interface{}{}

	if filter != nil {
		query += " WHERE package_type = $1"
		args = append(args, *filter)
	}

	query += " ORDER BY package_type, duration_months ASC, id ASC"

	packages := []Package{}
	if err := sqlx.SelectContext(ctx, r.db, &packages, query, args...); err != nil {
		return nil, err
	}

	return packages, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Package, error) {
	query := `
		SELECT id, name, package_type, duration_months, price, description, created_at
		FROM packages
		WHERE id = $1
	`

	var p Package
	err := sqlx.GetContext(ctx, r.db, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}
