package membership

import (
	"context"
	"database/sql"
	"errors"

	"gymbeta/internal/catalog"
	"gymbeta/internal/db"

	"github.com/jmoiron/sqlx"
)

const entryColumns = `id, member_id, package_id, package_type, start_date, end_date, active, status, trainer_id, created_at, updated_at`

type repository struct {
	db sqlx.ExtContext
}

// NewRepository accepts either a *sqlx.DB or a *sqlx.Tx. LockLedger only
// holds its lock for the lifetime of a transaction.
func NewRepository(db sqlx.ExtContext) Repository {
	return &repository{db: db}
}

func (r *repository) LockLedger(ctx context.Context, memberID int, pt catalog.PackageType) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, memberID, pt.LockKey())
	return err
}

func (r *repository) MemberExists(ctx context.Context, memberID int) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, memberID)
}

func (r *repository) ListEntries(ctx context.Context, memberID int, pt catalog.PackageType) ([]LedgerEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE member_id = $1 AND package_type = $2
		ORDER BY end_date DESC NULLS LAST, id ASC`

	entries := []LedgerEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, memberID, pt); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListMemberEntries(ctx context.Context, memberID int) ([]LedgerEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE member_id = $1
		ORDER BY id ASC`

	entries := []LedgerEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, memberID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) GetEntry(ctx context.Context, id int) (*LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	var e LedgerEntry
	err := sqlx.GetContext(ctx, r.db, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) CreateEntry(ctx context.Context, e *LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (member_id, package_id, package_type, start_date, end_date, active, status, trainer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + entryColumns

	return r.db.QueryRowxContext(ctx, query,
		e.MemberID, e.PackageID, e.PackageType, e.StartDate, e.EndDate, e.Active, e.Status, e.TrainerID,
	).StructScan(e)
}

func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *repository) UpdateEntry(ctx context.Context, e *LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET start_date = $2, end_date = $3, active = $4, status = $5, trainer_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + entryColumns

	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.StartDate, e.EndDate, e.Active, e.Status, e.TrainerID,
	).StructScan(e)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEntryNotFound
	}
	return err
}

func (r *repository) ListPendingPT(ctx context.Context) ([]LedgerEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE package_type = 'PT' AND status = 'pending'
		ORDER BY created_at ASC, id ASC`

	entries := []LedgerEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListMemberIDs(ctx context.Context) ([]int, error) {
	ids := []int{}
	if err := sqlx.SelectContext(ctx, r.db, &ids,
		`SELECT DISTINCT member_id FROM ledger_entries ORDER BY member_id`); err != nil {
		return nil, err
	}
	return ids, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}
