package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, member_id, package_id, ledger_entry_id, amount, status, txn_ref, method, note, paid_at, created_at`

type repository struct {
	db sqlx.ExtContext
}

func NewRepository(db sqlx.ExtContext) Repository {
	return &repository{db: db}
}

func (r *repository) GetByTxnRef(ctx context.Context, txnRef string) (*Payment, error) {
	var p Payment
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+paymentColumns+` FROM payments WHERE txn_ref = $1`, txnRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreatePending(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (member_id, package_id, amount, status, txn_ref, method, note)
		VALUES ($1, $2, $3, 'PENDING', $4, $5, $6)
		RETURNING ` + paymentColumns

	return r.db.QueryRowxContext(ctx, query,
		p.MemberID, p.PackageID, p.Amount, p.TxnRef, p.Method, p.Note,
	).StructScan(p)
}

func (r *repository) MarkPaid(ctx context.Context, p *Payment) (bool, error) {
	query := `
		INSERT INTO payments (member_id, package_id, ledger_entry_id, amount, status, txn_ref, method, note, paid_at)
		VALUES ($1, $2, $3, $4, 'PAID', $5, $6, $7, $8)
		ON CONFLICT (txn_ref) DO UPDATE
		SET ledger_entry_id = EXCLUDED.ledger_entry_id,
		    amount = EXCLUDED.amount,
		    status = 'PAID',
		    paid_at = EXCLUDED.paid_at
		WHERE payments.status <> 'PAID'
		RETURNING ` + paymentColumns

	err := r.db.QueryRowxContext(ctx, query,
		p.MemberID, p.PackageID, p.LedgerEntryID, p.Amount, p.TxnRef, p.Method, p.Note, p.PaidAt,
	).StructScan(p)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) MarkFailed(ctx context.Context, txnRef string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = 'FAILED' WHERE txn_ref = $1 AND status = 'PENDING'`, txnRef)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) ListByMember(ctx context.Context, memberID int) ([]Payment, error) {
	payments := []Payment{}
	err := sqlx.SelectContext(ctx, r.db, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE member_id = $1 ORDER BY created_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
