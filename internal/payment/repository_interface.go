package payment

import (
	"context"

	"gymbeta/internal/membership"
)

type Repository interface {
	GetByTxnRef(ctx context.Context, txnRef string) (*Payment, error)
	CreatePending(ctx context.Context, p *Payment) error
	// MarkPaid upserts p as PAID. It reports false when a PAID payment with
	// the same txn_ref already exists.
	MarkPaid(ctx context.Context, p *Payment) (bool, error)
	MarkFailed(ctx context.Context, txnRef string) (bool, error)
	ListByMember(ctx context.Context, memberID int) ([]Payment, error)
}

type Tx interface {
	membership.Tx
	Payments() Repository
}

type Store interface {
	membership.Store
	WithPaymentTx(ctx context.Context, fn func(tx Tx) error) error
	Payments() Repository
}
