package membership

import (
	"context"

	"gymbeta/internal/catalog"
)

type Repository interface {
	// LockLedger serializes writers of one (member, type) ledger until the
	// surrounding transaction ends.
	LockLedger(ctx context.Context, memberID int, pt catalog.PackageType) error
	MemberExists(ctx context.Context, memberID int) (bool, error)
	ListEntries(ctx context.Context, memberID int, pt catalog.PackageType) ([]LedgerEntry, error)
	ListMemberEntries(ctx context.Context, memberID int) ([]LedgerEntry, error)
	GetEntry(ctx context.Context, id int) (*LedgerEntry, error)
	CreateEntry(ctx context.Context, e *LedgerEntry) error
	SetActive(ctx context.Context, id int, active bool) error
	UpdateEntry(ctx context.Context, e *LedgerEntry) error
	ListPendingPT(ctx context.Context) ([]LedgerEntry, error)
	ListMemberIDs(ctx context.Context) ([]int, error)
}

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Ledger() Repository
	Packages() catalog.Repository
}

type Store interface {
	WithLedgerTx(ctx context.Context, fn func(tx Tx) error) error
	Ledger() Repository
	Packages() catalog.Repository
}
