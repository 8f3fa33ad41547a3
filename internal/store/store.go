// Package store binds the domain repositories to one Postgres pool and
// runs multi-repository writes in a single transaction.
package store

import (
	"context"

	"gymbeta/internal/catalog"
	"gymbeta/internal/db"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"

	"github.com/jmoiron/sqlx"
)

var (
	_ membership.Store = (*Store)(nil)
	_ payment.Store    = (*Store)(nil)
)

type Store struct {
	db       *sqlx.DB
	packages catalog.Repository
}

// New returns a store over database. packages serves non-transactional
// package reads and may be a cache; reads inside a transaction always go
// to the database.
func New(database *sqlx.DB, packages catalog.Repository) *Store {
	if packages == nil {
		packages = catalog.NewRepository(database)
	}
	return &Store{db: database, packages: packages}
}

func (s *Store) Ledger() membership.Repository {
	return membership.NewRepository(s.db)
}

func (s *Store) Packages() catalog.Repository {
	return s.packages
}

func (s *Store) Payments() payment.Repository {
	return payment.NewRepository(s.db)
}

func (s *Store) WithLedgerTx(ctx context.Context, fn func(tx membership.Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(newTx(tx))
	})
}

func (s *Store) WithPaymentTx(ctx context.Context, fn func(tx payment.Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(newTx(tx))
	})
}

type txRepos struct {
	ledger   membership.Repository
	packages catalog.Repository
	payments payment.Repository
}

func newTx(tx *sqlx.Tx) *txRepos {
	return &txRepos{
		ledger:   membership.NewRepository(tx),
		packages: catalog.NewRepository(tx),
		payments: payment.NewRepository(tx),
	}
}

func (t *txRepos) Ledger() membership.Repository { return t.ledger }
func (t *txRepos) Packages() catalog.Repository  { return t.packages }
func (t *txRepos) Payments() payment.Repository  { return t.payments }
