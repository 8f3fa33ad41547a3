package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"
	"gymbeta/internal/metrics"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidEvent    = errors.New("invalid payment event")
	ErrPackageMismatch = errors.New("package type does not match event")

	// errAlreadyPaid aborts the write transaction when a concurrent
	// reconciliation of the same txn_ref committed first.
	errAlreadyPaid = errors.New("payment already recorded")
)

// Notifier is told about new ledger entries after they are committed.
type Notifier interface {
	NotifyRegistration(ctx context.Context, memberID int, entry *membership.LedgerEntry, pkg *catalog.Package) error
}

type Reconciler struct {
	store       Store
	memberships membership.Service
	notifier    Notifier
	now         func() time.Time
}

// NewReconciler wires the reconciliation path. notifier may be nil.
func NewReconciler(store Store, memberships membership.Service, notifier Notifier) *Reconciler {
	return &Reconciler{
		store:       store,
		memberships: memberships,
		notifier:    notifier,
		now:         time.Now,
	}
}

// Reconcile turns a completed payment into a ledger entry and a PAID payment,
// exactly once per txn_ref. Replays return the original entry with
// Duplicate set.
func (r *Reconciler) Reconcile(ctx context.Context, ev CompletedEvent) (*Result, error) {
	source := string(ev.Method)
	if ev.TxnRef == "" || ev.MemberID <= 0 || ev.PackageID <= 0 {
		metrics.RecordReconciliation(source, "invalid")
		return nil, ErrInvalidEvent
	}

	existing, err := r.store.Payments().GetByTxnRef(ctx, ev.TxnRef)
	switch {
	case err == nil && existing.Status == StatusPaid:
		return r.duplicate(ctx, existing, source)
	case err != nil && !errors.Is(err, ErrPaymentNotFound):
		metrics.RecordReconciliation(source, "error")
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	pkg, err := r.store.Packages().GetByID(ctx, ev.PackageID)
	if err != nil {
		metrics.RecordReconciliation(source, "rejected")
		return nil, err
	}
	if ev.PackageType != "" && ev.PackageType != pkg.Type {
		metrics.RecordReconciliation(source, "rejected")
		return nil, fmt.Errorf("%w: event says %s, package %d is %s", ErrPackageMismatch, ev.PackageType, pkg.ID, pkg.Type)
	}

	ok, err := r.store.Ledger().MemberExists(ctx, ev.MemberID)
	if err != nil {
		metrics.RecordReconciliation(source, "error")
		return nil, err
	}
	if !ok {
		metrics.RecordReconciliation(source, "rejected")
		return nil, membership.ErrMemberNotFound
	}

	now := r.now().UTC()
	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	amount := ev.Amount
	if !amount.Equal(pkg.Price) {
		logger.Warn("paid amount differs from package price",
			"txn_ref", ev.TxnRef,
			"amount", amount.String(),
			"price", pkg.Price.String(),
		)
	}

	res := &Result{}
	err = r.store.WithPaymentTx(ctx, func(tx Tx) error {
		if err := tx.Ledger().LockLedger(ctx, ev.MemberID, pkg.Type); err != nil {
			return err
		}
		if p, err := tx.Payments().GetByTxnRef(ctx, ev.TxnRef); err == nil && p.Status == StatusPaid {
			return errAlreadyPaid
		}

		entry, err := membership.Place(ctx, tx, ev.MemberID, pkg, now)
		if err != nil {
			return err
		}

		p := &Payment{
			MemberID:      ev.MemberID,
			PackageID:     pkg.ID,
			LedgerEntryID: &entry.ID,
			Amount:        amount,
			Status:        StatusPaid,
			TxnRef:        ev.TxnRef,
			Method:        ev.Method,
			Note:          ev.Note,
			PaidAt:        &paidAt,
		}
		written, err := tx.Payments().MarkPaid(ctx, p)
		if err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		if !written {
			return errAlreadyPaid
		}

		res.Entry = entry
		res.Payment = p
		return nil
	})
	if errors.Is(err, errAlreadyPaid) {
		existing, err := r.store.Payments().GetByTxnRef(ctx, ev.TxnRef)
		if err != nil {
			return nil, err
		}
		return r.duplicate(ctx, existing, source)
	}
	if err != nil {
		metrics.RecordReconciliation(source, "error")
		logger.WithError(err).Error("reconcile payment", "txn_ref", ev.TxnRef, "member_id", ev.MemberID)
		return nil, err
	}

	metrics.RecordReconciliation(source, "applied")
	logger.Info("payment reconciled",
		"txn_ref", ev.TxnRef,
		"member_id", ev.MemberID,
		"package_id", pkg.ID,
		"entry_id", res.Entry.ID,
		"active", res.Entry.Active,
	)

	r.notify(ctx, ev.MemberID, res.Entry, pkg)
	return res, nil
}

// PurchaseAtCounter records a package paid in person at the front desk.
func (r *Reconciler) PurchaseAtCounter(ctx context.Context, memberID, packageID int, note string) (*Result, error) {
	pkg, err := r.store.Packages().GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if err := r.memberships.CheckEligibility(ctx, memberID, pkg, now); err != nil {
		return nil, err
	}

	return r.Reconcile(ctx, CompletedEvent{
		TxnRef:      "counter_" + uuid.NewString(),
		MemberID:    memberID,
		PackageID:   pkg.ID,
		PackageType: pkg.Type,
		Amount:      pkg.Price,
		PaidAt:      now,
		Method:      MethodCounter,
		Note:        note,
	})
}

func (r *Reconciler) duplicate(ctx context.Context, p *Payment, source string) (*Result, error) {
	metrics.RecordReconciliation(source, "duplicate")

	res := &Result{Payment: p, Duplicate: true}
	if p.LedgerEntryID != nil {
		entry, err := r.store.Ledger().GetEntry(ctx, *p.LedgerEntryID)
		if err != nil {
			return nil, err
		}
		res.Entry = entry
	}

	logger.Info("duplicate payment ignored", "txn_ref", p.TxnRef)
	return res, nil
}

func (r *Reconciler) notify(ctx context.Context, memberID int, entry *membership.LedgerEntry, pkg *catalog.Package) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyRegistration(ctx, memberID, entry, pkg); err != nil {
		logger.WithError(err).Warn("registration notification failed", "member_id", memberID, "entry_id", entry.ID)
	}
}
