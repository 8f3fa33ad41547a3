package storetest

import (
	"context"
	"sort"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"
)

type ledgerRepo struct{ v view }

func (r *ledgerRepo) LockLedger(ctx context.Context, memberID int, pt catalog.PackageType) error {
	// transactions already run one at a time
	return ctx.Err()
}

func (r *ledgerRepo) MemberExists(ctx context.Context, memberID int) (bool, error) {
	var ok bool
	err := r.v.with(func(st *state) error {
		ok = st.members[memberID]
		return nil
	})
	return ok, err
}

func (r *ledgerRepo) ListEntries(ctx context.Context, memberID int, pt catalog.PackageType) ([]membership.LedgerEntry, error) {
	out := []membership.LedgerEntry{}
	err := r.v.with(func(st *state) error {
		for _, e := range st.sortedEntries() {
			if e.MemberID == memberID && e.PackageType == pt {
				out = append(out, e)
			}
		}
		return nil
	})
	// end_date DESC NULLS LAST, id ASC
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].EndDate, out[j].EndDate
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		default:
			return a.After(*b)
		}
	})
	return out, err
}

func (r *ledgerRepo) ListMemberEntries(ctx context.Context, memberID int) ([]membership.LedgerEntry, error) {
	out := []membership.LedgerEntry{}
	err := r.v.with(func(st *state) error {
		for _, e := range st.sortedEntries() {
			if e.MemberID == memberID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepo) GetEntry(ctx context.Context, id int) (*membership.LedgerEntry, error) {
	var out *membership.LedgerEntry
	err := r.v.with(func(st *state) error {
		e, ok := st.entries[id]
		if !ok {
			return membership.ErrEntryNotFound
		}
		c := copyEntry(e)
		out = &c
		return nil
	})
	return out, err
}

func (r *ledgerRepo) CreateEntry(ctx context.Context, e *membership.LedgerEntry) error {
	return r.v.with(func(st *state) error {
		if err := st.checkEntry(*e); err != nil {
			return err
		}
		st.nextEntry++
		e.ID = st.nextEntry
		e.CreatedAt = time.Now().UTC()
		e.UpdatedAt = e.CreatedAt
		st.entries[e.ID] = copyEntry(*e)
		return nil
	})
}

func (r *ledgerRepo) SetActive(ctx context.Context, id int, active bool) error {
	return r.v.with(func(st *state) error {
		e, ok := st.entries[id]
		if !ok {
			return membership.ErrEntryNotFound
		}
		e.Active = active
		if err := st.checkEntry(e); err != nil {
			return err
		}
		e.UpdatedAt = time.Now().UTC()
		st.entries[id] = e
		return nil
	})
}

func (r *ledgerRepo) UpdateEntry(ctx context.Context, e *membership.LedgerEntry) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.entries[e.ID]
		if !ok {
			return membership.ErrEntryNotFound
		}
		stored.StartDate = e.StartDate
		stored.EndDate = e.EndDate
		stored.Active = e.Active
		stored.Status = e.Status
		stored.TrainerID = e.TrainerID
		if err := st.checkEntry(stored); err != nil {
			return err
		}
		stored.UpdatedAt = time.Now().UTC()
		st.entries[e.ID] = copyEntry(stored)
		*e = copyEntry(stored)
		return nil
	})
}

func (r *ledgerRepo) ListPendingPT(ctx context.Context) ([]membership.LedgerEntry, error) {
	out := []membership.LedgerEntry{}
	err := r.v.with(func(st *state) error {
		for _, e := range st.sortedEntries() {
			if e.PackageType == catalog.TypePT && e.HasStatus(membership.PTPending) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepo) ListMemberIDs(ctx context.Context) ([]int, error) {
	out := []int{}
	err := r.v.with(func(st *state) error {
		seen := map[int]bool{}
		for _, e := range st.entries {
			if !seen[e.MemberID] {
				seen[e.MemberID] = true
				out = append(out, e.MemberID)
			}
		}
		sort.Ints(out)
		return nil
	})
	return out, err
}

type packageRepo struct{ v view }

func (r *packageRepo) Create(ctx context.Context, p *catalog.Package) error {
	return r.v.with(func(st *state) error {
		st.nextPackage++
		p.ID = st.nextPackage
		p.CreatedAt = time.Now().UTC()
		st.packages[p.ID] = *p
		return nil
	})
}

func (r *packageRepo) List(ctx context.Context, filter *catalog.PackageType) ([]catalog.Package, error) {
	out := []catalog.Package{}
	err := r.v.with(func(st *state) error {
		for _, p := range st.packages {
			if filter == nil || p.Type == *filter {
				out = append(out, p)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *packageRepo) GetByID(ctx context.Context, id int) (*catalog.Package, error) {
	var out *catalog.Package
	err := r.v.with(func(st *state) error {
		p, ok := st.packages[id]
		if !ok {
			return catalog.ErrPackageNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

type paymentRepo struct{ v view }

func (r *paymentRepo) GetByTxnRef(ctx context.Context, txnRef string) (*payment.Payment, error) {
	var out *payment.Payment
	err := r.v.with(func(st *state) error {
		p, ok := st.byTxnRef(txnRef)
		if !ok {
			return payment.ErrPaymentNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepo) CreatePending(ctx context.Context, p *payment.Payment) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.byTxnRef(p.TxnRef); ok {
			return ErrUniqueViolation
		}
		st.nextPayment++
		p.ID = st.nextPayment
		p.Status = payment.StatusPending
		p.CreatedAt = time.Now().UTC()
		st.payments[p.ID] = copyPayment(*p)
		return nil
	})
}

func (r *paymentRepo) MarkPaid(ctx context.Context, p *payment.Payment) (bool, error) {
	if err := r.v.store.FailMarkPaid; err != nil {
		return false, err
	}
	var written bool
	err := r.v.with(func(st *state) error {
		existing, ok := st.byTxnRef(p.TxnRef)
		switch {
		case ok && existing.Status == payment.StatusPaid:
			return nil
		case ok:
			existing.LedgerEntryID = p.LedgerEntryID
			existing.Amount = p.Amount
			existing.Status = payment.StatusPaid
			existing.PaidAt = p.PaidAt
			st.payments[existing.ID] = copyPayment(existing)
			*p = copyPayment(existing)
		default:
			st.nextPayment++
			p.ID = st.nextPayment
			p.Status = payment.StatusPaid
			p.CreatedAt = time.Now().UTC()
			st.payments[p.ID] = copyPayment(*p)
		}
		written = true
		return nil
	})
	return written, err
}

func (r *paymentRepo) MarkFailed(ctx context.Context, txnRef string) (bool, error) {
	var changed bool
	err := r.v.with(func(st *state) error {
		p, ok := st.byTxnRef(txnRef)
		if !ok || p.Status != payment.StatusPending {
			return nil
		}
		p.Status = payment.StatusFailed
		st.payments[p.ID] = p
		changed = true
		return nil
	})
	return changed, err
}

func (r *paymentRepo) ListByMember(ctx context.Context, memberID int) ([]payment.Payment, error) {
	out := []payment.Payment{}
	err := r.v.with(func(st *state) error {
		for _, p := range st.payments {
			if p.MemberID == memberID {
				out = append(out, copyPayment(p))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
		return nil
	})
	return out, err
}

func (st *state) byTxnRef(ref string) (payment.Payment, bool) {
	for _, p := range st.payments {
		if p.TxnRef == ref {
			return copyPayment(p), true
		}
	}
	return payment.Payment{}, false
}
