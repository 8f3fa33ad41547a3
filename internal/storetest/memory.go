// Package storetest provides an in-memory implementation of the membership
// and payment stores. Transactions are serialized by a single mutex and
// applied to a private copy, so a failed transaction leaves no trace.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"
)

var (
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrCheckViolation  = errors.New("check constraint violated")
)

var (
	_ membership.Store = (*Store)(nil)
	_ payment.Store    = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	state *state

	// FailMarkPaid, when set, is returned by every MarkPaid call.
	FailMarkPaid error
}

type state struct {
	members  map[int]bool
	packages map[int]catalog.Package
	entries  map[int]membership.LedgerEntry
	payments map[int]payment.Payment

	nextPackage int
	nextEntry   int
	nextPayment int
}

func New() *Store {
	return &Store{state: &state{
		members:  map[int]bool{},
		packages: map[int]catalog.Package{},
		entries:  map[int]membership.LedgerEntry{},
		payments: map[int]payment.Payment{},
	}}
}

func (s *Store) AddMember(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.members[id] = true
}

func (s *Store) AddPackage(p catalog.Package) catalog.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextPackage++
	p.ID = s.state.nextPackage
	p.CreatedAt = time.Now()
	s.state.packages[p.ID] = p
	return p
}

// InsertEntry stores e as-is, bypassing constraint checks.
func (s *Store) InsertEntry(e membership.LedgerEntry) membership.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextEntry++
	e.ID = s.state.nextEntry
	s.state.entries[e.ID] = copyEntry(e)
	return e
}

// Entries returns the member's entries of one type ordered by id.
func (s *Store) Entries(memberID int, pt catalog.PackageType) []membership.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []membership.LedgerEntry
	for _, e := range s.state.sortedEntries() {
		if e.MemberID == memberID && e.PackageType == pt {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) AllPayments() []payment.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]payment.Payment, 0, len(s.state.payments))
	for _, p := range s.state.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Ledger() membership.Repository { return &ledgerRepo{s.view(nil)} }
func (s *Store) Packages() catalog.Repository  { return &packageRepo{s.view(nil)} }
func (s *Store) Payments() payment.Repository  { return &paymentRepo{s.view(nil)} }

func (s *Store) WithLedgerTx(ctx context.Context, fn func(tx membership.Tx) error) error {
	return s.withTx(ctx, func(tx *txView) error { return fn(tx) })
}

func (s *Store) WithPaymentTx(ctx context.Context, fn func(tx payment.Tx) error) error {
	return s.withTx(ctx, func(tx *txView) error { return fn(tx) })
}

func (s *Store) withTx(ctx context.Context, fn func(tx *txView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&txView{view{store: s, tx: work}}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type view struct {
	store *Store
	tx    *state
}

func (s *Store) view(tx *state) view { return view{store: s, tx: tx} }

func (v view) with(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

type txView struct {
	view
}

func (t *txView) Ledger() membership.Repository { return &ledgerRepo{t.view} }
func (t *txView) Packages() catalog.Repository  { return &packageRepo{t.view} }
func (t *txView) Payments() payment.Repository  { return &paymentRepo{t.view} }

func (st *state) clone() *state {
	c := &state{
		members:     make(map[int]bool, len(st.members)),
		packages:    make(map[int]catalog.Package, len(st.packages)),
		entries:     make(map[int]membership.LedgerEntry, len(st.entries)),
		payments:    make(map[int]payment.Payment, len(st.payments)),
		nextPackage: st.nextPackage,
		nextEntry:   st.nextEntry,
		nextPayment: st.nextPayment,
	}
	for k, v := range st.members {
		c.members[k] = v
	}
	for k, v := range st.packages {
		c.packages[k] = v
	}
	for k, v := range st.entries {
		c.entries[k] = copyEntry(v)
	}
	for k, v := range st.payments {
		c.payments[k] = copyPayment(v)
	}
	return c
}

func (st *state) sortedEntries() []membership.LedgerEntry {
	out := make([]membership.LedgerEntry, 0, len(st.entries))
	for _, e := range st.entries {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// checkEntry mirrors the table constraints on ledger_entries.
func (st *state) checkEntry(e membership.LedgerEntry) error {
	if e.StartDate != nil && e.EndDate != nil && !e.EndDate.After(*e.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrCheckViolation)
	}
	if !e.Active {
		return nil
	}
	for _, other := range st.entries {
		if other.ID != e.ID && other.Active && other.MemberID == e.MemberID && other.PackageType == e.PackageType {
			return fmt.Errorf("%w: ledger_entries_one_active", ErrUniqueViolation)
		}
	}
	return nil
}

func copyEntry(e membership.LedgerEntry) membership.LedgerEntry {
	if e.StartDate != nil {
		t := *e.StartDate
		e.StartDate = &t
	}
	if e.EndDate != nil {
		t := *e.EndDate
		e.EndDate = &t
	}
	if e.Status != nil {
		s := *e.Status
		e.Status = &s
	}
	if e.TrainerID != nil {
		id := *e.TrainerID
		e.TrainerID = &id
	}
	return e
}

func copyPayment(p payment.Payment) payment.Payment {
	if p.LedgerEntryID != nil {
		id := *p.LedgerEntryID
		p.LedgerEntryID = &id
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		p.PaidAt = &t
	}
	return p
}
