package payment_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"
	"gymbeta/internal/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRegistration(ctx context.Context, memberID int, entry *membership.LedgerEntry, pkg *catalog.Package) error {
	args := m.Called(ctx, memberID, entry, pkg)
	return args.Error(0)
}

type fixture struct {
	store      *storetest.Store
	reconciler *payment.Reconciler
	gym1       catalog.Package
	pt1        catalog.Package
}

func newFixture(t *testing.T, notifier payment.Notifier) *fixture {
	t.Helper()
	s := storetest.New()
	s.AddMember(1)
	f := &fixture{
		store: s,
		gym1:  s.AddPackage(catalog.Package{Name: "Gym 1 month", Type: catalog.TypeGym, DurationMonths: 1, Price: decimal.NewFromInt(500000)}),
		pt1:   s.AddPackage(catalog.Package{Name: "PT 1 month", Type: catalog.TypePT, DurationMonths: 1, Price: decimal.NewFromInt(2000000)}),
	}
	f.reconciler = payment.NewReconciler(s, membership.NewService(s), notifier)
	return f
}

func (f *fixture) event(ref string, pkg catalog.Package) payment.CompletedEvent {
	return payment.CompletedEvent{
		TxnRef:      ref,
		MemberID:    1,
		PackageID:   pkg.ID,
		PackageType: pkg.Type,
		Amount:      pkg.Price,
		PaidAt:      time.Now().UTC(),
		Method:      payment.MethodStripe,
	}
}

func TestReconcile_AppliesGymPurchase(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.reconciler.Reconcile(context.Background(), f.event("cs_1", f.gym1))

	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.True(t, res.Entry.Active)
	assert.Equal(t, payment.StatusPaid, res.Payment.Status)
	require.NotNil(t, res.Payment.LedgerEntryID)
	assert.Equal(t, res.Entry.ID, *res.Payment.LedgerEntryID)
	assert.True(t, res.Payment.Amount.Equal(decimal.NewFromInt(500000)))
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ev := f.event("cs_dup", f.gym1)

	first, err := f.reconciler.Reconcile(ctx, ev)
	require.NoError(t, err)

	second, err := f.reconciler.Reconcile(ctx, ev)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Len(t, f.store.Entries(1, catalog.TypeGym), 1)
	assert.Len(t, f.store.AllPayments(), 1)
}

func TestReconcile_ConcurrentReplaysApplyOnce(t *testing.T) {
	f := newFixture(t, nil)
	ev := f.event("cs_race", f.gym1)

	var wg sync.WaitGroup
	results := make([]*payment.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.reconciler.Reconcile(context.Background(), ev)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, res := range results {
		require.NotNil(t, res)
		if !res.Duplicate {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	assert.Len(t, f.store.Entries(1, catalog.TypeGym), 1)
}

func TestReconcile_PendingCheckoutBecomesPaid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.store.Payments().CreatePending(ctx, &payment.Payment{
		MemberID: 1, PackageID: f.gym1.ID, Amount: f.gym1.Price, TxnRef: "cs_pending", Method: payment.MethodStripe,
	}))

	res, err := f.reconciler.Reconcile(ctx, f.event("cs_pending", f.gym1))

	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	payments := f.store.AllPayments()
	require.Len(t, payments, 1)
	assert.Equal(t, payment.StatusPaid, payments[0].Status)
}

func TestReconcile_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, ev *payment.CompletedEvent)
		wantErr error
	}{
		{"unknown member", func(f *fixture, ev *payment.CompletedEvent) { ev.MemberID = 404 }, membership.ErrMemberNotFound},
		{"unknown package", func(f *fixture, ev *payment.CompletedEvent) { ev.PackageID = 404 }, catalog.ErrPackageNotFound},
		{"type mismatch", func(f *fixture, ev *payment.CompletedEvent) { ev.PackageType = catalog.TypePT }, payment.ErrPackageMismatch},
		{"missing txn ref", func(f *fixture, ev *payment.CompletedEvent) { ev.TxnRef = "" }, payment.ErrInvalidEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ev := f.event("cs_bad", f.gym1)
			tt.mutate(f, &ev)

			_, err := f.reconciler.Reconcile(context.Background(), ev)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.Entries(1, catalog.TypeGym))
			assert.Empty(t, f.store.AllPayments())
		})
	}
}

func TestReconcile_WriteFailureRollsBackAndCanRetry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ev := f.event("cs_retry", f.gym1)

	f.store.FailMarkPaid = errors.New("connection reset")
	_, err := f.reconciler.Reconcile(ctx, ev)
	require.Error(t, err)
	assert.Empty(t, f.store.Entries(1, catalog.TypeGym))
	assert.Empty(t, f.store.AllPayments())

	f.store.FailMarkPaid = nil
	res, err := f.reconciler.Reconcile(ctx, ev)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Len(t, f.store.Entries(1, catalog.TypeGym), 1)
}

func TestReconcile_PTEntryIsPending(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.reconciler.Reconcile(context.Background(), f.event("cs_pt", f.pt1))

	require.NoError(t, err)
	assert.False(t, res.Entry.Active)
	assert.Nil(t, res.Entry.StartDate)
	assert.True(t, res.Entry.HasStatus(membership.PTPending))
}

func TestReconcile_NotifiesAfterCommit(t *testing.T) {
	notifier := new(MockNotifier)
	f := newFixture(t, notifier)
	notifier.On("NotifyRegistration", mock.Anything, 1, mock.AnythingOfType("*membership.LedgerEntry"), mock.AnythingOfType("*catalog.Package")).
		Return(errors.New("smtp down")).Once()

	ctx := context.Background()
	ev := f.event("cs_notify", f.gym1)

	res, err := f.reconciler.Reconcile(ctx, ev)
	require.NoError(t, err)
	assert.NotNil(t, res.Entry)

	_, err = f.reconciler.Reconcile(ctx, ev)
	require.NoError(t, err)

	notifier.AssertNumberOfCalls(t, "NotifyRegistration", 1)
}

func TestPurchaseAtCounter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.reconciler.PurchaseAtCounter(ctx, 1, f.pt1.ID, "")
	assert.ErrorIs(t, err, membership.ErrGymCoverageRequired)

	gym, err := f.reconciler.PurchaseAtCounter(ctx, 1, f.gym1.ID, "cash")
	require.NoError(t, err)
	assert.True(t, gym.Entry.Active)
	assert.True(t, strings.HasPrefix(gym.Payment.TxnRef, "counter_"))
	assert.Equal(t, payment.MethodCounter, gym.Payment.Method)
	assert.Equal(t, "cash", gym.Payment.Note)

	pt, err := f.reconciler.PurchaseAtCounter(ctx, 1, f.pt1.ID, "")
	require.NoError(t, err)
	assert.True(t, pt.Entry.HasStatus(membership.PTPending))

	_, err = f.reconciler.PurchaseAtCounter(ctx, 404, f.gym1.ID, "")
	assert.ErrorIs(t, err, membership.ErrMemberNotFound)
}

func TestPurchaseAtCounter_ConcurrentPurchasesStackContiguously(t *testing.T) {
	f := newFixture(t, nil)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reconciler.PurchaseAtCounter(context.Background(), 1, f.gym1.ID, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := f.store.Entries(1, catalog.TypeGym)
	require.Len(t, entries, n)

	active := 0
	for _, e := range entries {
		if e.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)

	sort.Slice(entries, func(i, j int) bool { return entries[i].StartDate.Before(*entries[j].StartDate) })
	for i := 1; i < n; i++ {
		assert.True(t, entries[i].StartDate.Equal(*entries[i-1].EndDate), "entry %d does not start where %d ends", i, i-1)
	}
}
