package payment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentCols = []string{"id", "member_id", "package_id", "ledger_entry_id", "amount", "status", "txn_ref", "method", "note", "paid_at", "created_at"}

func setupPaymentMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func TestRepository_MarkPaid_Inserted(t *testing.T) {
	repo, mock, closer := setupPaymentMock(t)
	defer closer()

	now := time.Now().UTC()
	entryID := 4
	p := &Payment{MemberID: 1, PackageID: 2, LedgerEntryID: &entryID, Amount: decimal.NewFromInt(500000), TxnRef: "cs_1", Method: MethodStripe, PaidAt: &now}

	mock.ExpectQuery(`INSERT INTO payments (.+) ON CONFLICT \(txn_ref\) DO UPDATE (.+) WHERE payments.status <> 'PAID'`).
		WithArgs(1, 2, 4, sqlmock.AnyArg(), "cs_1", "stripe", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(11, 1, 2, 4, "500000.00", "PAID", "cs_1", "stripe", "", now, now))

	ok, err := repo.MarkPaid(context.Background(), p)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 11, p.ID)
	assert.Equal(t, StatusPaid, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(500000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkPaid_AlreadyPaid(t *testing.T) {
	repo, mock, closer := setupPaymentMock(t)
	defer closer()

	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows(paymentCols))

	ok, err := repo.MarkPaid(context.Background(), &Payment{TxnRef: "cs_1"})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_GetByTxnRef_NotFound(t *testing.T) {
	repo, mock, closer := setupPaymentMock(t)
	defer closer()

	mock.ExpectQuery(`SELECT (.+) FROM payments WHERE txn_ref = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(paymentCols))

	_, err := repo.GetByTxnRef(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestRepository_MarkFailed(t *testing.T) {
	repo, mock, closer := setupPaymentMock(t)
	defer closer()

	mock.ExpectExec(`UPDATE payments SET status = 'FAILED' WHERE txn_ref = \$1 AND status = 'PENDING'`).
		WithArgs("cs_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status = 'FAILED'`).
		WithArgs("cs_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkFailed(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkFailed(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRepository_ListByMember(t *testing.T) {
	repo, mock, closer := setupPaymentMock(t)
	defer closer()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM payments WHERE member_id = \$1 ORDER BY created_at DESC`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(2, 1, 2, nil, "500000", "PENDING", "cs_2", "stripe", "", nil, now).
			AddRow(1, 1, 2, 7, "500000", "PAID", "counter_x", "counter", "cash", now, now))

	payments, err := repo.ListByMember(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Nil(t, payments[0].LedgerEntryID)
	assert.Nil(t, payments[0].PaidAt)
	assert.Equal(t, MethodCounter, payments[1].Method)
}
