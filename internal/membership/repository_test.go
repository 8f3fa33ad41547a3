package membership

import (
	"context"
	"testing"
	"time"

	"gymbeta/internal/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryCols = []string{"id", "member_id", "package_id", "package_type", "start_date", "end_date", "active", "status", "trainer_id", "created_at", "updated_at"}

func setupLedgerMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	return repo, mock, func() { db.Close() }
}

func TestRepository_LockLedger(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1, \$2\)`).
		WithArgs(12, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockLedger(context.Background(), 12, catalog.TypePT))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListEntries_FrontierOrder(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)
	now := time.Now()

	rows := sqlmock.NewRows(entryCols).
		AddRow(2, 1, 3, "GYM", end, end.AddDate(0, 0, 30), false, nil, nil, now, now).
		AddRow(1, 1, 3, "GYM", start, end, true, nil, nil, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries\s+WHERE member_id = \$1 AND package_type = \$2\s+ORDER BY end_date DESC NULLS LAST, id ASC`).
		WithArgs(1, catalog.TypeGym).
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), 1, catalog.TypeGym)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].ID)
	assert.Equal(t, catalog.TypeGym, entries[0].PackageType)
	assert.Nil(t, entries[0].Status)
	assert.True(t, entries[1].Active)
	assert.True(t, entries[1].EndDate.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetEntry_NotFound(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries WHERE id = \$1`).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows(entryCols))

	_, err := repo.GetEntry(context.Background(), 77)

	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRepository_CreateEntry_PendingPT(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	now := time.Now()
	status := PTPending
	entry := &LedgerEntry{MemberID: 1, PackageID: 5, PackageType: catalog.TypePT, Status: &status}

	mock.ExpectQuery(`INSERT INTO ledger_entries`).
		WithArgs(1, 5, catalog.TypePT, nil, nil, false, "pending", nil).
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow(9, 1, 5, "PT", nil, nil, false, "pending", nil, now, now))

	require.NoError(t, repo.CreateEntry(context.Background(), entry))
	assert.Equal(t, 9, entry.ID)
	assert.True(t, entry.HasStatus(PTPending))
	assert.Nil(t, entry.StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetActive_Missing(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	mock.ExpectExec(`UPDATE ledger_entries SET active`).
		WithArgs(3, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), 3, false)

	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRepository_MemberExists(t *testing.T) {
	repo, mock, closer := setupLedgerMock(t)
	defer closer()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM members WHERE id = \$1\)`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.MemberExists(context.Background(), 4)

	require.NoError(t, err)
	assert.False(t, ok)
}
