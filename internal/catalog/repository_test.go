package catalog

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var packageColumns = []string{"id", "name", "package_type", "duration_months", "price", "description", "created_at"}

func setupCatalogMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock, close := setupCatalogMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM packages`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(packageColumns).
			AddRow(2, "Gói 3 tháng", "GYM", 3, "1200000.00", "", now))

	p, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, TypeGym, p.Type)
	require.True(t, decimal.NewFromInt(1200000).Equal(p.Price))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, close := setupCatalogMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM packages`)).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestRepository_ListByType(t *testing.T) {
	repo, mock, close := setupCatalogMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE package_type = $1`)).
		WithArgs(TypePT).
		WillReturnRows(sqlmock.NewRows(packageColumns).
			AddRow(5, "PT 1 tháng", "PT", 1, "2000000", "", now).
			AddRow(6, "PT 3 tháng", "PT", 3, "5500000", "", now))

	pt := TypePT
	packages, err := repo.List(context.Background(), &pt)
	require.NoError(t, err)
	require.Len(t, packages, 2)
	require.Equal(t, TypePT, packages[1].Type)
}

func TestRepository_Create(t *testing.T) {
	repo, mock, close := setupCatalogMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO packages`)).
		WithArgs("Gói 12 tháng", TypeGym, 12, sqlmock.AnyArg(), "").
		WillReturnRows(sqlmock.NewRows(packageColumns).
			AddRow(4, "Gói 12 tháng", "GYM", 12, "3500000", "", now))

	p := &Package{Name: "Gói 12 tháng", Type: TypeGym, DurationMonths: 12, Price: decimal.NewFromInt(3500000)}
	require.NoError(t, repo.Create(context.Background(), p))
	require.Equal(t, 4, p.ID)
}
