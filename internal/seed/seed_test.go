package seed

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var packageCols = []string{"id", "name", "package_type", "duration_months", "price", "description", "created_at"}

func setupSeedMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func expectExercises(mock sqlmock.Sqlmock, affected int64) {
	for range defaultExercises {
		mock.ExpectExec(`INSERT INTO exercises .+ ON CONFLICT \(name\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, affected))
	}
}

func TestRun_Fresh(t *testing.T) {
	db, mock := setupSeedMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM packages`).WillReturnRows(sqlmock.NewRows(packageCols))
	for i, p := range defaultPackages {
		mock.ExpectQuery(`INSERT INTO packages`).
			WithArgs(p.Name, p.Type, p.DurationMonths, sqlmock.AnyArg(), p.Description).
			WillReturnRows(sqlmock.NewRows(packageCols).
				AddRow(i+1, p.Name, string(p.Type), p.DurationMonths, p.Price.String(), p.Description, now))
	}
	expectExercises(mock, 1)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("admin@gymbeta.vn").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Admin", "admin@gymbeta.vn", sqlmock.AnyArg(), "admin", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "phone", "created_at"}).
			AddRow(1, "Admin", "admin@gymbeta.vn", "hash", "admin", "", now))

	report, err := Run(context.Background(), db, Admin{Name: "Admin", Email: "admin@gymbeta.vn", Password: "change-me"})

	require.NoError(t, err)
	assert.Equal(t, len(defaultPackages), report.Packages)
	assert.Equal(t, len(defaultExercises), report.Exercises)
	assert.True(t, report.Admin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_AlreadySeeded(t *testing.T) {
	db, mock := setupSeedMock(t)

	mock.ExpectQuery(`FROM packages`).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(1, "Gym 1 month", "GYM", 1, "500000", "", time.Now()))
	expectExercises(mock, 0)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("admin@gymbeta.vn").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	report, err := Run(context.Background(), db, Admin{Name: "Admin", Email: "admin@gymbeta.vn", Password: "change-me"})

	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_PackageFailure(t *testing.T) {
	db, mock := setupSeedMock(t)

	mock.ExpectQuery(`FROM packages`).WillReturnError(assert.AnError)

	_, err := Run(context.Background(), db, Admin{})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestDefaultCatalog(t *testing.T) {
	months := map[int]string{}
	for _, p := range defaultPackages {
		if p.Type == "GYM" {
			months[p.DurationMonths] = p.Price.String()
		}
	}
	assert.Equal(t, map[int]string{1: "500000", 3: "1200000", 6: "2000000", 12: "3500000"}, months)
}
