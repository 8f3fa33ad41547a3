// Package seed loads the starter catalog, exercise list and first admin.
package seed

import (
	"context"
	"fmt"

	"gymbeta/internal/auth"
	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
	"gymbeta/internal/user"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Admin struct {
	Name     string
	Email    string
	Password string
}

type Report struct {
	Packages  int
	Exercises int
	Admin     bool
}

var defaultPackages = []catalog.Package{
	{Name: "Gym 1 month", Type: catalog.TypeGym, DurationMonths: 1, Price: decimal.NewFromInt(500000), Description: "Unlimited gym floor access"},
	{Name: "Gym 3 months", Type: catalog.TypeGym, DurationMonths: 3, Price: decimal.NewFromInt(1200000), Description: "Unlimited gym floor access"},
	{Name: "Gym 6 months", Type: catalog.TypeGym, DurationMonths: 6, Price: decimal.NewFromInt(2000000), Description: "Unlimited gym floor access"},
	{Name: "Gym 12 months", Type: catalog.TypeGym, DurationMonths: 12, Price: decimal.NewFromInt(3500000), Description: "Unlimited gym floor access"},
	{Name: "PT 1 month", Type: catalog.TypePT, DurationMonths: 1, Price: decimal.NewFromInt(1500000), Description: "Personal trainer, 1 month"},
	{Name: "PT 3 months", Type: catalog.TypePT, DurationMonths: 3, Price: decimal.NewFromInt(4000000), Description: "Personal trainer, 3 months"},
}

var defaultExercises = [][2]string{
	{"Squat", "Barbell back squat"},
	{"Bench press", "Flat barbell bench press"},
	{"Deadlift", "Conventional barbell deadlift"},
	{"Overhead press", "Standing barbell press"},
	{"Pull-up", "Bodyweight pull-up"},
	{"Barbell row", "Bent-over barbell row"},
	{"Lunge", "Walking dumbbell lunge"},
	{"Plank", "Front plank hold"},
}

// Run inserts whatever of the starter data is missing. It is safe to run
// repeatedly.
func Run(ctx context.Context, db *sqlx.DB, admin Admin) (Report, error) {
	var report Report

	n, err := seedPackages(ctx, catalog.NewRepository(db))
	if err != nil {
		return report, fmt.Errorf("seed packages: %w", err)
	}
	report.Packages = n

	n, err = seedExercises(ctx, db)
	if err != nil {
		return report, fmt.Errorf("seed exercises: %w", err)
	}
	report.Exercises = n

	if admin.Email != "" {
		created, err := seedAdmin(ctx, user.NewRepository(db), admin)
		if err != nil {
			return report, fmt.Errorf("seed admin: %w", err)
		}
		report.Admin = created
	}

	logger.Info("seed finished", "packages", report.Packages, "exercises", report.Exercises, "admin_created", report.Admin)
	return report, nil
}

func seedPackages(ctx context.Context, repo catalog.Repository) (int, error) {
	existing, err := repo.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := range defaultPackages {
		p := defaultPackages[i]
		if err := repo.Create(ctx, &p); err != nil {
			return i, err
		}
	}
	return len(defaultPackages), nil
}

func seedExercises(ctx context.Context, db sqlx.ExecerContext) (int, error) {
	inserted := 0
	for _, e := range defaultExercises {
		res, err := db.ExecContext(ctx,
			`INSERT INTO exercises (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			e[0], e[1])
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

func seedAdmin(ctx context.Context, repo user.Repository, admin Admin) (bool, error) {
	exists, err := repo.EmailExists(ctx, admin.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}
	if _, err := repo.Create(ctx, admin.Name, admin.Email, "", hash, auth.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
