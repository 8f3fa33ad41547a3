package training

import (
	"context"
	"database/sql"
	"errors"

	"gymbeta/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const planColumns = `id, trainer_id, member_id, title, created_at, updated_at`

type repository struct {
	conn *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) ListExercises(ctx context.Context) ([]Exercise, error) {
	exercises := []Exercise{}
	err := sqlx.SelectContext(ctx, r.conn, &exercises, `SELECT id, name, description FROM exercises ORDER BY name`)
	return exercises, err
}

func (r *repository) CountExercises(ctx context.Context, ids []int) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.conn, &n, `SELECT COUNT(*) FROM exercises WHERE id = ANY($1)`, pq.Array(ids))
	return n, err
}

func (r *repository) MemberExists(ctx context.Context, memberID int) (bool, error) {
	return db.Exists(ctx, r.conn, `SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, memberID)
}

func (r *repository) CreatePlan(ctx context.Context, plan *Plan, details []DetailInput) (*Plan, error) {
	var created Plan
	err := db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO training_plans (trainer_id, member_id, title)
			VALUES ($1, $2, $3)
			RETURNING ` + planColumns
		if err := sqlx.GetContext(ctx, tx, &created, query, plan.TrainerID, plan.MemberID, plan.Title); err != nil {
			return err
		}
		return insertDetails(ctx, tx, created.ID, details)
	})
	if err != nil {
		return nil, err
	}
	return r.GetPlan(ctx, created.ID)
}

func (r *repository) GetPlan(ctx context.Context, planID int) (*Plan, error) {
	var p Plan
	err := sqlx.GetContext(ctx, r.conn, &p, `SELECT `+planColumns+` FROM training_plans WHERE id = $1`, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	plans := []Plan{p}
	if err := r.attachDetails(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (r *repository) ListPlansByTrainer(ctx context.Context, trainerID int) ([]Plan, error) {
	return r.listPlans(ctx, `SELECT `+planColumns+` FROM training_plans WHERE trainer_id = $1 ORDER BY updated_at DESC, id DESC`, trainerID)
}

func (r *repository) ListPlansByMember(ctx context.Context, memberID int) ([]Plan, error) {
	return r.listPlans(ctx, `SELECT `+planColumns+` FROM training_plans WHERE member_id = $1 ORDER BY updated_at DESC, id DESC`, memberID)
}

func (r *repository) listPlans(ctx context.Context, query string, arg int) ([]Plan, error) {
	plans := []Plan{}
	if err := sqlx.SelectContext(ctx, r.conn, &plans, query, arg); err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) ReplacePlan(ctx context.Context, planID int, title string, details []DetailInput) (*Plan, error) {
	err := db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE training_plans SET title = $1, updated_at = NOW() WHERE id = $2`, title, planID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrPlanNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM training_details WHERE plan_id = $1`, planID); err != nil {
			return err
		}
		return insertDetails(ctx, tx, planID, details)
	})
	if err != nil {
		return nil, err
	}
	return r.GetPlan(ctx, planID)
}

func (r *repository) DeletePlan(ctx context.Context, planID int) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM training_plans WHERE id = $1`, planID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func insertDetails(ctx context.Context, tx *sqlx.Tx, planID int, details []DetailInput) error {
	query := `
		INSERT INTO training_details (plan_id, exercise_id, sets, reps, days_of_week)
		VALUES ($1, $2, $3, $4, $5)`
	for _, d := range details {
		if _, err := tx.ExecContext(ctx, query, planID, d.ExerciseID, d.Sets, d.Reps, joinDays(d.Days)); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) attachDetails(ctx context.Context, plans []Plan) error {
	if len(plans) == 0 {
		return nil
	}

	ids := make([]int, len(plans))
	byID := make(map[int]int, len(plans))
	for i := range plans {
		ids[i] = plans[i].ID
		byID[plans[i].ID] = i
		plans[i].Details = []Detail{}
	}

	query := `
		SELECT d.id, d.plan_id, d.exercise_id, e.name AS exercise_name, d.sets, d.reps, d.days_of_week
		FROM training_details d
		JOIN exercises e ON e.id = d.exercise_id
		WHERE d.plan_id = ANY($1)
		ORDER BY d.plan_id, d.id`

	var details []Detail
	if err := sqlx.SelectContext(ctx, r.conn, &details, query, pq.Array(ids)); err != nil {
		return err
	}
	for _, d := range details {
		d.Days = splitDays(d.DaysOfWeek)
		i := byID[d.PlanID]
		plans[i].Details = append(plans[i].Details, d)
	}
	return nil
}
