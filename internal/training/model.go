package training

import (
	"strings"
	"time"
)

type Exercise struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type Plan struct {
	ID        int       `json:"id" db:"id"`
	TrainerID int       `json:"trainer_id" db:"trainer_id"`
	MemberID  int       `json:"member_id" db:"member_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Details   []Detail  `json:"details" db:"-"`
}

type Detail struct {
	ID           int      `json:"id" db:"id"`
	PlanID       int      `json:"plan_id" db:"plan_id"`
	ExerciseID   int      `json:"exercise_id" db:"exercise_id"`
	ExerciseName string   `json:"exercise_name" db:"exercise_name"`
	Sets         int      `json:"sets" db:"sets"`
	Reps         int      `json:"reps" db:"reps"`
	DaysOfWeek   string   `json:"-" db:"days_of_week"`
	Days         []string `json:"days" db:"-"`
}

type DetailInput struct {
	ExerciseID int      `json:"exercise_id" validate:"required,gt=0" example:"1"`
	Sets       int      `json:"sets" validate:"required,gte=1,lte=20" example:"4"`
	Reps       int      `json:"reps" validate:"required,gte=1,lte=100" example:"10"`
	Days       []string `json:"days" validate:"required,min=1,unique,dive,oneof=Mon Tue Wed Thu Fri Sat Sun" example:"Mon,Thu"`
}

type CreatePlanRequest struct {
	MemberID int           `json:"member_id" validate:"required,gt=0" example:"4"`
	Title    string        `json:"title" validate:"max=120" example:"Strength block A"`
	Details  []DetailInput `json:"details" validate:"required,min=1,dive"`
}

type UpdatePlanRequest struct {
	Title   string        `json:"title" validate:"max=120"`
	Details []DetailInput `json:"details" validate:"required,min=1,dive"`
}

func joinDays(days []string) string {
	return strings.Join(days, ",")
}

func splitDays(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
