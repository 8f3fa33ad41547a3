package training

import "context"

type Repository interface {
	ListExercises(ctx context.Context) ([]Exercise, error)
	CountExercises(ctx context.Context, ids []int) (int, error)
	MemberExists(ctx context.Context, memberID int) (bool, error)

	CreatePlan(ctx context.Context, plan *Plan, details []DetailInput) (*Plan, error)
	GetPlan(ctx context.Context, planID int) (*Plan, error)
	ListPlansByTrainer(ctx context.Context, trainerID int) ([]Plan, error)
	ListPlansByMember(ctx context.Context, memberID int) ([]Plan, error)
	ReplacePlan(ctx context.Context, planID int, title string, details []DetailInput) (*Plan, error)
	DeletePlan(ctx context.Context, planID int) error
}
