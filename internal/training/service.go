package training

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gymbeta/internal/logger"
	"gymbeta/internal/metrics"
)

var (
	ErrPlanNotFound     = errors.New("training plan not found")
	ErrNotPlanOwner     = errors.New("training plan belongs to another trainer")
	ErrMemberNotFound   = errors.New("member not found")
	ErrExerciseNotFound = errors.New("exercise not found")
)

type Service interface {
	ListExercises(ctx context.Context) ([]Exercise, error)
	CreatePlan(ctx context.Context, trainerID int, req CreatePlanRequest) (*Plan, error)
	ListTrainerPlans(ctx context.Context, trainerID int) ([]Plan, error)
	GetPlan(ctx context.Context, trainerID, planID int) (*Plan, error)
	UpdatePlan(ctx context.Context, trainerID, planID int, req UpdatePlanRequest) (*Plan, error)
	DeletePlan(ctx context.Context, trainerID, planID int) error
	MemberPlans(ctx context.Context, memberID int) ([]Plan, error)
}

type service struct {
	repo           Repository
	maxDaysPerWeek int
}

func NewService(repo Repository, maxDaysPerWeek int) Service {
	return &service{
		repo:           repo,
		maxDaysPerWeek: maxDaysPerWeek,
	}
}

func (s *service) ListExercises(ctx context.Context) ([]Exercise, error) {
	return s.repo.ListExercises(ctx)
}

func (s *service) CreatePlan(ctx context.Context, trainerID int, req CreatePlanRequest) (*Plan, error) {
	if err := validateDetails(req, req.Details, s.maxDaysPerWeek); err != nil {
		return nil, err
	}

	ok, err := s.repo.MemberExists(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMemberNotFound
	}

	if err := s.checkExercises(ctx, req.Details); err != nil {
		return nil, err
	}

	plan, err := s.repo.CreatePlan(ctx, &Plan{
		TrainerID: trainerID,
		MemberID:  req.MemberID,
		Title:     strings.TrimSpace(req.Title),
	}, req.Details)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	metrics.RecordTrainingPlan()
	logger.Info("training plan created", "plan_id", plan.ID, "trainer_id", trainerID, "member_id", req.MemberID)
	return plan, nil
}

func (s *service) ListTrainerPlans(ctx context.Context, trainerID int) ([]Plan, error) {
	return s.repo.ListPlansByTrainer(ctx, trainerID)
}

func (s *service) GetPlan(ctx context.Context, trainerID, planID int) (*Plan, error) {
	return s.ownedPlan(ctx, trainerID, planID)
}

// UpdatePlan replaces the title and every detail of a plan.
func (s *service) UpdatePlan(ctx context.Context, trainerID, planID int, req UpdatePlanRequest) (*Plan, error) {
	if err := validateDetails(req, req.Details, s.maxDaysPerWeek); err != nil {
		return nil, err
	}
	if _, err := s.ownedPlan(ctx, trainerID, planID); err != nil {
		return nil, err
	}
	if err := s.checkExercises(ctx, req.Details); err != nil {
		return nil, err
	}

	plan, err := s.repo.ReplacePlan(ctx, planID, strings.TrimSpace(req.Title), req.Details)
	if err != nil {
		return nil, err
	}

	logger.Info("training plan updated", "plan_id", planID, "trainer_id", trainerID)
	return plan, nil
}

func (s *service) DeletePlan(ctx context.Context, trainerID, planID int) error {
	if _, err := s.ownedPlan(ctx, trainerID, planID); err != nil {
		return err
	}
	if err := s.repo.DeletePlan(ctx, planID); err != nil {
		return err
	}

	logger.Info("training plan deleted", "plan_id", planID, "trainer_id", trainerID)
	return nil
}

func (s *service) MemberPlans(ctx context.Context, memberID int) ([]Plan, error) {
	return s.repo.ListPlansByMember(ctx, memberID)
}

func (s *service) ownedPlan(ctx context.Context, trainerID, planID int) (*Plan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.TrainerID != trainerID {
		return nil, ErrNotPlanOwner
	}
	return plan, nil
}

func (s *service) checkExercises(ctx context.Context, details []DetailInput) error {
	seen := make(map[int]struct{}, len(details))
	ids := make([]int, 0, len(details))
	for _, d := range details {
		if _, ok := seen[d.ExerciseID]; ok {
			continue
		}
		seen[d.ExerciseID] = struct{}{}
		ids = append(ids, d.ExerciseID)
	}

	n, err := s.repo.CountExercises(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrExerciseNotFound
	}
	return nil
}
