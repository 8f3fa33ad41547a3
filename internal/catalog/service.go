package catalog

import (
	"context"
	"errors"
)

var (
	ErrPackageNotFound    = errors.New("package not found")
	ErrUnknownPackageType = errors.New("unknown package type")
	ErrInvalidPackage     = errors.New("invalid package")
)

type Service interface {
	Create(ctx context.Context, req CreatePackageRequest) (*Package, error)
	List(ctx context.Context, filter string) ([]Package, error)
	Get(ctx context.Context, id int) (*Package, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) Create(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	pt, err := ParsePackageType(req.Type)
	if err != nil {
		return nil, err
	}

	if req.DurationMonths <= 0 || req.Price.IsNegative() || req.Name == "" {
		return nil, ErrInvalidPackage
	}

	p := &Package{
		Name:           req.Name,
		Type:           pt,
		DurationMonths: req.DurationMonths,
		Price:          req.Price,
		Description:    req.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, filter string) ([]Package, error) {
	if filter == "" {
		return s.repo.List(ctx, nil)
	}

	pt, err := ParsePackageType(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, &pt)
}

func (s *service) Get(ctx context.Context, id int) (*Package, error) {
	return s.repo.GetByID(ctx, id)
}
