package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, p *Package) error
	List(ctx context.Context, filter *PackageType) ([]Package, error)
	GetByID(ctx context.Context, id int) (*Package, error)
}
