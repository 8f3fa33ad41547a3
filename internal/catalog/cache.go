package catalog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRepository memoizes GetByID. Packages are immutable once sold, so
// entries are never invalidated.
type CachedRepository struct {
	Repository
	cache *lru.Cache[int, Package]
}

func NewCachedRepository(repo Repository, size int) (*CachedRepository, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[int, Package](size)
	if err != nil {
		return nil, fmt.Errorf("create package cache: %w", err)
	}
	return &CachedRepository{Repository: repo, cache: cache}, nil
}

func (r *CachedRepository) GetByID(ctx context.Context, id int) (*Package, error) {
	if p, ok := r.cache.Get(id); ok {
		return &p, nil
	}

	p, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cache.Add(id, *p)
	return p, nil
}
