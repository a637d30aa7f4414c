package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/product/dto"
)

// MemoryRepository is a map-backed product repository with the same
// semantics as the Postgres one. Used by unit tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]model.Product // keyed by ID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: map[string]model.Product{}}
}

func (r *MemoryRepository) Create(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.products[id]; ok {
		clone := p
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.SKU == sku {
			clone := p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Product
	for _, p := range r.products {
		if f != nil {
			if f.IsActive != nil && p.IsActive != *f.IsActive {
				continue
			}
			if f.IsComposite != nil && p.IsComposite != *f.IsComposite {
				continue
			}
			if f.SearchQuery != "" {
				q := strings.ToLower(f.SearchQuery)
				if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
					continue
				}
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, len(out), nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.SKU == sku && p.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

func (r *MemoryRepository) IsNameUnique(ctx context.Context, name, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if model.NameEquals(p.Name, name) && p.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}
