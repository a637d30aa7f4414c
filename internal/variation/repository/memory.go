package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/omnikit/catalog-composition-service/internal/model"
)

// Map-backed counterparts of the Postgres repositories. Used by unit tests.

type MemoryTypeRepository struct {
	mu    sync.RWMutex
	types map[string]model.VariationType
}

func NewMemoryTypeRepository() *MemoryTypeRepository {
	return &MemoryTypeRepository{types: map[string]model.VariationType{}}
}

func (r *MemoryTypeRepository) Create(ctx context.Context, vt *model.VariationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[vt.ID] = *vt
	return nil
}

func (r *MemoryTypeRepository) FindByID(ctx context.Context, id string) (*model.VariationType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if vt, ok := r.types[id]; ok {
		clone := vt
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryTypeRepository) FindAll(ctx context.Context) ([]model.VariationType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.VariationType
	for _, vt := range r.types {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryTypeRepository) Update(ctx context.Context, vt *model.VariationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[vt.ID] = *vt
	return nil
}

func (r *MemoryTypeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, id)
	return nil
}

type MemoryVariationRepository struct {
	mu         sync.RWMutex
	variations map[string]model.Variation
}

func NewMemoryVariationRepository() *MemoryVariationRepository {
	return &MemoryVariationRepository{variations: map[string]model.Variation{}}
}

func (r *MemoryVariationRepository) Create(ctx context.Context, v *model.Variation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variations[v.ID] = *v
	return nil
}

func (r *MemoryVariationRepository) FindByID(ctx context.Context, id string) (*model.Variation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.variations[id]; ok {
		clone := v
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryVariationRepository) sorted(filter func(model.Variation) bool) []model.Variation {
	var out []model.Variation
	for _, v := range r.variations {
		if filter(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder == out[j].SortOrder {
			return out[i].Name < out[j].Name
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

func (r *MemoryVariationRepository) FindAll(ctx context.Context) ([]model.Variation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(model.Variation) bool { return true }), nil
}

func (r *MemoryVariationRepository) FindByType(ctx context.Context, typeID string) ([]model.Variation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(v model.Variation) bool { return v.VariationTypeID == typeID }), nil
}

func (r *MemoryVariationRepository) CountByType(ctx context.Context, typeID string) (int, error) {
	variations, err := r.FindByType(ctx, typeID)
	if err != nil {
		return 0, err
	}
	return len(variations), nil
}

func (r *MemoryVariationRepository) Update(ctx context.Context, v *model.Variation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variations[v.ID] = *v
	return nil
}

func (r *MemoryVariationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.variations, id)
	return nil
}

type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]model.ProductVariationItem
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{items: map[string]model.ProductVariationItem{}}
}

func (r *MemoryItemRepository) Create(ctx context.Context, item *model.ProductVariationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryItemRepository) FindByID(ctx context.Context, id string) (*model.ProductVariationItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if item, ok := r.items[id]; ok {
		clone := item
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryItemRepository) sorted(filter func(model.ProductVariationItem) bool) []model.ProductVariationItem {
	var out []model.ProductVariationItem
	for _, item := range r.items {
		if filter(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder == out[j].SortOrder {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

func (r *MemoryItemRepository) FindAll(ctx context.Context) ([]model.ProductVariationItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(model.ProductVariationItem) bool { return true }), nil
}

func (r *MemoryItemRepository) FindByProductSKU(ctx context.Context, sku string) ([]model.ProductVariationItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(item model.ProductVariationItem) bool { return item.ProductSKU == sku }), nil
}

func (r *MemoryItemRepository) CountByProduct(ctx context.Context, sku string) (int, error) {
	items, err := r.FindByProductSKU(ctx, sku)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *MemoryItemRepository) Search(ctx context.Context, query string) ([]model.ProductVariationItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	return r.sorted(func(item model.ProductVariationItem) bool {
		if strings.Contains(strings.ToLower(item.ProductSKU), q) {
			return true
		}
		return item.Name != nil && strings.Contains(strings.ToLower(*item.Name), q)
	}), nil
}

func (r *MemoryItemRepository) Update(ctx context.Context, item *model.ProductVariationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryItemRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryItemRepository) DeleteByProductSKU(ctx context.Context, sku string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.ProductSKU == sku {
			delete(r.items, id)
		}
	}
	return nil
}
