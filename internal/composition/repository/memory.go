package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

// MemoryRepository is a map-backed composition item store with the same
// semantics as the Postgres one. Used by unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]model.CompositionItem // keyed by ID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[string]model.CompositionItem{}}
}

func (r *MemoryRepository) Create(ctx context.Context, item *model.CompositionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryRepository) CreateBatch(ctx context.Context, items []*model.CompositionItem) error {
	for _, item := range items {
		if err := r.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.CompositionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if item, ok := r.items[id]; ok {
		clone := item
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryRepository) sorted(filter func(model.CompositionItem) bool) []model.CompositionItem {
	var out []model.CompositionItem
	for _, item := range r.items {
		if filter(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]model.CompositionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(model.CompositionItem) bool { return true }), nil
}

func (r *MemoryRepository) FindByParent(ctx context.Context, parentKey string) ([]model.CompositionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(item model.CompositionItem) bool { return item.ParentKey == parentKey }), nil
}

func (r *MemoryRepository) FindByChild(ctx context.Context, childSKU string) ([]model.CompositionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(item model.CompositionItem) bool { return item.ChildSKU == childSKU }), nil
}

func (r *MemoryRepository) Update(ctx context.Context, item *model.CompositionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) DeleteByParent(ctx context.Context, parentKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.ParentKey == parentKey {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *MemoryRepository) DeleteByChild(ctx context.Context, childSKU string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.ChildSKU == childSKU {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *MemoryRepository) CalculateCompositeWeight(ctx context.Context, parentKey string, childWeights map[string]float64) (float64, error) {
	items, err := r.FindByParent(ctx, parentKey)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * childWeights[item.ChildSKU]
	}
	return total, nil
}

func (r *MemoryRepository) ValidateIntegrity(ctx context.Context, knownSKUs []string) (*model.IntegrityReport, error) {
	items, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(knownSKUs))
	for _, sku := range knownSKUs {
		known[sku] = true
	}
	report := &model.IntegrityReport{Valid: true, OrphanedItems: []string{}, MissingChildren: []string{}}
	for _, item := range items {
		if !known[composition.ParseScope(item.ParentKey).ProductSKU] {
			report.OrphanedItems = append(report.OrphanedItems, item.ID)
			report.Valid = false
		}
		ref := composition.ParseChildRef(item.ChildSKU)
		if ref.Kind != composition.RefLegacy && !known[ref.ProductSKU] {
			report.MissingChildren = append(report.MissingChildren, item.ChildSKU)
			report.Valid = false
		}
	}
	return report, nil
}

func (r *MemoryRepository) GetCompositionStats(ctx context.Context) (*model.CompositionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parents := map[string]bool{}
	children := map[string]bool{}
	for _, item := range r.items {
		parents[item.ParentKey] = true
		children[item.ChildSKU] = true
	}
	stats := &model.CompositionStats{
		TotalItems:     len(r.items),
		UniqueParents:  len(parents),
		UniqueChildren: len(children),
	}
	if stats.UniqueParents > 0 {
		stats.AverageItemsPerParent = float64(stats.TotalItems) / float64(stats.UniqueParents)
	}
	return stats, nil
}
