package composition

import (
	"context"

	"github.com/omnikit/catalog-composition-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, item *model.CompositionItem) error
	// CreateBatch must have the effect of sequential per-item creation.
	CreateBatch(ctx context.Context, items []*model.CompositionItem) error
	FindByID(ctx context.Context, id string) (*model.CompositionItem, error)
	FindAll(ctx context.Context) ([]model.CompositionItem, error)
	FindByParent(ctx context.Context, parentKey string) ([]model.CompositionItem, error)
	FindByChild(ctx context.Context, childSKU string) ([]model.CompositionItem, error)
	Update(ctx context.Context, item *model.CompositionItem) error
	Delete(ctx context.Context, id string) error
	DeleteByParent(ctx context.Context, parentKey string) error
	DeleteByChild(ctx context.Context, childSKU string) error

	// CalculateCompositeWeight sums quantity x weight over the parent's
	// direct items using the caller-resolved child weights. Children absent
	// from the map contribute zero.
	CalculateCompositeWeight(ctx context.Context, parentKey string, childWeights map[string]float64) (float64, error)
	// ValidateIntegrity audits the whole table against the given set of
	// known product SKUs.
	ValidateIntegrity(ctx context.Context, knownSKUs []string) (*model.IntegrityReport, error)
	GetCompositionStats(ctx context.Context) (*model.CompositionStats, error)
}
