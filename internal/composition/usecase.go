package composition

import (
	"context"

	"github.com/omnikit/catalog-composition-service/internal/composition/dto"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

type UseCase interface {
	AddItem(ctx context.Context, input *dto.AddItemInput) (*model.CompositionItem, error)
	RemoveItem(ctx context.Context, id string) error
	ListByParent(ctx context.Context, parentKey string) ([]model.CompositionItem, error)

	// CalculateCompositeWeight recursively sums quantity-weighted child
	// weights under the given parent key. Dangling children contribute zero.
	CalculateCompositeWeight(ctx context.Context, parentKey string) (float64, error)
	GetCompositionTree(ctx context.Context, rootSKU string) (*dto.TreeNode, error)
	HasCircularDependency(ctx context.Context, parentKey, childSKU string) (bool, error)
	ValidateReferentialIntegrity(ctx context.Context, parentKey, childSKU string) error
	ValidateChildEligibility(ctx context.Context, childSKU string) error
	GetAvailableItems(ctx context.Context) ([]dto.AvailableItem, error)
	// InvalidateAvailableItems drops the cached available-items listing.
	// Product and variation writers call it alongside their own cache
	// invalidation so the listing never outlives the data it was built from.
	InvalidateAvailableItems(ctx context.Context)

	// Composite-variation composition management. Each variation combination
	// of a composite-variation product owns its own subtree keyed by
	// "productSKU#variationID".
	CreateCompositeVariationComposition(ctx context.Context, productSKU, variationID string, items []dto.ItemInput) ([]model.CompositionItem, error)
	UpdateCompositeVariationComposition(ctx context.Context, productSKU, variationID string, items []dto.ItemInput) ([]model.CompositionItem, error)
	CalculateCompositeVariationWeight(ctx context.Context, productSKU, variationID string) (float64, error)
	ValidateCompositeVariationUniqueness(ctx context.Context, productSKU string, selections model.SelectionMap, excludeVariationID string) error
	ValidateCompositeVariationCompleteness(ctx context.Context, productSKU, variationID string) (*dto.CompletenessResult, error)
	GetCompositeVariationsWithComposition(ctx context.Context, productSKU string) ([]dto.VariationComposition, error)

	// Audit surface.
	ValidateIntegrity(ctx context.Context) (*model.IntegrityReport, error)
	GetStats(ctx context.Context) (*model.CompositionStats, error)
}
