package variation

import (
	"context"

	"github.com/omnikit/catalog-composition-service/internal/model"
)

type TypeRepository interface {
	Create(ctx context.Context, vt *model.VariationType) error
	FindByID(ctx context.Context, id string) (*model.VariationType, error)
	FindAll(ctx context.Context) ([]model.VariationType, error)
	Update(ctx context.Context, vt *model.VariationType) error
	Delete(ctx context.Context, id string) error
}

type VariationRepository interface {
	Create(ctx context.Context, v *model.Variation) error
	FindByID(ctx context.Context, id string) (*model.Variation, error)
	FindAll(ctx context.Context) ([]model.Variation, error)
	FindByType(ctx context.Context, typeID string) ([]model.Variation, error)
	CountByType(ctx context.Context, typeID string) (int, error)
	Update(ctx context.Context, v *model.Variation) error
	Delete(ctx context.Context, id string) error
}

// ItemRepository stores ProductVariationItem rows, the concrete variation
// combinations of variable products.
type ItemRepository interface {
	Create(ctx context.Context, item *model.ProductVariationItem) error
	FindByID(ctx context.Context, id string) (*model.ProductVariationItem, error)
	FindAll(ctx context.Context) ([]model.ProductVariationItem, error)
	FindByProductSKU(ctx context.Context, sku string) ([]model.ProductVariationItem, error)
	CountByProduct(ctx context.Context, sku string) (int, error)
	Search(ctx context.Context, query string) ([]model.ProductVariationItem, error)
	Update(ctx context.Context, item *model.ProductVariationItem) error
	Delete(ctx context.Context, id string) error
	DeleteByProductSKU(ctx context.Context, sku string) error
}
