package variation

import (
	"context"

	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/variation/dto"
)

type UseCase interface {
	// Vocabulary
	CreateVariationType(ctx context.Context, input *dto.CreateVariationTypeInput) (*model.VariationType, error)
	ListVariationTypes(ctx context.Context) ([]model.VariationType, error)
	DeleteVariationType(ctx context.Context, id string) error
	CreateVariation(ctx context.Context, input *dto.CreateVariationInput) (*model.Variation, error)
	ListVariationsByType(ctx context.Context, typeID string) ([]model.Variation, error)
	DeleteVariation(ctx context.Context, id string) error

	// Variation combinations
	CreateVariationItem(ctx context.Context, input *dto.CreateVariationItemInput) (*model.ProductVariationItem, error)
	UpdateVariationItem(ctx context.Context, id string, input *dto.UpdateVariationItemInput) (*model.ProductVariationItem, error)
	ListVariationItems(ctx context.Context, productSKU string) ([]model.ProductVariationItem, error)
	SearchVariationItems(ctx context.Context, query string) ([]model.ProductVariationItem, error)
	DeleteVariationItem(ctx context.Context, id string) error
}
