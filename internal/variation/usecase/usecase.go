package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/product"
	"github.com/omnikit/catalog-composition-service/internal/variation"
	"github.com/omnikit/catalog-composition-service/internal/variation/dto"
)

type variationUseCase struct {
	types      variation.TypeRepository
	variations variation.VariationRepository
	items      variation.ItemRepository
	products   product.Repository
	compItems  composition.Repository
	compUC     composition.UseCase
	logger     logger.ZapLogger
}

func NewVariationUseCase(
	types variation.TypeRepository,
	variations variation.VariationRepository,
	items variation.ItemRepository,
	products product.Repository,
	compItems composition.Repository,
	compUC composition.UseCase,
	log logger.ZapLogger,
) variation.UseCase {
	return &variationUseCase{
		types:      types,
		variations: variations,
		items:      items,
		products:   products,
		compItems:  compItems,
		compUC:     compUC,
		logger:     log,
	}
}

// --- Vocabulary: variation types ---

func (uc *variationUseCase) CreateVariationType(ctx context.Context, input *dto.CreateVariationTypeInput) (*model.VariationType, error) {
	if input.Name == "" {
		return nil, apperr.NewValidation("name", "name is required")
	}
	existing, err := uc.types.FindAll(ctx)
	if err != nil {
		return nil, apperr.NewStorage("variationType.findAll", err)
	}
	for _, vt := range existing {
		if model.NameEquals(vt.Name, input.Name) {
			return nil, apperr.NewConflict(fmt.Sprintf("a variation type named '%s' already exists", input.Name))
		}
	}

	now := time.Now()
	vt := &model.VariationType{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:               input.Name,
		ModifiesWeight:     input.ModifiesWeight,
		ModifiesDimensions: input.ModifiesDimensions,
	}
	if err := uc.types.Create(ctx, vt); err != nil {
		return nil, apperr.NewStorage("variationType.create", err)
	}
	return vt, nil
}

func (uc *variationUseCase) ListVariationTypes(ctx context.Context) ([]model.VariationType, error) {
	return uc.types.FindAll(ctx)
}

func (uc *variationUseCase) DeleteVariationType(ctx context.Context, id string) error {
	vt, err := uc.types.FindByID(ctx, id)
	if err != nil {
		return apperr.NewStorage("variationType.find", err)
	}
	if vt == nil {
		return apperr.NewNotFound("variation type", id)
	}

	count, err := uc.variations.CountByType(ctx, id)
	if err != nil {
		return apperr.NewStorage("variation.countByType", err)
	}
	if count > 0 {
		return apperr.NewBusinessRule("delete_variation_type_rule",
			fmt.Sprintf("Cannot delete variation type '%s' because it has %d variation(s) associated with it. Please delete all variations first.", vt.Name, count))
	}
	if err := uc.types.Delete(ctx, id); err != nil {
		return apperr.NewStorage("variationType.delete", err)
	}
	return nil
}

// --- Vocabulary: variations ---

func (uc *variationUseCase) CreateVariation(ctx context.Context, input *dto.CreateVariationInput) (*model.Variation, error) {
	if input.Name == "" {
		return nil, apperr.NewValidation("name", "name is required")
	}
	vt, err := uc.types.FindByID(ctx, input.VariationTypeID)
	if err != nil {
		return nil, apperr.NewStorage("variationType.find", err)
	}
	if vt == nil {
		return nil, apperr.NewNotFound("variation type", input.VariationTypeID)
	}

	siblings, err := uc.variations.FindByType(ctx, input.VariationTypeID)
	if err != nil {
		return nil, apperr.NewStorage("variation.findByType", err)
	}
	for _, sibling := range siblings {
		if model.NameEquals(sibling.Name, input.Name) {
			return nil, apperr.NewConflict(
				fmt.Sprintf("variation type '%s' already has a variation named '%s'", vt.Name, input.Name))
		}
	}

	now := time.Now()
	v := &model.Variation{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		VariationTypeID: input.VariationTypeID,
		Name:            input.Name,
		SortOrder:       input.SortOrder,
	}
	if err := uc.variations.Create(ctx, v); err != nil {
		return nil, apperr.NewStorage("variation.create", err)
	}
	return v, nil
}

func (uc *variationUseCase) ListVariationsByType(ctx context.Context, typeID string) ([]model.Variation, error) {
	return uc.variations.FindByType(ctx, typeID)
}

func (uc *variationUseCase) DeleteVariation(ctx context.Context, id string) error {
	v, err := uc.variations.FindByID(ctx, id)
	if err != nil {
		return apperr.NewStorage("variation.find", err)
	}
	if v == nil {
		return apperr.NewNotFound("variation", id)
	}
	if err := uc.variations.Delete(ctx, id); err != nil {
		return apperr.NewStorage("variation.delete", err)
	}
	return nil
}

// --- Variation combinations ---

func (uc *variationUseCase) CreateVariationItem(ctx context.Context, input *dto.CreateVariationItemInput) (*model.ProductVariationItem, error) {
	p, err := uc.products.FindBySKU(ctx, input.ProductSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewNotFound("product", input.ProductSKU)
	}
	if !p.HasVariation {
		return nil, apperr.NewBusinessRule("variation_flag_rule",
			fmt.Sprintf("product '%s' is not configured for variations", input.ProductSKU))
	}
	if input.WeightOverride != nil && *input.WeightOverride <= 0 {
		return nil, apperr.NewValidation("weight_override", "weight override must be positive")
	}
	if input.DimensionsOverride != nil && !input.DimensionsOverride.Valid() {
		return nil, apperr.NewValidation("dimensions_override", "all dimensions must be positive")
	}
	if err := uc.compUC.ValidateCompositeVariationUniqueness(ctx, input.ProductSKU, input.Selections, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	var name *string
	if input.Name != "" {
		name = &input.Name
	}
	item := &model.ProductVariationItem{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductSKU:         input.ProductSKU,
		Name:               name,
		Selections:         input.Selections,
		WeightOverride:     input.WeightOverride,
		DimensionsOverride: input.DimensionsOverride,
		SortOrder:          input.SortOrder,
	}
	if item.Selections == nil {
		item.Selections = model.SelectionMap{}
	}
	if err := uc.items.Create(ctx, item); err != nil {
		return nil, apperr.NewStorage("variationItem.create", err)
	}

	go uc.compUC.InvalidateAvailableItems(context.Background())

	return item, nil
}

func (uc *variationUseCase) UpdateVariationItem(ctx context.Context, id string, input *dto.UpdateVariationItemInput) (*model.ProductVariationItem, error) {
	item, err := uc.items.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.find", err)
	}
	if item == nil {
		return nil, apperr.NewNotFound("variation", id)
	}
	if input.WeightOverride != nil && *input.WeightOverride <= 0 {
		return nil, apperr.NewValidation("weight_override", "weight override must be positive")
	}
	if input.DimensionsOverride != nil && !input.DimensionsOverride.Valid() {
		return nil, apperr.NewValidation("dimensions_override", "all dimensions must be positive")
	}
	if err := uc.compUC.ValidateCompositeVariationUniqueness(ctx, item.ProductSKU, input.Selections, id); err != nil {
		return nil, err
	}

	if input.Name != "" {
		item.Name = &input.Name
	}
	item.Selections = input.Selections
	if item.Selections == nil {
		item.Selections = model.SelectionMap{}
	}
	item.WeightOverride = input.WeightOverride
	item.DimensionsOverride = input.DimensionsOverride
	item.SortOrder = input.SortOrder
	item.UpdatedAt = time.Now()

	if err := uc.items.Update(ctx, item); err != nil {
		return nil, apperr.NewStorage("variationItem.update", err)
	}

	go uc.compUC.InvalidateAvailableItems(context.Background())

	return item, nil
}

func (uc *variationUseCase) ListVariationItems(ctx context.Context, productSKU string) ([]model.ProductVariationItem, error) {
	return uc.items.FindByProductSKU(ctx, productSKU)
}

func (uc *variationUseCase) SearchVariationItems(ctx context.Context, query string) ([]model.ProductVariationItem, error) {
	if query == "" {
		return nil, apperr.NewValidation("q", "search query is required")
	}
	items, err := uc.items.Search(ctx, query)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.search", err)
	}
	return items, nil
}

func (uc *variationUseCase) DeleteVariationItem(ctx context.Context, id string) error {
	item, err := uc.items.FindByID(ctx, id)
	if err != nil {
		return apperr.NewStorage("variationItem.find", err)
	}
	if item == nil {
		return apperr.NewNotFound("variation", id)
	}

	p, err := uc.products.FindBySKU(ctx, item.ProductSKU)
	if err != nil {
		return apperr.NewStorage("product.find", err)
	}
	if p != nil && p.HasVariation {
		count, err := uc.items.CountByProduct(ctx, item.ProductSKU)
		if err != nil {
			return apperr.NewStorage("variationItem.countByProduct", err)
		}
		if count <= 1 {
			return apperr.NewBusinessRule("last_variation_rule",
				fmt.Sprintf("Cannot delete the last variation of product '%s'. Disable variations on the product instead.", item.ProductSKU))
		}
	}

	// The combination's private composition subtree goes with it.
	scopedKey := composition.VariationScope(item.ProductSKU, item.ID).Key()
	if err := uc.compItems.DeleteByParent(ctx, scopedKey); err != nil {
		return apperr.NewStorage("composition.deleteByParent", err)
	}
	if err := uc.items.Delete(ctx, id); err != nil {
		return apperr.NewStorage("variationItem.delete", err)
	}

	go uc.compUC.InvalidateAvailableItems(context.Background())

	return nil
}
