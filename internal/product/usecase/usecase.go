package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/migration"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/broker"
	"github.com/omnikit/catalog-composition-service/internal/pkg/cache"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/pkg/search"
	"github.com/omnikit/catalog-composition-service/internal/product"
	"github.com/omnikit/catalog-composition-service/internal/product/dto"
	"github.com/omnikit/catalog-composition-service/internal/variation"
)

const productsIndex = "products"

type productUseCase struct {
	repo      product.Repository
	compItems composition.Repository
	varItems  variation.ItemRepository
	compUC    composition.UseCase
	cache     *cache.RedisClient
	es        *search.Client
	publisher *broker.KafkaPublisher
	logger    logger.ZapLogger
}

func NewProductUseCase(
	repo product.Repository,
	compItems composition.Repository,
	varItems variation.ItemRepository,
	compUC composition.UseCase,
	cacheClient *cache.RedisClient,
	es *search.Client,
	publisher *broker.KafkaPublisher,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:      repo,
		compItems: compItems,
		varItems:  varItems,
		compUC:    compUC,
		cache:     cacheClient,
		es:        es,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := uc.validateFields(input.SKU, input.Name, input.Weight, input.Dimensions, input.IsComposite); err != nil {
		return nil, err
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, apperr.NewStorage("product.isSKUUnique", err)
	}
	if !unique {
		return nil, apperr.NewConflict(fmt.Sprintf("a product with SKU '%s' already exists", input.SKU))
	}
	unique, err = uc.repo.IsNameUnique(ctx, input.Name, "")
	if err != nil {
		return nil, apperr.NewStorage("product.isNameUnique", err)
	}
	if !unique {
		return nil, apperr.NewConflict(fmt.Sprintf("a product named '%s' already exists", input.Name))
	}

	now := time.Now()
	var description *string
	if input.Description != "" {
		description = &input.Description
	}
	p := &model.Product{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:          input.SKU,
		Name:         input.Name,
		Description:  description,
		Weight:       input.Weight,
		Dimensions:   input.Dimensions,
		IsComposite:  input.IsComposite,
		HasVariation: input.HasVariation,
		IsActive:     true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, apperr.NewStorage("product.create", err)
	}

	go uc.invalidateCaches(context.Background())
	go uc.syncToElastic(context.Background(), p)
	go uc.publishEvent(context.Background(), "catalog.product.created", p.SKU, p)

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewNotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) GetProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	p, err := uc.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewNotFound("product", sku)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"query_string": map[string]interface{}{
					"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
					"fields": []string{"name^3", "sku", "description"},
				},
			},
			"from": (filters.Page - 1) * filters.PageSize,
		}
		if filters.PageSize > 0 {
			q["size"] = filters.PageSize
		}

		res, err := uc.es.Search(ctx, productsIndex, q)
		if err == nil {
			var esProducts []model.Product
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					esProducts = append(esProducts, p)
				}
			}
			return esProducts, res.Hits.Total.Value, nil
		}
		// ES down is not fatal; the DB answers instead.
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.NewStorage("product.findAll", err)
	}

	if cacheKey != "" && uc.cache != nil {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewNotFound("product", id)
	}

	if err := uc.validateFields(input.SKU, input.Name, input.Weight, input.Dimensions, input.IsComposite); err != nil {
		return nil, err
	}

	if p.SKU != input.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, p.ID)
		if err != nil {
			return nil, apperr.NewStorage("product.isSKUUnique", err)
		}
		if !unique {
			return nil, apperr.NewConflict(fmt.Sprintf("a product with SKU '%s' already exists", input.SKU))
		}

		// Composition parent keys, child refs and variation rows all carry
		// the SKU, so renaming while any of them exist would dangle the graph.
		refs, err := uc.compItems.FindByChild(ctx, p.SKU)
		if err != nil {
			return nil, apperr.NewStorage("composition.findByChild", err)
		}
		own, err := uc.compItems.FindByParent(ctx, p.SKU)
		if err != nil {
			return nil, apperr.NewStorage("composition.findByParent", err)
		}
		variations, err := uc.varItems.FindByProductSKU(ctx, p.SKU)
		if err != nil {
			return nil, apperr.NewStorage("variationItem.findByProduct", err)
		}
		if len(refs)+len(own)+len(variations) > 0 {
			return nil, apperr.NewBusinessRule("sku_change_rule",
				fmt.Sprintf("Cannot change the SKU of product '%s' while composition or variation data references it. Remove those references first.", p.SKU))
		}
	}
	if !model.NameEquals(p.Name, input.Name) {
		unique, err := uc.repo.IsNameUnique(ctx, input.Name, p.ID)
		if err != nil {
			return nil, apperr.NewStorage("product.isNameUnique", err)
		}
		if !unique {
			return nil, apperr.NewConflict(fmt.Sprintf("a product named '%s' already exists", input.Name))
		}
	}

	transition, err := uc.ValidateStateTransition(ctx, p, input)
	if err != nil {
		return nil, err
	}
	if !transition.Valid {
		return nil, apperr.NewBusinessRule("state_transition_rule", transition.Errors[0])
	}
	for _, warning := range transition.Warnings {
		uc.logger.Warn("state transition warning", zap.String("sku", p.SKU), zap.String("warning", warning))
	}

	p.SKU = input.SKU
	p.Name = input.Name
	if input.Description != "" {
		p.Description = &input.Description
	} else {
		p.Description = nil
	}
	p.Weight = input.Weight
	p.Dimensions = input.Dimensions
	p.IsComposite = input.IsComposite
	p.HasVariation = input.HasVariation
	p.IsActive = input.IsActive
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, apperr.NewStorage("product.update", err)
	}

	go uc.invalidateCaches(context.Background())
	go uc.syncToElastic(context.Background(), p)
	go uc.publishEvent(context.Background(), "catalog.product.updated", p.SKU, p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return apperr.NewNotFound("product", id)
	}

	// Blocked while anything still references this product as a child,
	// either by its plain SKU or via one of its variation combinations.
	refs, err := uc.compItems.FindByChild(ctx, p.SKU)
	if err != nil {
		return apperr.NewStorage("composition.findByChild", err)
	}
	variations, err := uc.varItems.FindByProductSKU(ctx, p.SKU)
	if err != nil {
		return apperr.NewStorage("variationItem.findByProduct", err)
	}
	for _, v := range variations {
		varRefs, err := uc.compItems.FindByChild(ctx, composition.VariationRefKey(p.SKU, v.ID))
		if err != nil {
			return apperr.NewStorage("composition.findByChild", err)
		}
		refs = append(refs, varRefs...)
	}
	if len(refs) > 0 {
		return apperr.NewBusinessRule("delete_referenced_rule",
			fmt.Sprintf("Cannot delete product '%s' because it is used in %d composition(s). Remove it from those compositions first.", p.SKU, len(refs)))
	}

	own, err := uc.compItems.FindByParent(ctx, p.SKU)
	if err != nil {
		return apperr.NewStorage("composition.findByParent", err)
	}
	if len(own) > 0 {
		return apperr.NewBusinessRule("delete_composite_rule",
			fmt.Sprintf("Cannot delete product '%s' because it has %d composition item(s). Delete its composition first.", p.SKU, len(own)))
	}
	if len(variations) > 0 {
		return apperr.NewBusinessRule("delete_variable_rule",
			fmt.Sprintf("Cannot delete product '%s' because it has %d variation(s). Delete all variations first.", p.SKU, len(variations)))
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.NewStorage("product.delete", err)
	}

	go uc.invalidateCaches(context.Background())
	go uc.deleteFromElastic(context.Background(), id)
	go uc.publishEvent(context.Background(), "catalog.product.deleted", p.SKU, p)

	return nil
}

// ValidateStateTransition checks a proposed composite/variation flag change
// and names the migration the change requires. The decision table is checked
// in order; the first match wins.
func (uc *productUseCase) ValidateStateTransition(ctx context.Context, current *model.Product, proposed *dto.UpdateProductInput) (*dto.StateTransitionResult, error) {
	result := &dto.StateTransitionResult{
		Valid:             true,
		Errors:            []string{},
		Warnings:          []string{},
		RequiredMigration: migration.KindNone,
	}

	items, err := uc.compItems.FindByParent(ctx, current.SKU)
	if err != nil {
		return nil, apperr.NewStorage("composition.findByParent", err)
	}

	if current.IsComposite && !proposed.IsComposite && len(items) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("disabling composite will permanently delete %d composition item(s) of '%s'", len(items), current.SKU))
	}

	if !current.IsComposite && proposed.IsComposite && proposed.Weight != nil {
		result.Valid = false
		result.Errors = append(result.Errors,
			"composite products must not carry an authoritative weight; it is derived from the composition")
	}

	switch {
	case current.IsComposite && !current.HasVariation && proposed.IsComposite && proposed.HasVariation:
		result.RequiredMigration = migration.KindEnableVariations
	case current.IsComposite && !proposed.IsComposite:
		result.RequiredMigration = migration.KindDisableComposite
	case current.IsComposite && current.HasVariation && proposed.IsComposite && !proposed.HasVariation:
		result.RequiredMigration = migration.KindDisableVariations
	case !current.IsComposite && proposed.IsComposite:
		result.RequiredMigration = migration.KindEnableComposite
	}

	return result, nil
}

func (uc *productUseCase) validateFields(sku, name string, weight *float64, dims *model.Dimensions, isComposite bool) error {
	if !model.ValidSKU(sku) {
		return apperr.NewValidation("sku", "SKU may contain only uppercase letters, digits and hyphens")
	}
	if name == "" {
		return apperr.NewValidation("name", "name is required")
	}
	if weight != nil && *weight <= 0 {
		return apperr.NewValidation("weight", "weight must be positive")
	}
	if dims != nil && !dims.Valid() {
		return apperr.NewValidation("dimensions", "all dimensions must be positive")
	}
	if isComposite && weight != nil {
		return apperr.NewBusinessRule("composite_weight_rule",
			"composite products must not carry an authoritative weight; it is derived from the composition")
	}
	return nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	mapping := `{
		"mappings": {
			"properties": {
				"sku": { "type": "keyword" },
				"name": { "type": "text" },
				"description": { "type": "text" },
				"weight": { "type": "double" },
				"is_composite": { "type": "boolean" },
				"has_variation": { "type": "boolean" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productsIndex, mapping)

	if err := uc.es.Index(ctx, productsIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.Error(err))
	}
}

func (uc *productUseCase) deleteFromElastic(ctx context.Context, id string) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Delete(ctx, productsIndex, id); err != nil {
		uc.logger.Error("failed to delete product from index", zap.Error(err))
	}
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

// invalidateCaches drops every cache a product write can stale: the list
// cache here and the available-items listing owned by the composition side.
func (uc *productUseCase) invalidateCaches(ctx context.Context) {
	if uc.compUC != nil {
		uc.compUC.InvalidateAvailableItems(ctx)
	}
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func (uc *productUseCase) publishEvent(ctx context.Context, eventType, sku string, p *model.Product) {
	if uc.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"event_id":   uuid.New().String(),
		"event_type": eventType,
		"sku":        sku,
		"product":    p,
		"timestamp":  time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, sku, data); err != nil {
		uc.logger.Error("failed to publish catalog event", zap.String("event_type", eventType), zap.Error(err))
	}
}
