package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/composition/dto"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/cache"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/product"
	productdto "github.com/omnikit/catalog-composition-service/internal/product/dto"
	"github.com/omnikit/catalog-composition-service/internal/variation"
)

const availableItemsCacheKey = "composition:available-items"

type compositionUseCase struct {
	repo     composition.Repository
	products product.Repository
	varItems variation.ItemRepository
	varTypes variation.TypeRepository
	cache    *cache.RedisClient
	logger   logger.ZapLogger
}

func NewCompositionUseCase(
	repo composition.Repository,
	products product.Repository,
	varItems variation.ItemRepository,
	varTypes variation.TypeRepository,
	cacheClient *cache.RedisClient,
	log logger.ZapLogger,
) composition.UseCase {
	return &compositionUseCase{
		repo:     repo,
		products: products,
		varItems: varItems,
		varTypes: varTypes,
		cache:    cacheClient,
		logger:   log,
	}
}

// --- Basic item management ---

func (uc *compositionUseCase) AddItem(ctx context.Context, input *dto.AddItemInput) (*model.CompositionItem, error) {
	if input.Quantity <= 0 {
		return nil, apperr.NewValidation("quantity", "quantity must be a positive integer")
	}
	if err := uc.ValidateChildEligibility(ctx, input.ChildSKU); err != nil {
		return nil, err
	}
	if err := uc.ValidateReferentialIntegrity(ctx, input.ParentKey, input.ChildSKU); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ParentKey: input.ParentKey,
		ChildSKU:  input.ChildSKU,
		Quantity:  input.Quantity,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, apperr.NewStorage("composition.create", err)
	}

	go uc.InvalidateAvailableItems(context.Background())

	return item, nil
}

func (uc *compositionUseCase) RemoveItem(ctx context.Context, id string) error {
	item, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return apperr.NewStorage("composition.find", err)
	}
	if item == nil {
		return apperr.NewNotFound("composition item", id)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.NewStorage("composition.delete", err)
	}

	go uc.InvalidateAvailableItems(context.Background())

	return nil
}

func (uc *compositionUseCase) ListByParent(ctx context.Context, parentKey string) ([]model.CompositionItem, error) {
	return uc.repo.FindByParent(ctx, parentKey)
}

// --- Weight calculation ---

func (uc *compositionUseCase) CalculateCompositeWeight(ctx context.Context, parentKey string) (float64, error) {
	return uc.calculateWeight(ctx, parentKey, map[string]bool{})
}

// calculateWeight is the recursive core: quantity-weighted sum over the
// parent's direct items, recursing into composite children. Composite nodes
// themselves contribute no base weight of their own. The visited set holds
// the current recursion path, not every node ever seen: a subassembly shared
// by two branches must count once per branch. It only guards against
// pathological cyclic data slipping past write-time checks; such edges
// contribute zero instead of recursing forever.
func (uc *compositionUseCase) calculateWeight(ctx context.Context, parentKey string, visited map[string]bool) (float64, error) {
	if visited[parentKey] {
		return 0, nil
	}
	visited[parentKey] = true
	defer delete(visited, parentKey)

	items, err := uc.repo.FindByParent(ctx, parentKey)
	if err != nil {
		return 0, apperr.NewStorage("composition.findByParent", err)
	}

	var total float64
	for _, item := range items {
		weight, err := uc.childWeight(ctx, item.ChildSKU, visited)
		if err != nil {
			return 0, err
		}
		total += float64(item.Quantity) * weight
	}
	return total, nil
}

// childWeight resolves the effective weight of one composition child.
// Dangling references resolve to zero; the audit path is where they get
// reported, not here.
func (uc *compositionUseCase) childWeight(ctx context.Context, childSKU string, visited map[string]bool) (float64, error) {
	ref := composition.ParseChildRef(childSKU)
	switch ref.Kind {
	case composition.RefLegacy:
		return 0, nil

	case composition.RefVariation:
		item, err := uc.varItems.FindByID(ctx, ref.VariationID)
		if err != nil {
			return 0, apperr.NewStorage("variationItem.find", err)
		}
		if item == nil || item.ProductSKU != ref.ProductSKU {
			return 0, nil
		}
		if item.WeightOverride != nil {
			return *item.WeightOverride, nil
		}
		parent, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return 0, apperr.NewStorage("product.find", err)
		}
		if parent == nil {
			return 0, nil
		}
		if parent.IsComposite {
			// Composite-variation child: its weight is its own scoped subtree.
			return uc.calculateWeight(ctx, composition.VariationScope(ref.ProductSKU, ref.VariationID).Key(), visited)
		}
		if parent.Weight != nil {
			return *parent.Weight, nil
		}
		return 0, nil

	default:
		child, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return 0, apperr.NewStorage("product.find", err)
		}
		if child == nil {
			return 0, nil
		}
		if child.IsComposite {
			return uc.calculateWeight(ctx, child.SKU, visited)
		}
		if child.Weight != nil {
			return *child.Weight, nil
		}
		return 0, nil
	}
}

// --- Tree building ---

func (uc *compositionUseCase) GetCompositionTree(ctx context.Context, rootSKU string) (*dto.TreeNode, error) {
	root, err := uc.products.FindBySKU(ctx, rootSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if root == nil {
		return nil, apperr.NewNotFound("product", rootSKU)
	}
	return uc.buildTree(ctx, root, 1, 1)
}

func (uc *compositionUseCase) buildTree(ctx context.Context, p *model.Product, quantity, depth int) (*dto.TreeNode, error) {
	if depth > composition.MaxDepth {
		return nil, apperr.NewBusinessRule("composition_depth_rule",
			fmt.Sprintf("maximum composition depth of %d exceeded", composition.MaxDepth))
	}

	node := &dto.TreeNode{
		SKU:         p.SKU,
		Name:        p.Name,
		IsComposite: p.IsComposite,
		Quantity:    quantity,
		Children:    []*dto.TreeNode{},
	}

	if !p.IsComposite {
		if p.Weight != nil {
			node.CalculatedWeight = *p.Weight
		}
		return node, nil
	}

	items, err := uc.repo.FindByParent(ctx, p.SKU)
	if err != nil {
		return nil, apperr.NewStorage("composition.findByParent", err)
	}

	var total float64
	for _, item := range items {
		child, err := uc.buildChildNode(ctx, item, depth+1)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue // dangling reference; tolerated on the read path
		}
		node.Children = append(node.Children, child)
		total += float64(child.Quantity) * child.CalculatedWeight
	}
	node.CalculatedWeight = total
	return node, nil
}

func (uc *compositionUseCase) buildChildNode(ctx context.Context, item model.CompositionItem, depth int) (*dto.TreeNode, error) {
	ref := composition.ParseChildRef(item.ChildSKU)
	switch ref.Kind {
	case composition.RefLegacy:
		return nil, nil

	case composition.RefVariation:
		weight, err := uc.childWeight(ctx, item.ChildSKU, map[string]bool{})
		if err != nil {
			return nil, err
		}
		parent, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return nil, apperr.NewStorage("product.find", err)
		}
		if parent == nil {
			return nil, nil
		}
		name := parent.Name
		if varItem, err := uc.varItems.FindByID(ctx, ref.VariationID); err == nil && varItem != nil && varItem.Name != nil {
			name = fmt.Sprintf("%s - %s", parent.Name, *varItem.Name)
		}
		return &dto.TreeNode{
			SKU:              item.ChildSKU,
			Name:             name,
			Quantity:         item.Quantity,
			CalculatedWeight: weight,
			Children:         []*dto.TreeNode{},
		}, nil

	default:
		child, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return nil, apperr.NewStorage("product.find", err)
		}
		if child == nil {
			return nil, nil
		}
		return uc.buildTree(ctx, child, item.Quantity, depth)
	}
}

// --- Graph validation ---

func (uc *compositionUseCase) HasCircularDependency(ctx context.Context, parentKey, childSKU string) (bool, error) {
	parentBase := composition.ParseScope(parentKey).ProductSKU
	ref := composition.ParseChildRef(childSKU)
	if ref.Kind == composition.RefLegacy {
		return false, nil
	}
	visited := map[string]bool{}
	return uc.reachable(ctx, ref.ProductSKU, parentBase, visited)
}

// reachable walks the existing composition graph depth-first, collapsing
// variation-scoped keys onto the base product's position, and reports
// whether target is reachable from sku.
func (uc *compositionUseCase) reachable(ctx context.Context, sku, target string, visited map[string]bool) (bool, error) {
	if sku == target {
		return true, nil
	}
	if visited[sku] {
		return false, nil
	}
	visited[sku] = true

	keys := []string{sku}
	varItems, err := uc.varItems.FindByProductSKU(ctx, sku)
	if err != nil {
		return false, apperr.NewStorage("variationItem.findByProduct", err)
	}
	for _, v := range varItems {
		keys = append(keys, composition.VariationScope(sku, v.ID).Key())
	}

	for _, key := range keys {
		items, err := uc.repo.FindByParent(ctx, key)
		if err != nil {
			return false, apperr.NewStorage("composition.findByParent", err)
		}
		for _, item := range items {
			ref := composition.ParseChildRef(item.ChildSKU)
			if ref.Kind == composition.RefLegacy {
				continue
			}
			found, err := uc.reachable(ctx, ref.ProductSKU, target, visited)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
	}
	return false, nil
}

func (uc *compositionUseCase) ValidateReferentialIntegrity(ctx context.Context, parentKey, childSKU string) error {
	scope := composition.ParseScope(parentKey)
	ref := composition.ParseChildRef(childSKU)

	if ref.Kind != composition.RefLegacy && scope.ProductSKU == ref.ProductSKU {
		return apperr.NewBusinessRule("self_composition_rule",
			fmt.Sprintf("product '%s' cannot contain itself", scope.ProductSKU))
	}

	parent, err := uc.products.FindBySKU(ctx, scope.ProductSKU)
	if err != nil {
		return apperr.NewStorage("product.find", err)
	}
	if parent == nil {
		return apperr.NewNotFound("product", scope.ProductSKU)
	}
	if !parent.IsComposite {
		return apperr.NewBusinessRule("composite_parent_rule",
			fmt.Sprintf("product '%s' is not composite and cannot own composition items", parent.SKU))
	}

	existing, err := uc.repo.FindByParent(ctx, parentKey)
	if err != nil {
		return apperr.NewStorage("composition.findByParent", err)
	}
	for _, item := range existing {
		if item.ChildSKU == childSKU {
			return apperr.NewConflict(
				fmt.Sprintf("'%s' is already a direct child of '%s'", childSKU, parentKey))
		}
	}

	circular, err := uc.HasCircularDependency(ctx, parentKey, childSKU)
	if err != nil {
		return err
	}
	if circular {
		return apperr.NewBusinessRule("circular_dependency_rule",
			fmt.Sprintf("adding '%s' to '%s' would create a circular dependency", childSKU, parentKey))
	}
	return nil
}

func (uc *compositionUseCase) ValidateChildEligibility(ctx context.Context, childSKU string) error {
	ref := composition.ParseChildRef(childSKU)
	switch ref.Kind {
	case composition.RefLegacy:
		return apperr.NewValidation("child_sku",
			fmt.Sprintf("legacy format not supported: %q (use \"SKU#variationID\")", childSKU))

	case composition.RefVariation:
		parent, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return apperr.NewStorage("product.find", err)
		}
		if parent == nil {
			return apperr.NewNotFound("product", ref.ProductSKU)
		}
		item, err := uc.varItems.FindByID(ctx, ref.VariationID)
		if err != nil {
			return apperr.NewStorage("variationItem.find", err)
		}
		if item == nil {
			return apperr.NewNotFound("variation", ref.VariationID)
		}
		if item.ProductSKU != ref.ProductSKU {
			return apperr.NewBusinessRule("variation_ownership_rule",
				fmt.Sprintf("variation '%s' belongs to product '%s', not '%s'",
					ref.VariationID, item.ProductSKU, ref.ProductSKU))
		}
		return nil

	default:
		child, err := uc.products.FindBySKU(ctx, ref.ProductSKU)
		if err != nil {
			return apperr.NewStorage("product.find", err)
		}
		if child == nil {
			return apperr.NewNotFound("product", ref.ProductSKU)
		}
		if child.HasVariation {
			return apperr.NewBusinessRule("variable_parent_rule",
				fmt.Sprintf("product '%s' has variations; reference a specific variation (e.g. \"%s#variationID\") instead",
					child.SKU, child.SKU))
		}
		return nil
	}
}

// --- Available items ---

func (uc *compositionUseCase) GetAvailableItems(ctx context.Context) ([]dto.AvailableItem, error) {
	if uc.cache != nil {
		if val, err := uc.cache.Client.Get(ctx, availableItemsCacheKey).Result(); err == nil {
			var cached []dto.AvailableItem
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	products, _, err := uc.products.FindAll(ctx, &productdto.ProductFilters{})
	if err != nil {
		return nil, apperr.NewStorage("product.findAll", err)
	}

	items := []dto.AvailableItem{}
	for i := range products {
		p := &products[i]
		switch {
		case !p.IsComposite && !p.HasVariation:
			weight := 0.0
			if p.Weight != nil {
				weight = *p.Weight
			}
			items = append(items, dto.AvailableItem{SKU: p.SKU, Name: p.Name, Type: "simple", Weight: weight})

		case p.IsComposite && !p.HasVariation:
			weight, err := uc.CalculateCompositeWeight(ctx, p.SKU)
			if err != nil {
				return nil, err
			}
			items = append(items, dto.AvailableItem{SKU: p.SKU, Name: p.Name, Type: "composite", Weight: weight})

		default:
			// Variable products are selectable only via their combinations.
			combos, err := uc.varItems.FindByProductSKU(ctx, p.SKU)
			if err != nil {
				return nil, apperr.NewStorage("variationItem.findByProduct", err)
			}
			for _, combo := range combos {
				var weight float64
				if p.IsComposite {
					weight, err = uc.CalculateCompositeVariationWeight(ctx, p.SKU, combo.ID)
					if err != nil {
						return nil, err
					}
				} else {
					weight = combo.EffectiveWeight(p.Weight)
				}
				name := p.Name
				if combo.Name != nil {
					name = fmt.Sprintf("%s - %s", p.Name, *combo.Name)
				}
				items = append(items, dto.AvailableItem{
					SKU:       composition.VariationRefKey(p.SKU, combo.ID),
					Name:      name,
					Type:      "variation",
					ParentSKU: p.SKU,
					Weight:    weight,
				})
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	if uc.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			uc.cache.Client.Set(ctx, availableItemsCacheKey, data, 5*time.Minute)
		}
	}
	return items, nil
}

func (uc *compositionUseCase) InvalidateAvailableItems(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Client.Del(ctx, availableItemsCacheKey).Err(); err != nil {
		uc.logger.Warn("failed to invalidate available-items cache", zap.Error(err))
	}
}

// --- Composite-variation composition management ---

func (uc *compositionUseCase) CreateCompositeVariationComposition(ctx context.Context, productSKU, variationID string, items []dto.ItemInput) ([]model.CompositionItem, error) {
	if _, err := uc.requireCompositeVariation(ctx, productSKU, variationID); err != nil {
		return nil, err
	}

	parentKey := composition.VariationScope(productSKU, variationID).Key()

	// All-or-nothing: every row is validated before the first create so a
	// failing row cannot leave a partial composition behind.
	if err := uc.validateItemRows(ctx, parentKey, items); err != nil {
		return nil, err
	}

	now := time.Now()
	created := make([]*model.CompositionItem, 0, len(items))
	for _, row := range items {
		created = append(created, &model.CompositionItem{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ParentKey: parentKey,
			ChildSKU:  row.ChildSKU,
			Quantity:  row.Quantity,
		})
	}
	if err := uc.repo.CreateBatch(ctx, created); err != nil {
		return nil, apperr.NewStorage("composition.createBatch", err)
	}

	go uc.InvalidateAvailableItems(context.Background())

	out := make([]model.CompositionItem, len(created))
	for i, item := range created {
		out[i] = *item
	}
	return out, nil
}

func (uc *compositionUseCase) UpdateCompositeVariationComposition(ctx context.Context, productSKU, variationID string, items []dto.ItemInput) ([]model.CompositionItem, error) {
	if _, err := uc.requireCompositeVariation(ctx, productSKU, variationID); err != nil {
		return nil, err
	}

	parentKey := composition.VariationScope(productSKU, variationID).Key()
	if err := uc.validateItemRows(ctx, parentKey, items); err != nil {
		return nil, err
	}

	// Full replace: drop the old subtree, then recreate.
	if err := uc.repo.DeleteByParent(ctx, parentKey); err != nil {
		return nil, apperr.NewStorage("composition.deleteByParent", err)
	}
	return uc.CreateCompositeVariationComposition(ctx, productSKU, variationID, items)
}

// validateItemRows runs eligibility, quantity, self/cycle and in-batch
// duplicate checks on every row before anything is written.
func (uc *compositionUseCase) validateItemRows(ctx context.Context, parentKey string, items []dto.ItemInput) error {
	if len(items) == 0 {
		return apperr.NewValidation("items", "at least one composition item is required")
	}
	seen := map[string]bool{}
	parentBase := composition.ParseScope(parentKey).ProductSKU
	for _, row := range items {
		if row.Quantity <= 0 {
			return apperr.NewValidation("quantity",
				fmt.Sprintf("quantity for '%s' must be a positive integer", row.ChildSKU))
		}
		if seen[row.ChildSKU] {
			return apperr.NewConflict(fmt.Sprintf("duplicate child '%s' in composition", row.ChildSKU))
		}
		seen[row.ChildSKU] = true

		if err := uc.ValidateChildEligibility(ctx, row.ChildSKU); err != nil {
			return err
		}
		ref := composition.ParseChildRef(row.ChildSKU)
		if ref.ProductSKU == parentBase {
			return apperr.NewBusinessRule("self_composition_rule",
				fmt.Sprintf("product '%s' cannot contain itself", parentBase))
		}
		circular, err := uc.HasCircularDependency(ctx, parentKey, row.ChildSKU)
		if err != nil {
			return err
		}
		if circular {
			return apperr.NewBusinessRule("circular_dependency_rule",
				fmt.Sprintf("adding '%s' to '%s' would create a circular dependency", row.ChildSKU, parentKey))
		}
	}
	return nil
}

func (uc *compositionUseCase) requireCompositeVariation(ctx context.Context, productSKU, variationID string) (*model.ProductVariationItem, error) {
	p, err := uc.products.FindBySKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewNotFound("product", productSKU)
	}
	if !p.IsComposite || !p.HasVariation {
		return nil, apperr.NewBusinessRule("composite_variation_rule",
			fmt.Sprintf("product '%s' is not a composite product with variations", productSKU))
	}
	varItem, err := uc.varItems.FindByID(ctx, variationID)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.find", err)
	}
	if varItem == nil {
		return nil, apperr.NewNotFound("variation", variationID)
	}
	if varItem.ProductSKU != productSKU {
		return nil, apperr.NewBusinessRule("variation_ownership_rule",
			fmt.Sprintf("variation '%s' belongs to product '%s', not '%s'",
				variationID, varItem.ProductSKU, productSKU))
	}
	return varItem, nil
}

func (uc *compositionUseCase) CalculateCompositeVariationWeight(ctx context.Context, productSKU, variationID string) (float64, error) {
	varItem, err := uc.varItems.FindByID(ctx, variationID)
	if err != nil {
		return 0, apperr.NewStorage("variationItem.find", err)
	}
	if varItem == nil {
		return 0, apperr.NewNotFound("variation", variationID)
	}

	// An explicit override wins only when it stems from a weight-modifying
	// variation type; otherwise the composition carries the weight.
	if varItem.WeightOverride != nil {
		modifies, err := uc.selectionModifiesWeight(ctx, varItem.Selections)
		if err != nil {
			return 0, err
		}
		if modifies {
			return *varItem.WeightOverride, nil
		}
	}
	return uc.CalculateCompositeWeight(ctx, composition.VariationScope(productSKU, variationID).Key())
}

func (uc *compositionUseCase) selectionModifiesWeight(ctx context.Context, selections model.SelectionMap) (bool, error) {
	for typeID := range selections {
		vt, err := uc.varTypes.FindByID(ctx, typeID)
		if err != nil {
			return false, apperr.NewStorage("variationType.find", err)
		}
		if vt != nil && vt.ModifiesWeight {
			return true, nil
		}
	}
	return false, nil
}

func (uc *compositionUseCase) ValidateCompositeVariationUniqueness(ctx context.Context, productSKU string, selections model.SelectionMap, excludeVariationID string) error {
	// Composite-variation combinations may all carry empty placeholder
	// selections; only non-empty selection sets are compared.
	if len(selections) == 0 {
		return nil
	}
	existing, err := uc.varItems.FindByProductSKU(ctx, productSKU)
	if err != nil {
		return apperr.NewStorage("variationItem.findByProduct", err)
	}
	for _, item := range existing {
		if item.ID == excludeVariationID {
			continue
		}
		if item.Selections.Equals(selections) {
			return apperr.NewConflict(
				fmt.Sprintf("a variation of '%s' with the same selections already exists", productSKU))
		}
	}
	return nil
}

func (uc *compositionUseCase) ValidateCompositeVariationCompleteness(ctx context.Context, productSKU, variationID string) (*dto.CompletenessResult, error) {
	parentKey := composition.VariationScope(productSKU, variationID).Key()
	items, err := uc.repo.FindByParent(ctx, parentKey)
	if err != nil {
		return nil, apperr.NewStorage("composition.findByParent", err)
	}

	result := &dto.CompletenessResult{Complete: true, Errors: []string{}, InvalidItems: []string{}}
	if len(items) == 0 {
		result.Complete = false
		result.Errors = append(result.Errors, "at least one composition item is required")
		return result, nil
	}
	for _, item := range items {
		if err := uc.ValidateChildEligibility(ctx, item.ChildSKU); err != nil {
			result.Complete = false
			result.InvalidItems = append(result.InvalidItems, item.ChildSKU)
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return result, nil
}

func (uc *compositionUseCase) GetCompositeVariationsWithComposition(ctx context.Context, productSKU string) ([]dto.VariationComposition, error) {
	p, err := uc.products.FindBySKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil || !p.IsComposite || !p.HasVariation {
		return []dto.VariationComposition{}, nil
	}

	combos, err := uc.varItems.FindByProductSKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.findByProduct", err)
	}

	out := make([]dto.VariationComposition, 0, len(combos))
	for _, combo := range combos {
		items, err := uc.repo.FindByParent(ctx, composition.VariationScope(productSKU, combo.ID).Key())
		if err != nil {
			return nil, apperr.NewStorage("composition.findByParent", err)
		}
		weight, err := uc.CalculateCompositeVariationWeight(ctx, productSKU, combo.ID)
		if err != nil {
			return nil, err
		}
		completeness, err := uc.ValidateCompositeVariationCompleteness(ctx, productSKU, combo.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.VariationComposition{
			Variation:   combo,
			Items:       items,
			TotalWeight: weight,
			Complete:    completeness.Complete,
		})
	}
	return out, nil
}

// --- Audit surface ---

func (uc *compositionUseCase) ValidateIntegrity(ctx context.Context) (*model.IntegrityReport, error) {
	products, _, err := uc.products.FindAll(ctx, &productdto.ProductFilters{})
	if err != nil {
		return nil, apperr.NewStorage("product.findAll", err)
	}
	skus := make([]string, 0, len(products))
	for _, p := range products {
		skus = append(skus, p.SKU)
	}
	return uc.repo.ValidateIntegrity(ctx, skus)
}

func (uc *compositionUseCase) GetStats(ctx context.Context) (*model.CompositionStats, error) {
	return uc.repo.GetCompositionStats(ctx)
}
