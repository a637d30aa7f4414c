package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/composition/dto"
	compRepo "github.com/omnikit/catalog-composition-service/internal/composition/repository"
	compUC "github.com/omnikit/catalog-composition-service/internal/composition/usecase"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	prodRepo "github.com/omnikit/catalog-composition-service/internal/product/repository"
	varRepo "github.com/omnikit/catalog-composition-service/internal/variation/repository"
)

type fixture struct {
	uc       composition.UseCase
	items    *compRepo.MemoryRepository
	products *prodRepo.MemoryRepository
	varItems *varRepo.MemoryItemRepository
	varTypes *varRepo.MemoryTypeRepository
}

func newFixture() *fixture {
	f := &fixture{
		items:    compRepo.NewMemoryRepository(),
		products: prodRepo.NewMemoryRepository(),
		varItems: varRepo.NewMemoryItemRepository(),
		varTypes: varRepo.NewMemoryTypeRepository(),
	}
	f.uc = compUC.NewCompositionUseCase(f.items, f.products, f.varItems, f.varTypes, nil, logger.NewNop())
	return f
}

func (f *fixture) addProduct(t *testing.T, sku, name string, weight *float64, isComposite, hasVariation bool) *model.Product {
	t.Helper()
	p := &model.Product{
		BaseModel:    model.BaseModel{ID: uuid.New().String()},
		SKU:          sku,
		Name:         name,
		Weight:       weight,
		IsComposite:  isComposite,
		HasVariation: hasVariation,
		IsActive:     true,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) addItem(t *testing.T, parentKey, childSKU string, quantity int) *model.CompositionItem {
	t.Helper()
	item := &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: parentKey,
		ChildSKU:  childSKU,
		Quantity:  quantity,
	}
	require.NoError(t, f.items.Create(context.Background(), item))
	return item
}

func (f *fixture) addVariationItem(t *testing.T, sku, name string, selections model.SelectionMap, override *float64) *model.ProductVariationItem {
	t.Helper()
	item := &model.ProductVariationItem{
		BaseModel:      model.BaseModel{ID: uuid.New().String()},
		ProductSKU:     sku,
		Selections:     selections,
		WeightOverride: override,
	}
	if name != "" {
		item.Name = &name
	}
	require.NoError(t, f.varItems.Create(context.Background(), item))
	return item
}

func fptr(v float64) *float64 { return &v }

// diningSet builds a two-level composition: a dining set of one table
// (itself composite) and four chairs.
func diningSet(t *testing.T, f *fixture) {
	t.Helper()
	f.addProduct(t, "TOP-001", "Table Top", fptr(12.0), false, false)
	f.addProduct(t, "LEG-001", "Table Leg", fptr(2.0), false, false)
	f.addProduct(t, "CHAIR-001", "Chair", fptr(4.0), false, false)
	f.addProduct(t, "TABLE-001", "Table", nil, true, false)
	f.addProduct(t, "DINING-SET-001", "Dining Set", nil, true, false)

	f.addItem(t, "TABLE-001", "TOP-001", 1)
	f.addItem(t, "TABLE-001", "LEG-001", 4)
	f.addItem(t, "DINING-SET-001", "TABLE-001", 1)
	f.addItem(t, "DINING-SET-001", "CHAIR-001", 4)
}

func TestCalculateCompositeWeight_NestedComposition(t *testing.T) {
	f := newFixture()
	diningSet(t, f)

	table, err := f.uc.CalculateCompositeWeight(context.Background(), "TABLE-001")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, table, 1e-9) // 1x12 + 4x2

	set, err := f.uc.CalculateCompositeWeight(context.Background(), "DINING-SET-001")
	require.NoError(t, err)
	assert.InDelta(t, 36.0, set, 1e-9) // 20 + 4x4
}

func TestCalculateCompositeWeight_SharedSubassemblyCountsPerBranch(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "PART-001", "Part", fptr(5.0), false, false)
	f.addProduct(t, "SUB-001", "Subassembly", nil, true, false)
	f.addProduct(t, "LEFT-001", "Left Arm", nil, true, false)
	f.addProduct(t, "RIGHT-001", "Right Arm", nil, true, false)
	f.addProduct(t, "SET-001", "Set", nil, true, false)

	// Diamond: both arms contain the same subassembly.
	f.addItem(t, "SUB-001", "PART-001", 1)
	f.addItem(t, "LEFT-001", "SUB-001", 1)
	f.addItem(t, "RIGHT-001", "SUB-001", 1)
	f.addItem(t, "SET-001", "LEFT-001", 1)
	f.addItem(t, "SET-001", "RIGHT-001", 1)

	weight, err := f.uc.CalculateCompositeWeight(context.Background(), "SET-001")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, weight, 1e-9)
}

func TestCalculateCompositeWeight_DanglingChildContributesZero(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "KIT-001", "Kit", nil, true, false)
	f.addItem(t, "KIT-001", "GHOST-001", 3)

	weight, err := f.uc.CalculateCompositeWeight(context.Background(), "KIT-001")
	require.NoError(t, err)
	assert.Zero(t, weight)
}

func TestCalculateCompositeWeight_VariationOverrideWins(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "KIT-001", "Kit", nil, true, false)
	f.addProduct(t, "SHIRT-001", "Shirt", fptr(0.3), false, true)
	combo := f.addVariationItem(t, "SHIRT-001", "XL", model.SelectionMap{"size": "xl"}, fptr(0.5))

	f.addItem(t, "KIT-001", composition.VariationRefKey("SHIRT-001", combo.ID), 2)

	weight, err := f.uc.CalculateCompositeWeight(context.Background(), "KIT-001")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, weight, 1e-9)
}

func TestCalculateCompositeWeight_VariationFallsBackToBaseWeight(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "KIT-001", "Kit", nil, true, false)
	f.addProduct(t, "SHIRT-001", "Shirt", fptr(0.3), false, true)
	combo := f.addVariationItem(t, "SHIRT-001", "M", model.SelectionMap{"size": "m"}, nil)

	f.addItem(t, "KIT-001", composition.VariationRefKey("SHIRT-001", combo.ID), 2)

	weight, err := f.uc.CalculateCompositeWeight(context.Background(), "KIT-001")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, weight, 1e-9)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture()
	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{ParentKey: "A", ChildSKU: "B", Quantity: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

func TestAddItem_RejectsLegacyChildFormat(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SET-001", "Set", nil, true, false)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "SET-001", ChildSKU: "SHIRT-001:var-1", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy format not supported")
}

func TestAddItem_RejectsVariableProductAsDirectChild(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SET-001", "Set", nil, true, false)
	f.addProduct(t, "SHIRT-001", "Shirt", fptr(0.3), false, true)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "SET-001", ChildSKU: "SHIRT-001", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has variations")
}

func TestAddItem_RejectsSelfComposition(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SET-001", "Set", nil, true, false)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "SET-001", ChildSKU: "SET-001", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot contain itself")
}

func TestAddItem_RejectsCircularDependency(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "A-001", "A", nil, true, false)
	f.addProduct(t, "B-001", "B", nil, true, false)
	f.addItem(t, "A-001", "B-001", 1)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "B-001", ChildSKU: "A-001", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestAddItem_RejectsDuplicateDirectChild(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SET-001", "Set", nil, true, false)
	f.addProduct(t, "LEG-001", "Leg", fptr(2.0), false, false)
	f.addItem(t, "SET-001", "LEG-001", 2)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "SET-001", ChildSKU: "LEG-001", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already a direct child")
}

func TestAddItem_RejectsNonCompositeParent(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "PLAIN-001", "Plain", fptr(1.0), false, false)
	f.addProduct(t, "LEG-001", "Leg", fptr(2.0), false, false)

	_, err := f.uc.AddItem(context.Background(), &dto.AddItemInput{
		ParentKey: "PLAIN-001", ChildSKU: "LEG-001", Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not composite")
}

func TestGetCompositionTree_WeightsPropagateUp(t *testing.T) {
	f := newFixture()
	diningSet(t, f)

	tree, err := f.uc.GetCompositionTree(context.Background(), "DINING-SET-001")
	require.NoError(t, err)
	assert.Equal(t, "DINING-SET-001", tree.SKU)
	assert.InDelta(t, 36.0, tree.CalculatedWeight, 1e-9)
	require.Len(t, tree.Children, 2)

	byName := map[string]float64{}
	for _, child := range tree.Children {
		byName[child.SKU] = child.CalculatedWeight
	}
	assert.InDelta(t, 20.0, byName["TABLE-001"], 1e-9)
	assert.InDelta(t, 4.0, byName["CHAIR-001"], 1e-9)
}

func TestGetCompositionTree_DepthLimit(t *testing.T) {
	f := newFixture()
	// A strict chain of 12 composites exceeds the depth bound.
	skus := make([]string, 12)
	for i := range skus {
		skus[i] = uuid.New().String()[:8]
		f.addProduct(t, skus[i], "Level", nil, true, false)
	}
	for i := 0; i < len(skus)-1; i++ {
		f.addItem(t, skus[i], skus[i+1], 1)
	}

	_, err := f.uc.GetCompositionTree(context.Background(), skus[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestHasCircularDependency_SeesThroughVariationScopes(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addProduct(t, "PART-001", "Part", fptr(1.0), false, false)
	f.addProduct(t, "OUTER-001", "Outer", nil, true, false)
	combo := f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)

	// OUTER contains a variation of CV; CV's scoped subtree must not be
	// allowed to contain OUTER.
	f.addItem(t, "OUTER-001", composition.VariationRefKey("CV-001", combo.ID), 1)
	f.addItem(t, composition.VariationScope("CV-001", combo.ID).Key(), "PART-001", 1)

	circular, err := f.uc.HasCircularDependency(context.Background(),
		composition.VariationScope("CV-001", combo.ID).Key(), "OUTER-001")
	require.NoError(t, err)
	assert.True(t, circular)
}

func TestGetAvailableItems_VariableProductsExposedPerCombination(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "PLAIN-001", "Plain", fptr(1.5), false, false)
	f.addProduct(t, "SHIRT-001", "Shirt", fptr(0.3), false, true)
	f.addVariationItem(t, "SHIRT-001", "M", model.SelectionMap{"size": "m"}, nil)
	f.addVariationItem(t, "SHIRT-001", "XL", model.SelectionMap{"size": "xl"}, fptr(0.5))

	items, err := f.uc.GetAvailableItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	var variations, simple int
	for _, item := range items {
		switch item.Type {
		case "variation":
			variations++
			assert.Equal(t, "SHIRT-001", item.ParentSKU)
			assert.Contains(t, item.SKU, "#")
		case "simple":
			simple++
			assert.Equal(t, "PLAIN-001", item.SKU)
		}
	}
	assert.Equal(t, 2, variations)
	assert.Equal(t, 1, simple)
}

func TestCreateCompositeVariationComposition_AllOrNothing(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addProduct(t, "PART-001", "Part", fptr(1.0), false, false)
	combo := f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)

	_, err := f.uc.CreateCompositeVariationComposition(context.Background(), "CV-001", combo.ID, []dto.ItemInput{
		{ChildSKU: "PART-001", Quantity: 2},
		{ChildSKU: "MISSING-001", Quantity: 1},
	})
	require.Error(t, err)

	// Nothing was written for the failing batch.
	left, err := f.items.FindByParent(context.Background(), composition.VariationScope("CV-001", combo.ID).Key())
	require.NoError(t, err)
	assert.Empty(t, left)

	created, err := f.uc.CreateCompositeVariationComposition(context.Background(), "CV-001", combo.ID, []dto.ItemInput{
		{ChildSKU: "PART-001", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestUpdateCompositeVariationComposition_ReplacesSubtree(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addProduct(t, "PART-001", "Part", fptr(1.0), false, false)
	f.addProduct(t, "PART-002", "Other Part", fptr(2.0), false, false)
	combo := f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)

	_, err := f.uc.CreateCompositeVariationComposition(context.Background(), "CV-001", combo.ID, []dto.ItemInput{
		{ChildSKU: "PART-001", Quantity: 1},
	})
	require.NoError(t, err)

	updated, err := f.uc.UpdateCompositeVariationComposition(context.Background(), "CV-001", combo.ID, []dto.ItemInput{
		{ChildSKU: "PART-002", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "PART-002", updated[0].ChildSKU)

	weight, err := f.uc.CalculateCompositeVariationWeight(context.Background(), "CV-001", combo.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, weight, 1e-9)
}

func TestCalculateCompositeVariationWeight_OverrideNeedsWeightModifyingType(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addProduct(t, "PART-001", "Part", fptr(1.0), false, false)

	vt := &model.VariationType{
		BaseModel:      model.BaseModel{ID: uuid.New().String()},
		Name:           "Material",
		ModifiesWeight: true,
	}
	require.NoError(t, f.varTypes.Create(context.Background(), vt))

	combo := f.addVariationItem(t, "CV-001", "Steel", model.SelectionMap{vt.ID: "steel"}, fptr(9.5))
	f.addItem(t, composition.VariationScope("CV-001", combo.ID).Key(), "PART-001", 4)

	weight, err := f.uc.CalculateCompositeVariationWeight(context.Background(), "CV-001", combo.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, weight, 1e-9)

	// Without a weight-modifying type behind it, the override is ignored and
	// the subtree wins.
	plain := f.addVariationItem(t, "CV-001", "Plain", model.SelectionMap{"unknown-type": "x"}, fptr(9.5))
	f.addItem(t, composition.VariationScope("CV-001", plain.ID).Key(), "PART-001", 4)

	weight, err = f.uc.CalculateCompositeVariationWeight(context.Background(), "CV-001", plain.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, weight, 1e-9)
}

func TestValidateCompositeVariationUniqueness_EmptySelectionsExempt(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)
	f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)

	err := f.uc.ValidateCompositeVariationUniqueness(context.Background(), "CV-001", model.SelectionMap{}, "")
	assert.NoError(t, err)
}

func TestValidateCompositeVariationUniqueness_DuplicateSelectionsRejected(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", "Shirt", fptr(0.3), false, true)
	f.addVariationItem(t, "SHIRT-001", "M Red", model.SelectionMap{"size": "m", "color": "red"}, nil)

	err := f.uc.ValidateCompositeVariationUniqueness(context.Background(), "SHIRT-001",
		model.SelectionMap{"color": "red", "size": "m"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same selections")
}

func TestValidateCompositeVariationCompleteness(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", "Composite Variable", nil, true, true)
	f.addProduct(t, "PART-001", "Part", fptr(1.0), false, false)
	combo := f.addVariationItem(t, "CV-001", "", model.SelectionMap{}, nil)

	empty, err := f.uc.ValidateCompositeVariationCompleteness(context.Background(), "CV-001", combo.ID)
	require.NoError(t, err)
	assert.False(t, empty.Complete)

	key := composition.VariationScope("CV-001", combo.ID).Key()
	f.addItem(t, key, "PART-001", 1)
	f.addItem(t, key, "GONE-001", 2)

	result, err := f.uc.ValidateCompositeVariationCompleteness(context.Background(), "CV-001", combo.ID)
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, []string{"GONE-001"}, result.InvalidItems)

	require.NoError(t, f.items.DeleteByChild(context.Background(), "GONE-001"))
	result, err = f.uc.ValidateCompositeVariationCompleteness(context.Background(), "CV-001", combo.ID)
	require.NoError(t, err)
	assert.True(t, result.Complete)
}

func TestValidateIntegrity_FlagsOrphansAndMissingChildren(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SET-001", "Set", nil, true, false)
	f.addProduct(t, "LEG-001", "Leg", fptr(2.0), false, false)
	f.addItem(t, "SET-001", "LEG-001", 4)
	f.addItem(t, "SET-001", "GONE-001", 1)
	f.addItem(t, "NOBODY-001", "LEG-001", 1)

	report, err := f.uc.ValidateIntegrity(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Len(t, report.OrphanedItems, 1)
	assert.Equal(t, []string{"GONE-001"}, report.MissingChildren)
}
