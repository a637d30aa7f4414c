package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnikit/catalog-composition-service/internal/composition"
	compRepo "github.com/omnikit/catalog-composition-service/internal/composition/repository"
	"github.com/omnikit/catalog-composition-service/internal/migration"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/product"
	"github.com/omnikit/catalog-composition-service/internal/product/dto"
	prodRepo "github.com/omnikit/catalog-composition-service/internal/product/repository"
	prodUC "github.com/omnikit/catalog-composition-service/internal/product/usecase"
	varRepo "github.com/omnikit/catalog-composition-service/internal/variation/repository"
)

// invalidationSpy records calls to the available-items invalidator; the
// remaining composition methods are never reached from the product usecase.
type invalidationSpy struct {
	composition.UseCase
	calls atomic.Int32
}

func (s *invalidationSpy) InvalidateAvailableItems(ctx context.Context) { s.calls.Add(1) }

type fixture struct {
	uc       product.UseCase
	repo     *prodRepo.MemoryRepository
	items    *compRepo.MemoryRepository
	varItems *varRepo.MemoryItemRepository
	compUC   *invalidationSpy
}

func newFixture() *fixture {
	f := &fixture{
		repo:     prodRepo.NewMemoryRepository(),
		items:    compRepo.NewMemoryRepository(),
		varItems: varRepo.NewMemoryItemRepository(),
		compUC:   &invalidationSpy{},
	}
	f.uc = prodUC.NewProductUseCase(f.repo, f.items, f.varItems, f.compUC, nil, nil, nil, logger.NewNop())
	return f
}

func fptr(v float64) *float64 { return &v }

func TestCreateProduct_Simple(t *testing.T) {
	f := newFixture()
	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU: "CHAIR-001", Name: "Chair", Weight: fptr(4.0),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "CHAIR-001", p.SKU)
	assert.True(t, p.IsActive)
}

func TestCreateProduct_RejectsBadSKU(t *testing.T) {
	f := newFixture()
	for _, sku := range []string{"", "chair-001", "CHAIR 001", "CHAIR_001", "CHAIR#1"} {
		_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: sku, Name: "Chair"})
		assert.Error(t, err, "sku %q", sku)
	}
}

func TestCreateProduct_CompositeMustNotCarryWeight(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU: "SET-001", Name: "Set", Weight: fptr(10.0), IsComposite: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "derived from the composition")
}

func TestCreateProduct_DuplicateSKURejected(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "CHAIR-001", Name: "Chair"})
	require.NoError(t, err)

	_, err = f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "CHAIR-001", Name: "Other Chair"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateProduct_DuplicateNameCaseInsensitive(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "CHAIR-001", Name: "Dining Chair"})
	require.NoError(t, err)

	_, err = f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "CHAIR-002", Name: "  dining chair "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestDeleteProduct_BlockedWhileReferenced(t *testing.T) {
	f := newFixture()
	leg, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "LEG-001", Name: "Leg", Weight: fptr(2.0)})
	require.NoError(t, err)

	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "TABLE-001", ChildSKU: "LEG-001", Quantity: 4,
	}))

	err = f.uc.DeleteProduct(context.Background(), leg.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used in 1 composition(s)")
}

func TestDeleteProduct_BlockedWhileReferencedViaVariation(t *testing.T) {
	f := newFixture()
	shirt, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU: "SHIRT-001", Name: "Shirt", Weight: fptr(0.3), HasVariation: true,
	})
	require.NoError(t, err)

	combo := &model.ProductVariationItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()}, ProductSKU: "SHIRT-001",
		Selections: model.SelectionMap{"size": "m"},
	}
	require.NoError(t, f.varItems.Create(context.Background(), combo))
	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "KIT-001", ChildSKU: composition.VariationRefKey("SHIRT-001", combo.ID), Quantity: 1,
	}))

	err = f.uc.DeleteProduct(context.Background(), shirt.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used in 1 composition(s)")
}

func TestDeleteProduct_BlockedWhileOwningComposition(t *testing.T) {
	f := newFixture()
	set, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "SET-001", Name: "Set", IsComposite: true})
	require.NoError(t, err)

	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "SET-001", ChildSKU: "LEG-001", Quantity: 4,
	}))

	err = f.uc.DeleteProduct(context.Background(), set.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 1 composition item(s)")
}

func TestDeleteProduct_BlockedWhileVariationsExist(t *testing.T) {
	f := newFixture()
	shirt, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU: "SHIRT-001", Name: "Shirt", Weight: fptr(0.3), HasVariation: true,
	})
	require.NoError(t, err)
	require.NoError(t, f.varItems.Create(context.Background(), &model.ProductVariationItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()}, ProductSKU: "SHIRT-001",
		Selections: model.SelectionMap{"size": "m"},
	}))

	err = f.uc.DeleteProduct(context.Background(), shirt.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 1 variation(s)")
}

func TestDeleteProduct_CleanProductGoes(t *testing.T) {
	f := newFixture()
	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "LONE-001", Name: "Lone"})
	require.NoError(t, err)
	require.NoError(t, f.uc.DeleteProduct(context.Background(), p.ID))

	gone, err := f.repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func transition(current model.Product, proposed dto.UpdateProductInput) (*dto.StateTransitionResult, error) {
	f := newFixture()
	return f.uc.ValidateStateTransition(context.Background(), &current, &proposed)
}

func TestValidateStateTransition_DecisionTable(t *testing.T) {
	cases := []struct {
		name     string
		current  model.Product
		proposed dto.UpdateProductInput
		want     string
	}{
		{
			name:     "plain composite gains variations",
			current:  model.Product{SKU: "A-001", IsComposite: true},
			proposed: dto.UpdateProductInput{SKU: "A-001", Name: "A", IsComposite: true, HasVariation: true},
			want:     migration.KindEnableVariations,
		},
		{
			name:     "composite turned off",
			current:  model.Product{SKU: "A-001", IsComposite: true},
			proposed: dto.UpdateProductInput{SKU: "A-001", Name: "A"},
			want:     migration.KindDisableComposite,
		},
		{
			name:     "composite variable drops variations",
			current:  model.Product{SKU: "A-001", IsComposite: true, HasVariation: true},
			proposed: dto.UpdateProductInput{SKU: "A-001", Name: "A", IsComposite: true},
			want:     migration.KindDisableVariations,
		},
		{
			name:     "plain product becomes composite",
			current:  model.Product{SKU: "A-001"},
			proposed: dto.UpdateProductInput{SKU: "A-001", Name: "A", IsComposite: true},
			want:     migration.KindEnableComposite,
		},
		{
			name:     "no structural change",
			current:  model.Product{SKU: "A-001"},
			proposed: dto.UpdateProductInput{SKU: "A-001", Name: "A"},
			want:     migration.KindNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := transition(tc.current, tc.proposed)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.RequiredMigration)
		})
	}
}

func TestValidateStateTransition_DisablingCompositeWarnsAboutItems(t *testing.T) {
	f := newFixture()
	current := model.Product{BaseModel: model.BaseModel{ID: uuid.New().String()}, SKU: "SET-001", IsComposite: true}
	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "SET-001", ChildSKU: "LEG-001", Quantity: 4,
	}))

	result, err := f.uc.ValidateStateTransition(context.Background(), &current,
		&dto.UpdateProductInput{SKU: "SET-001", Name: "Set"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, migration.KindDisableComposite, result.RequiredMigration)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "permanently delete 1 composition item(s)")
}

func TestValidateStateTransition_BecomingCompositeWithWeightInvalid(t *testing.T) {
	result, err := transition(
		model.Product{SKU: "A-001"},
		dto.UpdateProductInput{SKU: "A-001", Name: "A", IsComposite: true, Weight: fptr(3.0)},
	)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "derived from the composition")
}

func TestUpdateProduct_SKUChangeBlockedWhileReferenced(t *testing.T) {
	f := newFixture()
	leg, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "LEG-001", Name: "Leg", Weight: fptr(2.0)})
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "TABLE-001", ChildSKU: "LEG-001", Quantity: 4,
	}))

	_, err = f.uc.UpdateProduct(context.Background(), leg.ID,
		&dto.UpdateProductInput{SKU: "LEG-002", Name: "Leg", Weight: fptr(2.0), IsActive: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot change the SKU")
}

func TestUpdateProduct_SKUChangeBlockedWhileOwningComposition(t *testing.T) {
	f := newFixture()
	set, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "SET-001", Name: "Set", IsComposite: true})
	require.NoError(t, err)
	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: "SET-001", ChildSKU: "LEG-001", Quantity: 4,
	}))

	_, err = f.uc.UpdateProduct(context.Background(), set.ID,
		&dto.UpdateProductInput{SKU: "SET-002", Name: "Set", IsComposite: true, IsActive: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot change the SKU")
}

func TestUpdateProduct_SKUChangeAllowedWhenUnreferenced(t *testing.T) {
	f := newFixture()
	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "LONE-001", Name: "Lone"})
	require.NoError(t, err)

	updated, err := f.uc.UpdateProduct(context.Background(), p.ID,
		&dto.UpdateProductInput{SKU: "LONE-002", Name: "Lone", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "LONE-002", updated.SKU)
}

func TestProductWrites_DropAvailableItemsListing(t *testing.T) {
	f := newFixture()
	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "CHAIR-001", Name: "Chair", Weight: fptr(4.0)})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.compUC.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.uc.DeleteProduct(context.Background(), p.ID))
	require.Eventually(t, func() bool { return f.compUC.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
