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
	compUCPkg "github.com/omnikit/catalog-composition-service/internal/composition/usecase"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	prodRepo "github.com/omnikit/catalog-composition-service/internal/product/repository"
	"github.com/omnikit/catalog-composition-service/internal/variation"
	"github.com/omnikit/catalog-composition-service/internal/variation/dto"
	varRepo "github.com/omnikit/catalog-composition-service/internal/variation/repository"
	varUCPkg "github.com/omnikit/catalog-composition-service/internal/variation/usecase"
)

// invalidationSpy wraps the real composition usecase and counts calls to
// the available-items invalidator; everything else delegates.
type invalidationSpy struct {
	composition.UseCase
	calls atomic.Int32
}

func (s *invalidationSpy) InvalidateAvailableItems(ctx context.Context) { s.calls.Add(1) }

type fixture struct {
	uc       variation.UseCase
	products *prodRepo.MemoryRepository
	items    *compRepo.MemoryRepository
	varItems *varRepo.MemoryItemRepository
	compUC   *invalidationSpy
}

func newFixture() *fixture {
	f := &fixture{
		products: prodRepo.NewMemoryRepository(),
		items:    compRepo.NewMemoryRepository(),
		varItems: varRepo.NewMemoryItemRepository(),
	}
	types := varRepo.NewMemoryTypeRepository()
	variations := varRepo.NewMemoryVariationRepository()
	f.compUC = &invalidationSpy{
		UseCase: compUCPkg.NewCompositionUseCase(f.items, f.products, f.varItems, types, nil, logger.NewNop()),
	}
	f.uc = varUCPkg.NewVariationUseCase(types, variations, f.varItems, f.products, f.items, f.compUC, logger.NewNop())
	return f
}

func (f *fixture) addProduct(t *testing.T, sku string, hasVariation bool) {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), &model.Product{
		BaseModel:    model.BaseModel{ID: uuid.New().String()},
		SKU:          sku,
		Name:         sku,
		HasVariation: hasVariation,
		IsActive:     true,
	}))
}

func TestCreateVariationType_NameMustBeUnique(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "Color"})
	require.NoError(t, err)

	_, err = f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "color"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestDeleteVariationType_BlockedWhileVariationsExist(t *testing.T) {
	f := newFixture()
	vt, err := f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "Color"})
	require.NoError(t, err)

	for _, name := range []string{"Red", "Green", "Blue"} {
		_, err := f.uc.CreateVariation(context.Background(), &dto.CreateVariationInput{
			VariationTypeID: vt.ID, Name: name,
		})
		require.NoError(t, err)
	}

	err = f.uc.DeleteVariationType(context.Background(), vt.ID)
	require.Error(t, err)
	assert.Equal(t,
		"Cannot delete variation type 'Color' because it has 3 variation(s) associated with it. Please delete all variations first.",
		err.Error())
}

func TestDeleteVariationType_EmptyTypeGoes(t *testing.T) {
	f := newFixture()
	vt, err := f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "Color"})
	require.NoError(t, err)
	require.NoError(t, f.uc.DeleteVariationType(context.Background(), vt.ID))

	types, err := f.uc.ListVariationTypes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestCreateVariation_NameUniquePerType(t *testing.T) {
	f := newFixture()
	color, err := f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "Color"})
	require.NoError(t, err)
	size, err := f.uc.CreateVariationType(context.Background(), &dto.CreateVariationTypeInput{Name: "Size"})
	require.NoError(t, err)

	_, err = f.uc.CreateVariation(context.Background(), &dto.CreateVariationInput{VariationTypeID: color.ID, Name: "Large"})
	require.NoError(t, err)

	// Same name under the same type is rejected, case-insensitively.
	_, err = f.uc.CreateVariation(context.Background(), &dto.CreateVariationInput{VariationTypeID: color.ID, Name: "large"})
	require.Error(t, err)

	// The same name under a different type is fine.
	_, err = f.uc.CreateVariation(context.Background(), &dto.CreateVariationInput{VariationTypeID: size.ID, Name: "Large"})
	assert.NoError(t, err)
}

func TestCreateVariationItem_RequiresVariationFlag(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "PLAIN-001", false)

	_, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "PLAIN-001",
		Selections: model.SelectionMap{"size": "m"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured for variations")
}

func TestCreateVariationItem_DuplicateSelectionsRejected(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", true)

	_, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001",
		Selections: model.SelectionMap{"size": "m", "color": "red"},
	})
	require.NoError(t, err)

	_, err = f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001",
		Selections: model.SelectionMap{"color": "red", "size": "m"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same selections")
}

func TestCreateVariationItem_RejectsNonPositiveOverride(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", true)

	bad := -1.0
	_, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU:     "SHIRT-001",
		Selections:     model.SelectionMap{"size": "m"},
		WeightOverride: &bad,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

func TestDeleteVariationItem_LastVariationBlocked(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", true)

	only, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001",
		Selections: model.SelectionMap{"size": "m"},
	})
	require.NoError(t, err)

	err = f.uc.DeleteVariationItem(context.Background(), only.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last variation")
}

func TestDeleteVariationItem_TakesScopedCompositionAlong(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "CV-001", true)

	first, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "CV-001", Selections: model.SelectionMap{"finish": "oak"},
	})
	require.NoError(t, err)
	second, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "CV-001", Selections: model.SelectionMap{"finish": "pine"},
	})
	require.NoError(t, err)

	scopedKey := composition.VariationScope("CV-001", second.ID).Key()
	require.NoError(t, f.items.Create(context.Background(), &model.CompositionItem{
		BaseModel: model.BaseModel{ID: uuid.New().String()},
		ParentKey: scopedKey, ChildSKU: "PART-001", Quantity: 2,
	}))

	require.NoError(t, f.uc.DeleteVariationItem(context.Background(), second.ID))

	left, err := f.items.FindByParent(context.Background(), scopedKey)
	require.NoError(t, err)
	assert.Empty(t, left)

	remaining, err := f.uc.ListVariationItems(context.Background(), "CV-001")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, first.ID, remaining[0].ID)
}

func TestVariationItemWrites_DropAvailableItemsListing(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", true)

	first, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001", Selections: model.SelectionMap{"size": "m"},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.compUC.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	_, err = f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001", Selections: model.SelectionMap{"size": "l"},
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteVariationItem(context.Background(), first.ID))
	require.Eventually(t, func() bool { return f.compUC.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestUpdateVariationItem_UniquenessExcludesSelf(t *testing.T) {
	f := newFixture()
	f.addProduct(t, "SHIRT-001", true)

	item, err := f.uc.CreateVariationItem(context.Background(), &dto.CreateVariationItemInput{
		ProductSKU: "SHIRT-001", Selections: model.SelectionMap{"size": "m"},
	})
	require.NoError(t, err)

	// Re-saving the same selections on the same item is not a conflict.
	updated, err := f.uc.UpdateVariationItem(context.Background(), item.ID, &dto.UpdateVariationItemInput{
		Selections: model.SelectionMap{"size": "m"},
		SortOrder:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.SortOrder)
}
