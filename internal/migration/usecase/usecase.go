package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/migration"
	"github.com/omnikit/catalog-composition-service/internal/migration/dto"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/broker"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/product"
	"github.com/omnikit/catalog-composition-service/internal/variation"
)

// migrationUseCase drives the composite/variation state transitions as a
// saga: snapshot first, mutate second, roll back from the snapshot on any
// mid-flight failure. Callers must serialize migrations per SKU.
type migrationUseCase struct {
	products  product.Repository
	compItems composition.Repository
	varItems  variation.ItemRepository
	backups   migration.BackupStore
	publisher *broker.KafkaPublisher
	logger    logger.ZapLogger
}

func NewMigrationUseCase(
	products product.Repository,
	compItems composition.Repository,
	varItems variation.ItemRepository,
	backups migration.BackupStore,
	publisher *broker.KafkaPublisher,
	log logger.ZapLogger,
) migration.UseCase {
	return &migrationUseCase{
		products:  products,
		compItems: compItems,
		varItems:  varItems,
		backups:   backups,
		publisher: publisher,
		logger:    log,
	}
}

func newOperationID() string {
	return fmt.Sprintf("migration-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

func (uc *migrationUseCase) MigrateCompositeToVariations(ctx context.Context, productSKU string, progress migration.ProgressFunc) (*dto.MigrationResult, error) {
	const totalSteps = 5
	opID := newOperationID()
	startTime := time.Now()
	report := uc.reporter(opID, totalSteps, startTime, progress)

	uc.logger.Info("starting composite-to-variations migration",
		zap.String("operation_id", opID), zap.String("sku", productSKU))

	// Step 1: load product. Missing product is non-recoverable.
	report(1, "load-product", fmt.Sprintf("loading product %s", productSKU))
	p, err := uc.products.FindBySKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewMigration(apperr.CodeProductNotFound, "load-product",
			fmt.Sprintf("product '%s' not found", productSKU), false)
	}

	// Step 2: snapshot everything before touching it.
	report(2, "create-backup", "snapshotting product, composition items and variations")
	items, err := uc.compItems.FindByParent(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("composition.findByParent", err)
	}
	vars, err := uc.varItems.FindByProductSKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.findByProductSKU", err)
	}
	backupID, err := uc.backups.CreateBackup(ctx, productSKU, "composite-to-variations", p, items, vars)
	if err != nil {
		return nil, apperr.NewStorage("backup.create", err)
	}
	backup := &model.MigrationBackup{
		ID:                       backupID,
		ProductSKU:               productSKU,
		Timestamp:                startTime,
		OriginalProduct:          *p,
		OriginalCompositionItems: items,
		OriginalVariations:       vars,
		Metadata:                 model.BackupMetadata{Operation: "composite-to-variations"},
	}

	result := &dto.MigrationResult{
		OperationID:      opID,
		RollbackBackupID: backupID,
		Timestamp:        startTime,
		Errors:           []string{},
	}

	// Step 3: the single composite-variation placeholder. Empty selections
	// mark it as a composite variation rather than an attribute combination.
	report(3, "create-variation", "creating composite variation")
	now := time.Now()
	newVar := &model.ProductVariationItem{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductSKU: productSKU,
		Selections: model.SelectionMap{},
	}
	varName := "Variation 1"
	newVar.Name = &varName
	if err := uc.varItems.Create(ctx, newVar); err != nil {
		return uc.failAndRollback(ctx, result, backup, "create-variation", err), nil
	}

	// Step 4: re-key every composition item under the new variation.
	report(4, "rewrite-items", fmt.Sprintf("moving %d composition item(s) under the new variation", len(items)))
	scopedKey := composition.VariationScope(productSKU, newVar.ID).Key()
	rewritten := make([]*model.CompositionItem, 0, len(items))
	for _, item := range items {
		rewritten = append(rewritten, &model.CompositionItem{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ParentKey: scopedKey,
			ChildSKU:  item.ChildSKU,
			Quantity:  item.Quantity,
		})
	}
	if len(rewritten) > 0 {
		if err := uc.compItems.CreateBatch(ctx, rewritten); err != nil {
			return uc.failAndRollback(ctx, result, backup, "rewrite-items", err), nil
		}
	}

	// Step 5: drop the plain-key originals.
	report(5, "cleanup", "deleting original composition items")
	if err := uc.compItems.DeleteByParent(ctx, productSKU); err != nil {
		return uc.failAndRollback(ctx, result, backup, "cleanup", err), nil
	}

	result.Success = true
	result.MigratedItemsCount = len(rewritten)
	result.CreatedVariationID = newVar.ID
	uc.logger.Info("composite-to-variations migration completed",
		zap.String("operation_id", opID), zap.Int("migrated_items", result.MigratedItemsCount))
	go uc.publishEvent(context.Background(), "catalog.migration.completed", productSKU, result)
	return result, nil
}

func (uc *migrationUseCase) MigrateVariationsToComposite(ctx context.Context, productSKU, mergeStrategy string, progress migration.ProgressFunc) (*dto.MigrationResult, error) {
	const totalSteps = 4
	if mergeStrategy != migration.StrategyFirstVariation && mergeStrategy != migration.StrategyMergeAll {
		return nil, apperr.NewValidation("merge_strategy",
			fmt.Sprintf("unknown merge strategy '%s'", mergeStrategy))
	}

	opID := newOperationID()
	startTime := time.Now()
	report := uc.reporter(opID, totalSteps, startTime, progress)

	uc.logger.Info("starting variations-to-composite migration",
		zap.String("operation_id", opID), zap.String("sku", productSKU),
		zap.String("merge_strategy", mergeStrategy))

	// Step 1: load product and variations. Both missing cases are
	// non-recoverable preconditions.
	report(1, "load-product", fmt.Sprintf("loading product %s and its variations", productSKU))
	p, err := uc.products.FindBySKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return nil, apperr.NewMigration(apperr.CodeProductNotFound, "load-product",
			fmt.Sprintf("product '%s' not found", productSKU), false)
	}
	vars, err := uc.varItems.FindByProductSKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("variationItem.findByProductSKU", err)
	}
	if len(vars) == 0 {
		return nil, apperr.NewMigration(apperr.CodeNoVariations, "load-product",
			fmt.Sprintf("no variations found for product '%s'", productSKU), false)
	}

	// Step 2: gather every per-variation composition item and snapshot.
	report(2, "create-backup", "gathering per-variation items and snapshotting")
	gathered := make([]model.CompositionItem, 0)
	perVariation := make(map[string][]model.CompositionItem, len(vars))
	for _, v := range vars {
		key := composition.VariationScope(productSKU, v.ID).Key()
		varItems, err := uc.compItems.FindByParent(ctx, key)
		if err != nil {
			return nil, apperr.NewStorage("composition.findByParent", err)
		}
		perVariation[v.ID] = varItems
		gathered = append(gathered, varItems...)
	}
	backupID, err := uc.backups.CreateBackup(ctx, productSKU, "variations-to-composite", p, gathered, vars)
	if err != nil {
		return nil, apperr.NewStorage("backup.create", err)
	}
	backup := &model.MigrationBackup{
		ID:                       backupID,
		ProductSKU:               productSKU,
		Timestamp:                startTime,
		OriginalProduct:          *p,
		OriginalCompositionItems: gathered,
		OriginalVariations:       vars,
		Metadata:                 model.BackupMetadata{Operation: "variations-to-composite"},
	}

	result := &dto.MigrationResult{
		OperationID:      opID,
		RollbackBackupID: backupID,
		Timestamp:        startTime,
		Errors:           []string{},
	}

	// Step 3: compute the surviving composition set.
	report(3, "merge-items", fmt.Sprintf("computing surviving items (%s)", mergeStrategy))
	now := time.Now()
	var kept []model.CompositionItem
	migrated := 0
	switch mergeStrategy {
	case migration.StrategyFirstVariation:
		kept = perVariation[vars[0].ID]
		migrated = len(kept)
	case migration.StrategyMergeAll:
		// Merge by child SKU, summing quantities, and write the merged
		// items straight under the plain key.
		quantities := make(map[string]int)
		order := make([]string, 0)
		for _, item := range gathered {
			if _, seen := quantities[item.ChildSKU]; !seen {
				order = append(order, item.ChildSKU)
			}
			quantities[item.ChildSKU] += item.Quantity
		}
		merged := make([]*model.CompositionItem, 0, len(order))
		for _, childSKU := range order {
			merged = append(merged, &model.CompositionItem{
				BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				ParentKey: productSKU,
				ChildSKU:  childSKU,
				Quantity:  quantities[childSKU],
			})
		}
		if len(merged) > 0 {
			if err := uc.compItems.CreateBatch(ctx, merged); err != nil {
				return uc.failAndRollback(ctx, result, backup, "merge-items", err), nil
			}
		}
		migrated = len(merged)
	}

	// Step 4: delete the per-variation items and the variations, then
	// re-key the kept first-variation items onto the plain parent.
	report(4, "cleanup", "deleting per-variation items and variations")
	for _, v := range vars {
		key := composition.VariationScope(productSKU, v.ID).Key()
		if err := uc.compItems.DeleteByParent(ctx, key); err != nil {
			return uc.failAndRollback(ctx, result, backup, "cleanup", err), nil
		}
	}
	if err := uc.varItems.DeleteByProductSKU(ctx, productSKU); err != nil {
		return uc.failAndRollback(ctx, result, backup, "cleanup", err), nil
	}
	if mergeStrategy == migration.StrategyFirstVariation && len(kept) > 0 {
		rekeyed := make([]*model.CompositionItem, 0, len(kept))
		for _, item := range kept {
			rekeyed = append(rekeyed, &model.CompositionItem{
				BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				ParentKey: productSKU,
				ChildSKU:  item.ChildSKU,
				Quantity:  item.Quantity,
			})
		}
		if err := uc.compItems.CreateBatch(ctx, rekeyed); err != nil {
			return uc.failAndRollback(ctx, result, backup, "cleanup", err), nil
		}
	}

	result.Success = true
	result.MigratedItemsCount = migrated
	uc.logger.Info("variations-to-composite migration completed",
		zap.String("operation_id", opID), zap.Int("migrated_items", migrated))
	go uc.publishEvent(context.Background(), "catalog.migration.completed", productSKU, result)
	return result, nil
}

// RollbackMigration replays a snapshot over whatever state the product is
// currently in. A failure here is non-recoverable.
func (uc *migrationUseCase) RollbackMigration(ctx context.Context, backup *model.MigrationBackup) error {
	sku := backup.ProductSKU
	uc.logger.Warn("rolling back migration", zap.String("sku", sku), zap.String("backup_id", backup.ID))

	restored := backup.OriginalProduct
	if err := uc.products.Update(ctx, &restored); err != nil {
		return apperr.NewMigration(apperr.CodeRollbackFailed, "restore-product", err.Error(), false)
	}

	if err := uc.compItems.DeleteByParent(ctx, sku); err != nil {
		return apperr.NewMigration(apperr.CodeRollbackFailed, "purge-items", err.Error(), false)
	}
	currentVars, err := uc.varItems.FindByProductSKU(ctx, sku)
	if err != nil {
		return apperr.NewMigration(apperr.CodeRollbackFailed, "purge-variations", err.Error(), false)
	}
	for _, v := range currentVars {
		key := composition.VariationScope(sku, v.ID).Key()
		if err := uc.compItems.DeleteByParent(ctx, key); err != nil {
			return apperr.NewMigration(apperr.CodeRollbackFailed, "purge-variations", err.Error(), false)
		}
	}
	if err := uc.varItems.DeleteByProductSKU(ctx, sku); err != nil {
		return apperr.NewMigration(apperr.CodeRollbackFailed, "purge-variations", err.Error(), false)
	}

	// Recreate the snapshot rows verbatim, original IDs included.
	for i := range backup.OriginalVariations {
		v := backup.OriginalVariations[i]
		if err := uc.varItems.Create(ctx, &v); err != nil {
			return apperr.NewMigration(apperr.CodeRollbackFailed, "restore-variations", err.Error(), false)
		}
	}
	for i := range backup.OriginalCompositionItems {
		item := backup.OriginalCompositionItems[i]
		if err := uc.compItems.Create(ctx, &item); err != nil {
			return apperr.NewMigration(apperr.CodeRollbackFailed, "restore-items", err.Error(), false)
		}
	}

	uc.logger.Info("migration rolled back", zap.String("sku", sku), zap.String("backup_id", backup.ID))
	return nil
}

// ValidateMigrationPrerequisites is a pure check; nothing is mutated.
func (uc *migrationUseCase) ValidateMigrationPrerequisites(ctx context.Context, productSKU, targetMigration string) (*dto.PrerequisiteResult, error) {
	errs := []string{}

	p, err := uc.products.FindBySKU(ctx, productSKU)
	if err != nil {
		return nil, apperr.NewStorage("product.find", err)
	}
	if p == nil {
		return &dto.PrerequisiteResult{Valid: false, Errors: []string{fmt.Sprintf("product '%s' not found", productSKU)}}, nil
	}

	switch targetMigration {
	case migration.KindEnableVariations:
		if p.HasVariation {
			errs = append(errs, "product is already in the target state")
		}
		count, err := uc.varItems.CountByProduct(ctx, productSKU)
		if err != nil {
			return nil, apperr.NewStorage("variationItem.countByProduct", err)
		}
		if count > 0 {
			errs = append(errs, fmt.Sprintf("product already has %d variation(s)", count))
		}
	case migration.KindDisableComposite:
		if !p.IsComposite {
			errs = append(errs, "product is already in the target state")
		}
	case migration.KindDisableVariations:
		if !p.HasVariation {
			errs = append(errs, "product is already in the target state")
		}
	case migration.KindEnableComposite:
		if p.IsComposite {
			errs = append(errs, "product is already in the target state")
		}
	case migration.KindNone:
		errs = append(errs, "no migration required for the requested change")
	default:
		errs = append(errs, fmt.Sprintf("unknown target migration '%s'", targetMigration))
	}

	return &dto.PrerequisiteResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// failAndRollback records a mid-flight step failure, replays the backup
// best-effort and returns the failed result. A rollback failure is logged,
// never propagated.
func (uc *migrationUseCase) failAndRollback(ctx context.Context, result *dto.MigrationResult, backup *model.MigrationBackup, step string, cause error) *dto.MigrationResult {
	uc.logger.Error("migration step failed",
		zap.String("operation_id", result.OperationID),
		zap.String("step", step), zap.Error(cause))
	result.Success = false
	result.MigratedItemsCount = 0
	result.CreatedVariationID = ""
	result.Errors = append(result.Errors, fmt.Sprintf("step '%s' failed: %v", step, cause))

	if err := uc.RollbackMigration(ctx, backup); err != nil {
		uc.logger.Error("rollback failed",
			zap.String("operation_id", result.OperationID),
			zap.String("backup_id", backup.ID), zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("rollback failed: %v", err))
	}

	go uc.publishEvent(context.Background(), "catalog.migration.failed", backup.ProductSKU, result)
	return result
}

func (uc *migrationUseCase) reporter(opID string, totalSteps int, startTime time.Time, progress migration.ProgressFunc) func(step int, name, msg string) {
	return func(step int, name, msg string) {
		uc.logger.Debug("migration step",
			zap.String("operation_id", opID), zap.Int("step", step), zap.String("name", name))
		if progress == nil {
			return
		}
		progress(dto.ProgressEvent{
			OperationID: opID,
			CurrentStep: step,
			TotalSteps:  totalSteps,
			StepName:    name,
			Progress:    step * 100 / totalSteps,
			Message:     msg,
			StartTime:   startTime,
		})
	}
}

func (uc *migrationUseCase) publishEvent(ctx context.Context, eventType, sku string, result *dto.MigrationResult) {
	if uc.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"event_id":   uuid.New().String(),
		"event_type": eventType,
		"sku":        sku,
		"result":     result,
		"timestamp":  time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, sku, data); err != nil {
		uc.logger.Error("failed to publish migration event", zap.String("event_type", eventType), zap.Error(err))
	}
}
