package migration

import (
	"context"

	"github.com/omnikit/catalog-composition-service/internal/migration/dto"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

// Migration kinds as produced by the product state-transition decision
// table and consumed by ValidateMigrationPrerequisites.
const (
	KindEnableVariations  = "enable-variations"
	KindDisableComposite  = "disable-composite"
	KindDisableVariations = "disable-variations"
	KindEnableComposite   = "enable-composite"
	KindNone              = "none"
)

// Merge strategies for collapsing per-variation compositions back onto the
// plain product.
const (
	StrategyFirstVariation = "first-variation"
	StrategyMergeAll       = "merge-all"
)

// ProgressFunc receives one event per completed migration step. A nil
// callback is allowed.
type ProgressFunc func(dto.ProgressEvent)

// BackupStore persists pre-migration snapshots on the same substrate as
// the live data, so a rollback can be replayed from the snapshot alone.
type BackupStore interface {
	CreateBackup(ctx context.Context, productSKU, operation string, product *model.Product, items []model.CompositionItem, variations []model.ProductVariationItem) (string, error)
	Restore(ctx context.Context, backupID string) (*model.MigrationBackup, error)
}

type UseCase interface {
	MigrateCompositeToVariations(ctx context.Context, productSKU string, progress ProgressFunc) (*dto.MigrationResult, error)
	MigrateVariationsToComposite(ctx context.Context, productSKU, mergeStrategy string, progress ProgressFunc) (*dto.MigrationResult, error)
	RollbackMigration(ctx context.Context, backup *model.MigrationBackup) error
	ValidateMigrationPrerequisites(ctx context.Context, productSKU, targetMigration string) (*dto.PrerequisiteResult, error)
}
