package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

// MemoryBackupStore is a map-backed snapshot store. Used by unit tests.
type MemoryBackupStore struct {
	mu      sync.RWMutex
	backups map[string]model.MigrationBackup
}

func NewMemoryBackupStore() *MemoryBackupStore {
	return &MemoryBackupStore{backups: map[string]model.MigrationBackup{}}
}

func (s *MemoryBackupStore) CreateBackup(ctx context.Context, productSKU, operation string, product *model.Product, items []model.CompositionItem, variations []model.ProductVariationItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep-copy the slices so later mutations of live rows cannot leak into
	// the snapshot.
	itemsCopy := make([]model.CompositionItem, len(items))
	copy(itemsCopy, items)
	variationsCopy := make([]model.ProductVariationItem, len(variations))
	copy(variationsCopy, variations)

	backup := model.MigrationBackup{
		ID:                       uuid.New().String(),
		ProductSKU:               productSKU,
		Timestamp:                time.Now(),
		OriginalProduct:          *product,
		OriginalCompositionItems: itemsCopy,
		OriginalVariations:       variationsCopy,
		Metadata: model.BackupMetadata{
			Operation: operation,
			Source:    "catalog-composition-service",
			Version:   backupVersion,
		},
	}
	s.backups[backup.ID] = backup
	return backup.ID, nil
}

func (s *MemoryBackupStore) Restore(ctx context.Context, backupID string) (*model.MigrationBackup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if backup, ok := s.backups[backupID]; ok {
		clone := backup
		return &clone, nil
	}
	return nil, apperr.NewNotFound("backup", backupID)
}
