package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/omnikit/catalog-composition-service/internal/apperr"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

const backupVersion = "1"

// PGBackupStore keeps migration snapshots in the same database as the live
// catalog rows, as a JSONB payload per backup.
type PGBackupStore struct {
	DB *sqlx.DB
}

func NewPGBackupStore(db *sqlx.DB) *PGBackupStore {
	return &PGBackupStore{DB: db}
}

type backupRow struct {
	ID         string    `db:"id"`
	ProductSKU string    `db:"product_sku"`
	Operation  string    `db:"operation"`
	Payload    []byte    `db:"payload"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *PGBackupStore) CreateBackup(ctx context.Context, productSKU, operation string, product *model.Product, items []model.CompositionItem, variations []model.ProductVariationItem) (string, error) {
	backup := &model.MigrationBackup{
		ID:                       uuid.New().String(),
		ProductSKU:               productSKU,
		Timestamp:                time.Now(),
		OriginalProduct:          *product,
		OriginalCompositionItems: items,
		OriginalVariations:       variations,
		Metadata: model.BackupMetadata{
			Operation: operation,
			Source:    "catalog-composition-service",
			Version:   backupVersion,
		},
	}

	payload, err := json.Marshal(backup)
	if err != nil {
		return "", apperr.NewStorage("backup.marshal", err)
	}

	row := backupRow{
		ID:         backup.ID,
		ProductSKU: productSKU,
		Operation:  operation,
		Payload:    payload,
		CreatedAt:  backup.Timestamp,
	}
	query := `
        INSERT INTO migration_backups (id, product_sku, operation, payload, created_at)
        VALUES (:id, :product_sku, :operation, :payload, :created_at)
    `
	if _, err := s.DB.NamedExecContext(ctx, query, row); err != nil {
		return "", apperr.NewStorage("backup.create", err)
	}
	return backup.ID, nil
}

func (s *PGBackupStore) Restore(ctx context.Context, backupID string) (*model.MigrationBackup, error) {
	var row backupRow
	err := s.DB.GetContext(ctx, &row, `SELECT * FROM migration_backups WHERE id = $1 LIMIT 1`, backupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("backup", backupID)
		}
		return nil, apperr.NewStorage("backup.restore", err)
	}

	var backup model.MigrationBackup
	if err := json.Unmarshal(row.Payload, &backup); err != nil {
		return nil, apperr.NewStorage("backup.unmarshal", err)
	}
	return &backup, nil
}
