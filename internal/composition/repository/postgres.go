package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertItemQuery = `
    INSERT INTO composition_items (id, parent_key, child_sku, quantity, created_at, updated_at)
    VALUES (:id, :parent_key, :child_sku, :quantity, :created_at, :updated_at)
`

func (r *PGRepository) Create(ctx context.Context, item *model.CompositionItem) error {
	_, err := r.DB.NamedExecContext(ctx, insertItemQuery, item)
	return err
}

func (r *PGRepository) CreateBatch(ctx context.Context, items []*model.CompositionItem) error {
	if len(items) == 0 {
		return nil
	}
	// One bulk insert; sqlx expands the named query per slice element.
	_, err := r.DB.NamedExecContext(ctx, insertItemQuery, items)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.CompositionItem, error) {
	var item model.CompositionItem
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM composition_items WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.CompositionItem, error) {
	var items []model.CompositionItem
	err := r.DB.SelectContext(ctx, &items, `SELECT * FROM composition_items ORDER BY created_at`)
	return items, err
}

func (r *PGRepository) FindByParent(ctx context.Context, parentKey string) ([]model.CompositionItem, error) {
	var items []model.CompositionItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM composition_items WHERE parent_key = $1 ORDER BY created_at`, parentKey)
	return items, err
}

func (r *PGRepository) FindByChild(ctx context.Context, childSKU string) ([]model.CompositionItem, error) {
	var items []model.CompositionItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM composition_items WHERE child_sku = $1 ORDER BY created_at`, childSKU)
	return items, err
}

func (r *PGRepository) Update(ctx context.Context, item *model.CompositionItem) error {
	query := `
        UPDATE composition_items SET
            parent_key = :parent_key, child_sku = :child_sku,
            quantity = :quantity, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM composition_items WHERE id = $1`, id)
	return err
}

func (r *PGRepository) DeleteByParent(ctx context.Context, parentKey string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM composition_items WHERE parent_key = $1`, parentKey)
	return err
}

func (r *PGRepository) DeleteByChild(ctx context.Context, childSKU string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM composition_items WHERE child_sku = $1`, childSKU)
	return err
}

func (r *PGRepository) CalculateCompositeWeight(ctx context.Context, parentKey string, childWeights map[string]float64) (float64, error) {
	items, err := r.FindByParent(ctx, parentKey)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * childWeights[item.ChildSKU]
	}
	return total, nil
}

func (r *PGRepository) ValidateIntegrity(ctx context.Context, knownSKUs []string) (*model.IntegrityReport, error) {
	items, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(knownSKUs))
	for _, sku := range knownSKUs {
		known[sku] = true
	}

	report := &model.IntegrityReport{Valid: true, OrphanedItems: []string{}, MissingChildren: []string{}}
	for _, item := range items {
		if !known[composition.ParseScope(item.ParentKey).ProductSKU] {
			report.OrphanedItems = append(report.OrphanedItems, item.ID)
			report.Valid = false
		}
		ref := composition.ParseChildRef(item.ChildSKU)
		if ref.Kind != composition.RefLegacy && !known[ref.ProductSKU] {
			report.MissingChildren = append(report.MissingChildren, item.ChildSKU)
			report.Valid = false
		}
	}
	return report, nil
}

func (r *PGRepository) GetCompositionStats(ctx context.Context) (*model.CompositionStats, error) {
	var stats model.CompositionStats
	query := `
        SELECT
            count(*) AS total_items,
            count(DISTINCT parent_key) AS unique_parents,
            count(DISTINCT child_sku) AS unique_children
        FROM composition_items
    `
	row := r.DB.QueryRowxContext(ctx, query)
	if err := row.Scan(&stats.TotalItems, &stats.UniqueParents, &stats.UniqueChildren); err != nil {
		return nil, err
	}
	if stats.UniqueParents > 0 {
		stats.AverageItemsPerParent = float64(stats.TotalItems) / float64(stats.UniqueParents)
	}
	return &stats, nil
}
