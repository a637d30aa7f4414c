package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/omnikit/catalog-composition-service/internal/model"
)

// --- Variation types ---

type PGTypeRepository struct {
	DB *sqlx.DB
}

func NewPGTypeRepository(db *sqlx.DB) *PGTypeRepository {
	return &PGTypeRepository{DB: db}
}

func (r *PGTypeRepository) Create(ctx context.Context, vt *model.VariationType) error {
	query := `
        INSERT INTO variation_types (id, name, modifies_weight, modifies_dimensions, created_at, updated_at)
        VALUES (:id, :name, :modifies_weight, :modifies_dimensions, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, vt)
	return err
}

func (r *PGTypeRepository) FindByID(ctx context.Context, id string) (*model.VariationType, error) {
	var vt model.VariationType
	err := r.DB.GetContext(ctx, &vt, `SELECT * FROM variation_types WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &vt, nil
}

func (r *PGTypeRepository) FindAll(ctx context.Context) ([]model.VariationType, error) {
	var types []model.VariationType
	err := r.DB.SelectContext(ctx, &types, `SELECT * FROM variation_types ORDER BY name`)
	return types, err
}

func (r *PGTypeRepository) Update(ctx context.Context, vt *model.VariationType) error {
	query := `
        UPDATE variation_types SET
            name = :name, modifies_weight = :modifies_weight,
            modifies_dimensions = :modifies_dimensions, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, vt)
	return err
}

func (r *PGTypeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM variation_types WHERE id = $1`, id)
	return err
}

// --- Variations ---

type PGVariationRepository struct {
	DB *sqlx.DB
}

func NewPGVariationRepository(db *sqlx.DB) *PGVariationRepository {
	return &PGVariationRepository{DB: db}
}

func (r *PGVariationRepository) Create(ctx context.Context, v *model.Variation) error {
	query := `
        INSERT INTO variations (id, variation_type_id, name, sort_order, created_at, updated_at)
        VALUES (:id, :variation_type_id, :name, :sort_order, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, v)
	return err
}

func (r *PGVariationRepository) FindByID(ctx context.Context, id string) (*model.Variation, error) {
	var v model.Variation
	err := r.DB.GetContext(ctx, &v, `SELECT * FROM variations WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGVariationRepository) FindAll(ctx context.Context) ([]model.Variation, error) {
	var variations []model.Variation
	err := r.DB.SelectContext(ctx, &variations, `SELECT * FROM variations ORDER BY sort_order, name`)
	return variations, err
}

func (r *PGVariationRepository) FindByType(ctx context.Context, typeID string) ([]model.Variation, error) {
	var variations []model.Variation
	err := r.DB.SelectContext(ctx, &variations,
		`SELECT * FROM variations WHERE variation_type_id = $1 ORDER BY sort_order, name`, typeID)
	return variations, err
}

func (r *PGVariationRepository) CountByType(ctx context.Context, typeID string) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM variations WHERE variation_type_id = $1`, typeID)
	return count, err
}

func (r *PGVariationRepository) Update(ctx context.Context, v *model.Variation) error {
	query := `
        UPDATE variations SET
            variation_type_id = :variation_type_id, name = :name,
            sort_order = :sort_order, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, v)
	return err
}

func (r *PGVariationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM variations WHERE id = $1`, id)
	return err
}

// --- Product variation items ---

type PGItemRepository struct {
	DB *sqlx.DB
}

func NewPGItemRepository(db *sqlx.DB) *PGItemRepository {
	return &PGItemRepository{DB: db}
}

func (r *PGItemRepository) Create(ctx context.Context, item *model.ProductVariationItem) error {
	query := `
        INSERT INTO product_variation_items (
            id, product_sku, name, selections, weight_override,
            dimensions_override, sort_order, created_at, updated_at
        )
        VALUES (
            :id, :product_sku, :name, :selections, :weight_override,
            :dimensions_override, :sort_order, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGItemRepository) FindByID(ctx context.Context, id string) (*model.ProductVariationItem, error) {
	var item model.ProductVariationItem
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM product_variation_items WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGItemRepository) FindAll(ctx context.Context) ([]model.ProductVariationItem, error) {
	var items []model.ProductVariationItem
	err := r.DB.SelectContext(ctx, &items, `SELECT * FROM product_variation_items ORDER BY sort_order, created_at`)
	return items, err
}

func (r *PGItemRepository) FindByProductSKU(ctx context.Context, sku string) ([]model.ProductVariationItem, error) {
	var items []model.ProductVariationItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM product_variation_items WHERE product_sku = $1 ORDER BY sort_order, created_at`, sku)
	return items, err
}

func (r *PGItemRepository) CountByProduct(ctx context.Context, sku string) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM product_variation_items WHERE product_sku = $1`, sku)
	return count, err
}

func (r *PGItemRepository) Search(ctx context.Context, query string) ([]model.ProductVariationItem, error) {
	var items []model.ProductVariationItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM product_variation_items WHERE product_sku ILIKE $1 OR name ILIKE $1 ORDER BY sort_order`,
		"%"+query+"%")
	return items, err
}

func (r *PGItemRepository) Update(ctx context.Context, item *model.ProductVariationItem) error {
	query := `
        UPDATE product_variation_items SET
            product_sku = :product_sku, name = :name, selections = :selections,
            weight_override = :weight_override, dimensions_override = :dimensions_override,
            sort_order = :sort_order, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM product_variation_items WHERE id = $1`, id)
	return err
}

func (r *PGItemRepository) DeleteByProductSKU(ctx context.Context, sku string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM product_variation_items WHERE product_sku = $1`, sku)
	return err
}
