package dto

import "github.com/omnikit/catalog-composition-service/internal/model"

type CreateProductInput struct {
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Weight       *float64          `json:"weight"`
	Dimensions   *model.Dimensions `json:"dimensions"`
	IsComposite  bool              `json:"is_composite"`
	HasVariation bool              `json:"has_variation"`
}

type UpdateProductInput struct {
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Weight       *float64          `json:"weight"`
	Dimensions   *model.Dimensions `json:"dimensions"`
	IsComposite  bool              `json:"is_composite"`
	HasVariation bool              `json:"has_variation"`
	IsActive     bool              `json:"is_active"`
}
