package dto

import "github.com/omnikit/catalog-composition-service/internal/model"

type CreateVariationTypeInput struct {
	Name               string `json:"name"`
	ModifiesWeight     bool   `json:"modifies_weight"`
	ModifiesDimensions bool   `json:"modifies_dimensions"`
}

type CreateVariationInput struct {
	VariationTypeID string `json:"variation_type_id"`
	Name            string `json:"name"`
	SortOrder       int    `json:"sort_order"`
}

type CreateVariationItemInput struct {
	ProductSKU         string             `json:"product_sku"`
	Name               string             `json:"name"`
	Selections         model.SelectionMap `json:"selections"`
	WeightOverride     *float64           `json:"weight_override"`
	DimensionsOverride *model.Dimensions  `json:"dimensions_override"`
	SortOrder          int                `json:"sort_order"`
}

type UpdateVariationItemInput struct {
	Name               string             `json:"name"`
	Selections         model.SelectionMap `json:"selections"`
	WeightOverride     *float64           `json:"weight_override"`
	DimensionsOverride *model.Dimensions  `json:"dimensions_override"`
	SortOrder          int                `json:"sort_order"`
}
