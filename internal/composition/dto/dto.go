package dto

import "github.com/omnikit/catalog-composition-service/internal/model"

type AddItemInput struct {
	ParentKey string `json:"parent_key"`
	ChildSKU  string `json:"child_sku"`
	Quantity  int    `json:"quantity"`
}

// ItemInput is one row of a composite-variation composition payload; the
// parent key is derived from the product and variation being configured.
type ItemInput struct {
	ChildSKU string `json:"child_sku"`
	Quantity int    `json:"quantity"`
}

// TreeNode is one node of the expanded composition tree.
type TreeNode struct {
	SKU              string      `json:"sku"`
	Name             string      `json:"name"`
	IsComposite      bool        `json:"is_composite"`
	Quantity         int         `json:"quantity"`
	CalculatedWeight float64     `json:"calculated_weight"`
	Children         []*TreeNode `json:"children"`
}

// AvailableItem is one selectable entry for building a composition:
// a simple product, a composite product, or one variation combination of a
// variable product. Variable products themselves are never selectable.
type AvailableItem struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Type      string  `json:"type"` // simple, composite, variation
	ParentSKU string  `json:"parent_sku,omitempty"`
	Weight    float64 `json:"weight"`
}

// CompletenessResult reports whether one variation combination of a
// composite-variation product has a usable composition. Item-level failures
// are collected, not raised one at a time.
type CompletenessResult struct {
	Complete     bool     `json:"complete"`
	Errors       []string `json:"errors"`
	InvalidItems []string `json:"invalid_items"`
}

// VariationComposition is one variation combination together with its
// private composition subtree.
type VariationComposition struct {
	Variation   model.ProductVariationItem `json:"variation"`
	Items       []model.CompositionItem    `json:"items"`
	TotalWeight float64                    `json:"total_weight"`
	Complete    bool                       `json:"complete"`
}
