package model

// CompositionItem is one (parent, child, quantity) edge of the
// bill-of-materials graph. ParentKey is either a plain product SKU or a
// combined "SKU#variationID" key when the edge belongs to one variation of
// a composite-variation product.
type CompositionItem struct {
	BaseModel
	ParentKey string `db:"parent_key" json:"parent_key"`
	ChildSKU  string `db:"child_sku" json:"child_sku"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// IntegrityReport is the outcome of an audit pass over the composition
// table. The read path tolerates dangling references; this report is how
// they surface to callers that asked explicitly.
type IntegrityReport struct {
	Valid           bool     `json:"valid"`
	OrphanedItems   []string `json:"orphaned_items"`
	MissingChildren []string `json:"missing_children"`
}

type CompositionStats struct {
	TotalItems            int     `json:"total_items"`
	UniqueParents         int     `json:"unique_parents"`
	UniqueChildren        int     `json:"unique_children"`
	AverageItemsPerParent float64 `json:"average_items_per_parent"`
}
