package dto

type ProductFilters struct {
	IsActive    *bool
	IsComposite *bool
	SearchQuery string // name or sku
	SortBy      string // name, sku, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}

// StateTransitionResult is the outcome of the pure composite/variation
// flag-change validation. Warnings never block; Errors do.
type StateTransitionResult struct {
	Valid             bool     `json:"valid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	RequiredMigration string   `json:"required_migration"`
}
