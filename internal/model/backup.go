package model

import "time"

// MigrationBackup is the snapshot taken before a composite/variation
// migration mutates anything. It lives in the same database as the live
// rows so a rollback can always be replayed from it alone.
type MigrationBackup struct {
	ID                       string                 `json:"id"`
	ProductSKU               string                 `json:"product_sku"`
	Timestamp                time.Time              `json:"timestamp"`
	OriginalProduct          Product                `json:"original_product"`
	OriginalCompositionItems []CompositionItem      `json:"original_composition_items"`
	OriginalVariations       []ProductVariationItem `json:"original_variations"`
	Metadata                 BackupMetadata         `json:"metadata"`
}

type BackupMetadata struct {
	Operation string `json:"operation"`
	Source    string `json:"source"`
	Version   string `json:"version"`
}
