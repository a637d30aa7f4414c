package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// Dimensions is stored as a JSONB column. All sides must be positive when
// the value is present at all.
type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

func (d Dimensions) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *Dimensions) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported dimensions column type %T", src)
	}
}

func (d Dimensions) Valid() bool {
	return d.Height > 0 && d.Width > 0 && d.Depth > 0
}

type Product struct {
	BaseModel
	SKU          string      `db:"sku" json:"sku"`
	Name         string      `db:"name" json:"name"`
	Description  *string     `db:"description" json:"description"` // Nullable
	Weight       *float64    `db:"weight" json:"weight"`           // Nullable; derived for composites
	Dimensions   *Dimensions `db:"dimensions" json:"dimensions"`   // Nullable
	IsComposite  bool        `db:"is_composite" json:"is_composite"`
	HasVariation bool        `db:"has_variation" json:"has_variation"`
	IsActive     bool        `db:"is_active" json:"is_active"`
}

// ValidSKU reports whether sku matches the accepted format: uppercase
// letters, digits and hyphens only.
func ValidSKU(sku string) bool {
	return sku != "" && skuPattern.MatchString(sku)
}

// NameEquals compares product names the way the uniqueness checks do:
// case-insensitively, ignoring surrounding whitespace.
func NameEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
