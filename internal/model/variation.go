package model

import (
	"crypto/md5"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// VariationType declares a selectable axis, e.g. "Color", and whether
// selecting it changes the physical properties of the product.
type VariationType struct {
	BaseModel
	Name               string `db:"name" json:"name"`
	ModifiesWeight     bool   `db:"modifies_weight" json:"modifies_weight"`
	ModifiesDimensions bool   `db:"modifies_dimensions" json:"modifies_dimensions"`
}

// Variation is one value of a VariationType, e.g. "Red". Names are unique
// within their type, case-insensitively.
type Variation struct {
	BaseModel
	VariationTypeID string `db:"variation_type_id" json:"variation_type_id"`
	Name            string `db:"name" json:"name"`
	SortOrder       int    `db:"sort_order" json:"sort_order"`
}

// SelectionMap maps variation-type ID to the chosen variation ID. It is
// stored as JSONB and compared order-independently.
type SelectionMap map[string]string

func (m SelectionMap) Value() (driver.Value, error) {
	if m == nil {
		m = SelectionMap{}
	}
	return json.Marshal(m)
}

func (m *SelectionMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = SelectionMap{}
		return nil
	default:
		return fmt.Errorf("unsupported selections column type %T", src)
	}
}

// Hash returns a digest that is identical for equal selection sets
// regardless of insertion order.
func (m SelectionMap) Hash() string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(pairs, ";"))))
}

func (m SelectionMap) Equals(other SelectionMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ProductVariationItem is one concrete combination of a variable product.
// Composite-variation products may carry an empty selection map: their real
// data lives in composition items keyed by "productSKU#id".
type ProductVariationItem struct {
	BaseModel
	ProductSKU         string       `db:"product_sku" json:"product_sku"`
	Name               *string      `db:"name" json:"name"` // Nullable display name
	Selections         SelectionMap `db:"selections" json:"selections"`
	WeightOverride     *float64     `db:"weight_override" json:"weight_override"`
	DimensionsOverride *Dimensions  `db:"dimensions_override" json:"dimensions_override"`
	SortOrder          int          `db:"sort_order" json:"sort_order"`
}

// EffectiveWeight resolves the weight of this combination: its own override
// when present, otherwise the owning product's base weight.
func (v *ProductVariationItem) EffectiveWeight(base *float64) float64 {
	if v.WeightOverride != nil {
		return *v.WeightOverride
	}
	if base != nil {
		return *base
	}
	return 0
}
