package composition

import "strings"

// MaxDepth is the deepest composition nesting the tree builder will expand.
const MaxDepth = 10

const (
	variationKeySep = "#"
	variationMarker = "-VAR-"
	legacySep       = ":"
)

// Scope identifies the owner of a set of composition items: either a plain
// product or one variation combination of a composite-variation product.
// Every place a parent key is read or written goes through ParseScope/Key
// so the "SKU#variationID" encoding lives in exactly one spot.
type Scope struct {
	ProductSKU  string
	VariationID string // empty for plain product scope
}

func ProductScope(sku string) Scope {
	return Scope{ProductSKU: sku}
}

func VariationScope(productSKU, variationID string) Scope {
	return Scope{ProductSKU: productSKU, VariationID: variationID}
}

// ParseScope decodes a composition parent key.
func ParseScope(key string) Scope {
	if sku, id, found := strings.Cut(key, variationKeySep); found {
		return Scope{ProductSKU: sku, VariationID: id}
	}
	return Scope{ProductSKU: key}
}

func (s Scope) Key() string {
	if s.VariationID == "" {
		return s.ProductSKU
	}
	return s.ProductSKU + variationKeySep + s.VariationID
}

func (s Scope) IsVariation() bool {
	return s.VariationID != ""
}

// RefKind classifies a composition child reference.
type RefKind int

const (
	// RefSimple is a plain SKU naming a simple or composite product.
	RefSimple RefKind = iota
	// RefVariation names one variation combination of a variable product.
	RefVariation
	// RefLegacy is the retired colon encoding. Always rejected downstream.
	RefLegacy
)

// ChildRef is the parsed form of a composition child SKU. Two variation
// encodings are accepted, "P#V" and "P-VAR-V"; the colon form "P:V" parses
// to RefLegacy so call sites can reject it with a distinct message.
type ChildRef struct {
	Kind        RefKind
	ProductSKU  string
	VariationID string
	Raw         string
}

// ParseChildRef decodes a child SKU into its tagged form. All call sites
// consume the result instead of re-deriving the encoding themselves.
func ParseChildRef(sku string) ChildRef {
	if productSKU, id, found := strings.Cut(sku, variationKeySep); found {
		return ChildRef{Kind: RefVariation, ProductSKU: productSKU, VariationID: id, Raw: sku}
	}
	if strings.Contains(sku, legacySep) {
		return ChildRef{Kind: RefLegacy, Raw: sku}
	}
	if productSKU, id, found := strings.Cut(sku, variationMarker); found && productSKU != "" && id != "" {
		return ChildRef{Kind: RefVariation, ProductSKU: productSKU, VariationID: id, Raw: sku}
	}
	return ChildRef{Kind: RefSimple, ProductSKU: sku, Raw: sku}
}

// VariationRefKey builds the canonical hash-form reference for one
// variation combination.
func VariationRefKey(productSKU, variationID string) string {
	return productSKU + variationKeySep + variationID
}
