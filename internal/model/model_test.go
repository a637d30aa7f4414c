package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSKU(t *testing.T) {
	valid := []string{"A", "CHAIR-001", "X9-Y7", "100"}
	for _, sku := range valid {
		assert.True(t, ValidSKU(sku), "sku %q", sku)
	}

	invalid := []string{"", "chair-001", "CHAIR 001", "CHAIR_001", "CHAIR#1", "CHAIR:1"}
	for _, sku := range invalid {
		assert.False(t, ValidSKU(sku), "sku %q", sku)
	}
}

func TestNameEquals(t *testing.T) {
	assert.True(t, NameEquals("Dining Chair", "dining chair"))
	assert.True(t, NameEquals("  Dining Chair ", "Dining Chair"))
	assert.False(t, NameEquals("Dining Chair", "Dining Chairs"))
}

func TestDimensionsValid(t *testing.T) {
	assert.True(t, Dimensions{Height: 1, Width: 2, Depth: 3}.Valid())
	assert.False(t, Dimensions{Height: 0, Width: 2, Depth: 3}.Valid())
	assert.False(t, Dimensions{Height: 1, Width: -2, Depth: 3}.Valid())
}

func TestSelectionMapHash_OrderIndependent(t *testing.T) {
	a := SelectionMap{"size": "m", "color": "red"}
	b := SelectionMap{"color": "red", "size": "m"}
	assert.Equal(t, a.Hash(), b.Hash())

	c := SelectionMap{"color": "red", "size": "l"}
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestSelectionMapEquals(t *testing.T) {
	a := SelectionMap{"size": "m", "color": "red"}
	assert.True(t, a.Equals(SelectionMap{"color": "red", "size": "m"}))
	assert.False(t, a.Equals(SelectionMap{"size": "m"}))
	assert.False(t, a.Equals(SelectionMap{"size": "m", "color": "blue"}))
	assert.True(t, SelectionMap{}.Equals(SelectionMap{}))
}

func TestEffectiveWeight(t *testing.T) {
	base := 0.3
	override := 0.5
	item := ProductVariationItem{WeightOverride: &override}
	assert.Equal(t, 0.5, item.EffectiveWeight(&base))

	item.WeightOverride = nil
	assert.Equal(t, 0.3, item.EffectiveWeight(&base))
	assert.Equal(t, 0.0, item.EffectiveWeight(nil))
}
