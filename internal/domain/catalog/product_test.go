package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFilter_Matches(t *testing.T) {
	active := true
	chair := &Product{SKU: "CH-100", Name: "Task Chair", Description: "Mesh back", Category: "seating", Brand: "Acme", IsActive: true}
	desk := &Product{SKU: "DK-200", Name: "Standing Desk", Category: "desks", Brand: "Lift", IsActive: false}

	tests := []struct {
		name   string
		filter ProductFilter
		chair  bool
		desk   bool
	}{
		{"empty filter matches everything", ProductFilter{}, true, true},
		{"category", ProductFilter{Category: "desks"}, false, true},
		{"brand", ProductFilter{Brand: "Acme"}, true, false},
		{"active only", ProductFilter{ActiveOnly: &active}, true, false},
		{"search by sku is case-insensitive", ProductFilter{Search: "dk-2"}, false, true},
		{"search by description", ProductFilter{Search: "MESH"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.chair, tt.filter.Matches(chair))
			assert.Equal(t, tt.desk, tt.filter.Matches(desk))
		})
	}
}

func TestProductFilter_Equal(t *testing.T) {
	yes, no := true, false
	assert.True(t, ProductFilter{Search: " desk "}.Equal(ProductFilter{Search: "desk"}))
	assert.False(t, ProductFilter{ActiveOnly: &yes}.Equal(ProductFilter{ActiveOnly: &no}))
	assert.False(t, ProductFilter{ActiveOnly: &yes}.Equal(ProductFilter{}))
	assert.True(t, ProductFilter{ActiveOnly: &yes}.Equal(ProductFilter{ActiveOnly: &yes}))
}
