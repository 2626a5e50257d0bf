package catalog

import (
	"strings"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a read-mostly catalog row offered to dealers
type Product struct {
	shared.BaseEntity
	SKU         string
	Name        string
	Description string
	Category    string
	Brand       string
	DealerPrice decimal.Decimal
	MSRP        decimal.Decimal
	IsActive    bool
}

// ProductFilter narrows a catalog listing. Zero values are ignored.
type ProductFilter struct {
	Category   string
	Brand      string
	Search     string // matched against name, description and sku
	ActiveOnly *bool
	Limit      int
}

// Normalized returns the filter with whitespace trimmed from text fields
func (f ProductFilter) Normalized() ProductFilter {
	f.Category = strings.TrimSpace(f.Category)
	f.Brand = strings.TrimSpace(f.Brand)
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit < 0 {
		f.Limit = 0
	}
	return f
}

// Equal reports whether two filters select the same rows
func (f ProductFilter) Equal(other ProductFilter) bool {
	a, b := f.Normalized(), other.Normalized()
	if a.Category != b.Category || a.Brand != b.Brand || a.Search != b.Search || a.Limit != b.Limit {
		return false
	}
	if (a.ActiveOnly == nil) != (b.ActiveOnly == nil) {
		return false
	}
	return a.ActiveOnly == nil || *a.ActiveOnly == *b.ActiveOnly
}

// Matches reports whether p satisfies the filter
func (f ProductFilter) Matches(p *Product) bool {
	f = f.Normalized()
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.ActiveOnly != nil && p.IsActive != *f.ActiveOnly {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) &&
			!strings.Contains(strings.ToLower(p.SKU), needle) {
			return false
		}
	}
	return true
}
