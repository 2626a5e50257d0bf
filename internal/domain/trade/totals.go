package trade

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when no jurisdiction-specific rate is configured
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// Totals holds the monetary summary of a document
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums qty*price over lines and applies rate.
// Rounding to cents happens once, after the sums.
func ComputeTotals(lines []LineInput, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	tax := subtotal.Mul(rate)
	total := subtotal.Add(tax)
	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Total:    total.Round(2),
	}
}

// TaxPolicy resolves the tax rate for a company's jurisdiction
type TaxPolicy struct {
	DefaultRate   decimal.Decimal
	Jurisdictions map[string]decimal.Decimal
}

// NewTaxPolicy creates a policy; a zero default falls back to DefaultTaxRate
func NewTaxPolicy(defaultRate decimal.Decimal, jurisdictions map[string]decimal.Decimal) TaxPolicy {
	if defaultRate.IsZero() {
		defaultRate = DefaultTaxRate
	}
	normalized := make(map[string]decimal.Decimal, len(jurisdictions))
	for k, v := range jurisdictions {
		normalized[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return TaxPolicy{DefaultRate: defaultRate, Jurisdictions: normalized}
}

// RateFor returns the configured rate for the jurisdiction, or the default
func (p TaxPolicy) RateFor(jurisdiction string) decimal.Decimal {
	key := strings.ToUpper(strings.TrimSpace(jurisdiction))
	if key != "" {
		if rate, ok := p.Jurisdictions[key]; ok {
			return rate
		}
	}
	if p.DefaultRate.IsZero() {
		return DefaultTaxRate
	}
	return p.DefaultRate
}
