package identity

import (
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Company is the dealer account a profile belongs to
type Company struct {
	shared.BaseEntity
	Name            string
	AccountNumber   string
	TaxJurisdiction string // e.g. a state code; empty uses the default rate
	CreditLimit     decimal.Decimal
	PaymentTerms    string
	AddressLine1    string
	AddressLine2    string
	City            string
	State           string
	PostalCode      string
	Country         string
	Phone           string
	IsActive        bool
}
