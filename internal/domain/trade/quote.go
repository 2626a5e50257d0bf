package trade

import (
	"time"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultQuoteValidity is how long a quote stays valid when no date is given
const DefaultQuoteValidity = 30 * 24 * time.Hour

// QuoteStatus represents the status of a quote request
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

func (s QuoteStatus) String() string {
	return string(s)
}

// Quote is the header of a dealer quote request
type Quote struct {
	ID          uuid.UUID
	QuoteNumber string
	CompanyID   uuid.UUID
	UserID      uuid.UUID
	Status      QuoteStatus
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	ProjectName string
	ValidUntil  time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []LineItem
}

// QuoteDetails are the optional header fields a dealer may supply
type QuoteDetails struct {
	ProjectName string     `json:"project_name" validate:"max=200"`
	ValidUntil  *time.Time `json:"valid_until"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// NewQuote creates a draft quote header. A nil ValidUntil is set to
// creation time plus validity.
func NewQuote(number string, companyID, userID uuid.UUID, totals Totals, details QuoteDetails, validity time.Duration) (*Quote, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if validity <= 0 {
		validity = DefaultQuoteValidity
	}

	now := time.Now()
	validUntil := now.Add(validity)
	if details.ValidUntil != nil {
		if !details.ValidUntil.After(now) {
			return nil, shared.NewDomainError("INVALID_VALID_UNTIL", "Valid-until date must be in the future")
		}
		validUntil = *details.ValidUntil
	}

	return &Quote{
		ID:          uuid.New(),
		QuoteNumber: number,
		CompanyID:   companyID,
		UserID:      userID,
		Status:      QuoteStatusDraft,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		ProjectName: details.ProjectName,
		ValidUntil:  validUntil,
		Notes:       details.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (q *Quote) DocumentID() uuid.UUID { return q.ID }
func (q *Quote) Number() string { return q.QuoteNumber }
func (q *Quote) CreatedAtTime() time.Time { return q.CreatedAt }
func (q *Quote) AttachItems(items []LineItem) { q.Items = items }

// IsExpired reports whether the quote is past its validity at t
func (q *Quote) IsExpired(t time.Time) bool {
	return q.Status == QuoteStatusExpired || t.After(q.ValidUntil)
}
