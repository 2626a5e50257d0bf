package trade

import (
	"fmt"
	"time"

	"github.com/dealerportal/backend/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a persisted line of an order or quote.
// PriceAtTime is captured when the document is created and never updated.
type LineItem struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
	PriceAtTime decimal.Decimal
	CreatedAt   time.Time
}

// Amount returns quantity times the captured price
func (l LineItem) Amount() decimal.Decimal {
	return l.PriceAtTime.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PriceScale is the number of decimal places a stored price keeps
const PriceScale = 2

// LineInput is a caller-supplied line used when creating a document
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
}

// PriceFitsScale reports whether Price is stored without rounding
func (l LineInput) PriceFitsScale() bool {
	return l.Price.Equal(l.Price.Truncate(PriceScale))
}

// Amount returns quantity times price
func (l LineInput) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewLineItems materializes inputs as line items belonging to documentID
func NewLineItems(documentID uuid.UUID, lines []LineInput, now time.Time) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, LineItem{
			ID:          uuid.New(),
			DocumentID:  documentID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			PriceAtTime: l.Price,
			CreatedAt:   now,
		})
	}
	return items
}

// Pricing errors
var (
	ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is unknown or no longer active")
	ErrPriceMismatch      = shared.NewDomainError("PRICE_MISMATCH", "Price does not match the dealer price")
)

// ProductIDs returns the distinct product ids of lines in input order
func ProductIDs(lines []LineInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// ApplyPrices returns a copy of lines priced from prices, the dealer price of
// each active product. A zero price is filled in; any other price must equal
// the dealer price.
func ApplyPrices(lines []LineInput, prices map[uuid.UUID]decimal.Decimal) ([]LineInput, error) {
	out := make([]LineInput, len(lines))
	for i, l := range lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return nil, shared.NewDomainError(ErrProductUnavailable.Code,
				fmt.Sprintf("Line %d: product %s is unknown or no longer active", i+1, l.ProductID))
		}
		switch {
		case l.Price.IsZero():
			l.Price = price
		case !l.Price.Equal(price):
			return nil, shared.NewDomainError(ErrPriceMismatch.Code,
				fmt.Sprintf("Line %d: price %s does not match the dealer price %s", i+1, l.Price.StringFixed(PriceScale), price.StringFixed(PriceScale)))
		}
		out[i] = l
	}
	return out, nil
}
