package trade

import (
	"time"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a dealer order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// Order is the header of a dealer purchase order
type Order struct {
	ID                    uuid.UUID
	OrderNumber           string
	CompanyID             uuid.UUID
	UserID                uuid.UUID
	Status                OrderStatus
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
	ShippingAddress       string
	BillingAddress        string
	PONumber              string
	Notes                 string
	RequestedDeliveryDate *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Items                 []LineItem
}

// OrderDetails are the optional header fields a dealer may supply
type OrderDetails struct {
	ShippingAddress       string     `json:"shipping_address" validate:"max=1000"`
	BillingAddress        string     `json:"billing_address" validate:"max=1000"`
	PONumber              string     `json:"po_number" validate:"max=100"`
	Notes                 string     `json:"notes" validate:"max=2000"`
	RequestedDeliveryDate *time.Time `json:"requested_delivery_date"`
}

// NewOrder creates a pending order header
func NewOrder(number string, companyID, userID uuid.UUID, totals Totals, details OrderDetails) (*Order, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if totals.Total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Order total cannot be negative")
	}

	now := time.Now()
	return &Order{
		ID:                    uuid.New(),
		OrderNumber:           number,
		CompanyID:             companyID,
		UserID:                userID,
		Status:                OrderStatusPending,
		Subtotal:              totals.Subtotal,
		Tax:                   totals.Tax,
		Total:                 totals.Total,
		ShippingAddress:       details.ShippingAddress,
		BillingAddress:        details.BillingAddress,
		PONumber:              details.PONumber,
		Notes:                 details.Notes,
		RequestedDeliveryDate: details.RequestedDeliveryDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

func (o *Order) DocumentID() uuid.UUID { return o.ID }
func (o *Order) Number() string { return o.OrderNumber }
func (o *Order) CreatedAtTime() time.Time { return o.CreatedAt }
func (o *Order) AttachItems(items []LineItem) { o.Items = items }

// ItemCount returns the total quantity across lines
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
