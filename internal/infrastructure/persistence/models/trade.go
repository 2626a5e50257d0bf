package models

import (
	"time"

	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model of an order header
type OrderModel struct {
	BaseModel
	OrderNumber           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CompanyID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status                string          `gorm:"type:varchar(20);not null;index"`
	Subtotal              decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Tax                   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Total                 decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ShippingAddress       string          `gorm:"type:text"`
	BillingAddress        string          `gorm:"type:text"`
	PONumber              string          `gorm:"column:po_number;type:varchar(100)"`
	Notes                 string          `gorm:"type:text"`
	RequestedDeliveryDate *time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the row to an Order header without items
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		ID:                    m.ID,
		OrderNumber:           m.OrderNumber,
		CompanyID:             m.CompanyID,
		UserID:                m.UserID,
		Status:                trade.OrderStatus(m.Status),
		Subtotal:              m.Subtotal,
		Tax:                   m.Tax,
		Total:                 m.Total,
		ShippingAddress:       m.ShippingAddress,
		BillingAddress:        m.BillingAddress,
		PONumber:              m.PONumber,
		Notes:                 m.Notes,
		RequestedDeliveryDate: m.RequestedDeliveryDate,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// OrderModelFromDomain creates a header row from an Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	return &OrderModel{
		BaseModel:             BaseModel{ID: o.ID, CreatedAt: o.CreatedAt.UTC(), UpdatedAt: o.UpdatedAt.UTC()},
		OrderNumber:           o.OrderNumber,
		CompanyID:             o.CompanyID,
		UserID:                o.UserID,
		Status:                o.Status.String(),
		Subtotal:              o.Subtotal,
		Tax:                   o.Tax,
		Total:                 o.Total,
		ShippingAddress:       o.ShippingAddress,
		BillingAddress:        o.BillingAddress,
		PONumber:              o.PONumber,
		Notes:                 o.Notes,
		RequestedDeliveryDate: o.RequestedDeliveryDate,
	}
}

// OrderItemModel is a line of an order
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the row to a LineItem
func (m *OrderItemModel) ToDomain() trade.LineItem {
	return trade.LineItem{
		ID:          m.ID,
		DocumentID:  m.OrderID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		PriceAtTime: m.PriceAtTime,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates an order line row
func OrderItemModelFromDomain(i trade.LineItem) OrderItemModel {
	return OrderItemModel{
		ID:          i.ID,
		OrderID:     i.DocumentID,
		ProductID:   i.ProductID,
		Quantity:    i.Quantity,
		PriceAtTime: i.PriceAtTime,
		CreatedAt:   i.CreatedAt.UTC(),
	}
}

// QuoteModel is the persistence model of a quote header
type QuoteModel struct {
	BaseModel
	QuoteNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status      string          `gorm:"type:varchar(20);not null;index"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Tax         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ProjectName string          `gorm:"type:varchar(200)"`
	ValidUntil  time.Time       `gorm:"not null"`
	Notes       string          `gorm:"type:text"`
}

func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the row to a Quote header without items
func (m *QuoteModel) ToDomain() *trade.Quote {
	return &trade.Quote{
		ID:          m.ID,
		QuoteNumber: m.QuoteNumber,
		CompanyID:   m.CompanyID,
		UserID:      m.UserID,
		Status:      trade.QuoteStatus(m.Status),
		Subtotal:    m.Subtotal,
		Tax:         m.Tax,
		Total:       m.Total,
		ProjectName: m.ProjectName,
		ValidUntil:  m.ValidUntil,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// QuoteModelFromDomain creates a header row from a Quote
func QuoteModelFromDomain(q *trade.Quote) *QuoteModel {
	return &QuoteModel{
		BaseModel:   BaseModel{ID: q.ID, CreatedAt: q.CreatedAt.UTC(), UpdatedAt: q.UpdatedAt.UTC()},
		QuoteNumber: q.QuoteNumber,
		CompanyID:   q.CompanyID,
		UserID:      q.UserID,
		Status:      q.Status.String(),
		Subtotal:    q.Subtotal,
		Tax:         q.Tax,
		Total:       q.Total,
		ProjectName: q.ProjectName,
		ValidUntil:  q.ValidUntil.UTC(),
		Notes:       q.Notes,
	}
}

// QuoteItemModel is a line of a quote
type QuoteItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (QuoteItemModel) TableName() string {
	return "quote_items"
}

// ToDomain converts the row to a LineItem
func (m *QuoteItemModel) ToDomain() trade.LineItem {
	return trade.LineItem{
		ID:          m.ID,
		DocumentID:  m.QuoteID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		PriceAtTime: m.PriceAtTime,
		CreatedAt:   m.CreatedAt,
	}
}

// QuoteItemModelFromDomain creates a quote line row
func QuoteItemModelFromDomain(i trade.LineItem) QuoteItemModel {
	return QuoteItemModel{
		ID:          i.ID,
		QuoteID:     i.DocumentID,
		ProductID:   i.ProductID,
		Quantity:    i.Quantity,
		PriceAtTime: i.PriceAtTime,
		CreatedAt:   i.CreatedAt.UTC(),
	}
}
