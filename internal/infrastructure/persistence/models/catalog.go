package models

import (
	"github.com/dealerportal/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is a catalog row
type ProductModel struct {
	BaseModel
	SKU         string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(100);index"`
	Brand       string          `gorm:"type:varchar(100);index"`
	DealerPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MSRP        decimal.Decimal `gorm:"column:msrp;type:decimal(12,2);not null"`
	IsActive    bool            `gorm:"not null;index"`
}

func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Brand:       m.Brand,
		DealerPrice: m.DealerPrice,
		MSRP:        m.MSRP,
		IsActive:    m.IsActive,
	}
}

// ProductModelFromDomain creates a row from a Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		DealerPrice: p.DealerPrice,
		MSRP:        p.MSRP,
		IsActive:    p.IsActive,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
