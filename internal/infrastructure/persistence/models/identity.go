package models

import (
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserModel is the credential row behind an identity
type UserModel struct {
	BaseModel
	Email        string     `gorm:"type:varchar(320);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	LastSignInAt *time.Time `gorm:"index"`
}

func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the row to a UserAccount
func (m *UserModel) ToDomain() *identity.UserAccount {
	return &identity.UserAccount{
		User: identity.User{
			ID:           m.ID,
			Email:        m.Email,
			CreatedAt:    m.CreatedAt,
			LastSignInAt: m.LastSignInAt,
		},
		PasswordHash: m.PasswordHash,
	}
}

// UserModelFromDomain creates a row from a UserAccount
func UserModelFromDomain(a *identity.UserAccount) *UserModel {
	return &UserModel{
		BaseModel: BaseModel{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.CreatedAt,
		},
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		LastSignInAt: a.LastSignInAt,
	}
}

// ProfileModel is the dealer-facing profile; its id equals the user id
type ProfileModel struct {
	BaseModel
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	FullName  string     `gorm:"type:varchar(200)"`
	Email     string     `gorm:"type:varchar(320)"`
	Phone     string     `gorm:"type:varchar(50)"`
	Role      string     `gorm:"type:varchar(20);not null"`
	AvatarURL string     `gorm:"type:varchar(500)"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the row to a Profile
func (m *ProfileModel) ToDomain() *identity.Profile {
	return &identity.Profile{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		FullName:  m.FullName,
		Email:     m.Email,
		Phone:     m.Phone,
		Role:      m.Role,
		AvatarURL: m.AvatarURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProfileModelFromDomain creates a row from a Profile
func ProfileModelFromDomain(p *identity.Profile) *ProfileModel {
	return &ProfileModel{
		BaseModel: BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		CompanyID: p.CompanyID,
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
	}
}

// CompanyModel is a dealer company account
type CompanyModel struct {
	BaseModel
	Name            string          `gorm:"type:varchar(200);not null"`
	AccountNumber   string          `gorm:"type:varchar(50);index"`
	TaxJurisdiction string          `gorm:"type:varchar(20)"`
	CreditLimit     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PaymentTerms    string          `gorm:"type:varchar(50)"`
	AddressLine1    string          `gorm:"type:varchar(200)"`
	AddressLine2    string          `gorm:"type:varchar(200)"`
	City            string          `gorm:"type:varchar(100)"`
	State           string          `gorm:"type:varchar(100)"`
	PostalCode      string          `gorm:"type:varchar(20)"`
	Country         string          `gorm:"type:varchar(2)"`
	Phone           string          `gorm:"type:varchar(50)"`
	IsActive        bool            `gorm:"not null"`
}

func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the row to a Company
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		AccountNumber:   m.AccountNumber,
		TaxJurisdiction: m.TaxJurisdiction,
		CreditLimit:     m.CreditLimit,
		PaymentTerms:    m.PaymentTerms,
		AddressLine1:    m.AddressLine1,
		AddressLine2:    m.AddressLine2,
		City:            m.City,
		State:           m.State,
		PostalCode:      m.PostalCode,
		Country:         m.Country,
		Phone:           m.Phone,
		IsActive:        m.IsActive,
	}
}

// CompanyModelFromDomain creates a row from a Company
func CompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{
		Name:            c.Name,
		AccountNumber:   c.AccountNumber,
		TaxJurisdiction: c.TaxJurisdiction,
		CreditLimit:     c.CreditLimit,
		PaymentTerms:    c.PaymentTerms,
		AddressLine1:    c.AddressLine1,
		AddressLine2:    c.AddressLine2,
		City:            c.City,
		State:           c.State,
		PostalCode:      c.PostalCode,
		Country:         c.Country,
		Phone:           c.Phone,
		IsActive:        c.IsActive,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
