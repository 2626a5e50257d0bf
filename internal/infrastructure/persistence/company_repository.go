package persistence

import (
	"context"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements identity.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID returns the company or shared.ErrNotFound
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var m models.CompanyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Create inserts a company row
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	return translateError(r.db.WithContext(ctx).Create(models.CompanyModelFromDomain(company)).Error)
}
