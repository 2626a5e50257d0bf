package persistence

import (
	"context"
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts an account; a taken email yields shared.ErrAlreadyExists
func (r *GormUserRepository) Create(ctx context.Context, account *identity.UserAccount) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserModelFromDomain(account)).Error)
}

// FindByEmail looks an account up by normalized email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.UserAccount, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", identity.NormalizeEmail(email)).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByID looks an account up by id
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.UserAccount, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// TouchLastSignIn records a successful sign-in
func (r *GormUserRepository) TouchLastSignIn(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_sign_in_at": now, "updated_at": now})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
