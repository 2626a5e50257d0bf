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

// GormProfileRepository implements identity.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByUserID returns the profile owned by the user
func (r *GormProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.Profile, error) {
	var m models.ProfileModel
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Create inserts a profile row
func (r *GormProfileRepository) Create(ctx context.Context, profile *identity.Profile) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProfileModelFromDomain(profile)).Error)
}

// Update writes the non-nil fields and re-reads the row in the same transaction
func (r *GormProfileRepository) Update(ctx context.Context, userID uuid.UUID, update identity.ProfileUpdate) (*identity.Profile, error) {
	if update.IsEmpty() {
		return r.FindByUserID(ctx, userID)
	}

	var profile *identity.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := update.Columns()
		cols["updated_at"] = time.Now().UTC()

		result := tx.Model(&models.ProfileModel{}).Where("id = ?", userID).Updates(cols)
		if result.Error != nil {
			return translateError(result.Error)
		}
		switch {
		case result.RowsAffected == 0:
			return shared.ErrNotFound
		case result.RowsAffected > 1:
			return shared.ErrAmbiguousUpdate
		}

		var m models.ProfileModel
		if err := tx.Where("id = ?", userID).First(&m).Error; err != nil {
			return translateError(err)
		}
		profile = m.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
