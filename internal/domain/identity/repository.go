package identity

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines persistence for dealer profiles
type ProfileRepository interface {
	// FindByUserID returns shared.ErrNotFound when the user has no profile
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// Create inserts a new profile row
	Create(ctx context.Context, profile *Profile) error

	// Update applies the update to the row owned by userID and returns the
	// row as persisted. Zero affected rows yield shared.ErrNotFound, more
	// than one yield shared.ErrAmbiguousUpdate.
	Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*Profile, error)
}

// CompanyRepository defines read access to dealer companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
}

// UserRepository is the credential store behind the auth adapter
type UserRepository interface {
	Create(ctx context.Context, account *UserAccount) error
	FindByEmail(ctx context.Context, email string) (*UserAccount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*UserAccount, error)
	TouchLastSignIn(ctx context.Context, id uuid.UUID) error
}
