package identity

import (
	"strings"
	"time"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// User is the authoritative identity issued by the auth backend
type User struct {
	ID           uuid.UUID
	Email        string
	CreatedAt    time.Time
	LastSignInAt *time.Time
}

// Auth failures reported to callers as ordinary errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrWeakPassword       = shared.NewDomainError("WEAK_PASSWORD", "Password must be between 8 and 72 characters")
	ErrEmailTaken         = shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
)

// Credentials are the email/password pair used to sign in
type Credentials struct {
	Email    string
	Password string
}

// Normalize trims and lower-cases the email
func (c Credentials) Normalize() Credentials {
	c.Email = NormalizeEmail(c.Email)
	return c
}

// SignUpInput contains the data needed to register a dealer user
type SignUpInput struct {
	Email     string
	Password  string
	FullName  string
	CompanyID *uuid.UUID
}

// AuthResult is returned by sign-in and sign-up
type AuthResult struct {
	User         *User
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// UserAccount is a stored user together with its password hash
type UserAccount struct {
	User
	PasswordHash string
}

// NewUserAccount creates a new account with a generated ID
func NewUserAccount(email, passwordHash string) (*UserAccount, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email address is required")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	return &UserAccount{
		User: User{
			ID:        uuid.New(),
			Email:     email,
			CreatedAt: time.Now(),
		},
		PasswordHash: passwordHash,
	}, nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
