package identity

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the dealer-side profile row keyed by the user ID
type Profile struct {
	ID        uuid.UUID // same as User.ID
	CompanyID *uuid.UUID
	FullName  string
	Email     string
	Phone     string
	Role      string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Default profile roles
const (
	RoleDealer = "dealer"
	RoleAdmin  = "admin"
)

// NewProfile creates the profile row provisioned at sign-up
func NewProfile(user *User, fullName string, companyID *uuid.UUID) *Profile {
	now := time.Now()
	return &Profile{
		ID:        user.ID,
		CompanyID: companyID,
		FullName:  fullName,
		Email:     user.Email,
		Role:      RoleDealer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasCompany reports whether the profile references a company
func (p *Profile) HasCompany() bool {
	return p != nil && p.CompanyID != nil && *p.CompanyID != uuid.Nil
}

// ProfileUpdate carries the editable profile fields; nil means unchanged
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// IsEmpty reports whether the update changes nothing
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Phone == nil && u.AvatarURL == nil
}

// Columns returns the column/value map for the non-nil fields
func (u ProfileUpdate) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if u.FullName != nil {
		cols["full_name"] = *u.FullName
	}
	if u.Phone != nil {
		cols["phone"] = *u.Phone
	}
	if u.AvatarURL != nil {
		cols["avatar_url"] = *u.AvatarURL
	}
	return cols
}
