package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserAccount(t *testing.T) {
	t.Run("normalizes email", func(t *testing.T) {
		acct, err := NewUserAccount("  Dealer@Example.COM ", "hash")
		require.NoError(t, err)
		assert.Equal(t, "dealer@example.com", acct.Email)
		assert.NotEqual(t, uuid.Nil, acct.ID)
		assert.False(t, acct.CreatedAt.IsZero())
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUserAccount("not-an-email", "hash")
		assert.Error(t, err)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := NewUserAccount("a@b.com", "")
		assert.Error(t, err)
	})
}

func TestProfileUpdate(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())

	name := "Pat Dealer"
	phone := "555-0100"
	cols := ProfileUpdate{FullName: &name, Phone: &phone}.Columns()
	assert.Equal(t, map[string]any{"full_name": name, "phone": phone}, cols)
}

func TestProfile_HasCompany(t *testing.T) {
	var nilProfile *Profile
	assert.False(t, nilProfile.HasCompany())

	p := NewProfile(&User{ID: uuid.New(), Email: "a@b.com"}, "A", nil)
	assert.False(t, p.HasCompany())
	assert.Equal(t, RoleDealer, p.Role)

	companyID := uuid.New()
	p.CompanyID = &companyID
	assert.True(t, p.HasCompany())
}
