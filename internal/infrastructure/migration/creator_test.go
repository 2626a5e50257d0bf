package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dealerportal/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Users-Table", "add_users_table"},
		{"ADD_USERS_TABLE", "add_users_table"},
		{"add__users__table", "add_users_table"},
		{"Add Quotes 123", "add_quotes_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "Add dealer notes", "notes on companies")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_dealer_notes.up.sql"), first.UpPath)

	body, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- Description: notes on companies")
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "index quotes", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000010_b.up.sql", "000002_a.up.sql", "000002_a.down.sql", "notes.txt", "x_bad.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	list, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].Version)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, uint(10), list[1].Version)

	list, err = ListMigrations(os.DirFS(filepath.Join(dir, "missing")))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrations(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)

	names := make([]string, len(list))
	for i, m := range list {
		names[i] = m.Name
		_, err := migrations.FS.Open(m.DownPath)
		assert.NoError(t, err, "missing rollback for %s", m.UpPath)
	}
	assert.Equal(t, []string{"identity", "catalog", "trade"}, names)
}
