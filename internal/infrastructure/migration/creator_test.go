package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments index", "add_payments_index"},
		{"Add-Payments-Index", "add_payments_index"},
		{"add__payments", "add_payments"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestListMigrations_Embedded(t *testing.T) {
	migrations, err := ListMigrations(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "order_to_cash", first.Name)
	assert.True(t, first.HasDown)
	assert.Equal(t, "000001_order_to_cash", first.String())
}

func TestListMigrations_OrdersAndSkipsNoise(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_late.up.sql":    {Data: []byte("SELECT 1;")},
		"000002_early.up.sql":   {Data: []byte("SELECT 1;")},
		"000002_early.down.sql": {Data: []byte("SELECT 1;")},
		"README.md":             {Data: []byte("notes")},
		"bad.up.sql":            {Data: []byte("SELECT 1;")},
	}
	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, uint(2), migrations[0].Version)
	assert.True(t, migrations[0].HasDown)
	assert.Equal(t, uint(10), migrations[1].Version)
	assert.False(t, migrations[1].HasDown)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add payments index", "speeds up customer statements")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_payments_index.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	body, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "speeds up customer statements")

	second, err := CreateMigration(dir, "Drop Notes", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "drop_notes", second.Name)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}
