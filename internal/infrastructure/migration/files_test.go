package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrdersByVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_create_order_tables.up.sql",
		"000002_create_order_tables.down.sql",
		"000001_create_catalog_tables.up.sql",
		"000001_create_catalog_tables.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql\n"), 0o644))
	}

	entries, err := List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(1), entries[0].Version)
	assert.Equal(t, "create_catalog_tables", entries[0].Name)
	assert.Equal(t, uint(2), entries[1].Version)
}

func TestListMissingDirectory(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateUsesNextSequentialVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000041_seed.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000041_seed.down.sql"), nil, 0o644))

	up, down, err := Create(dir, "Add Retry Columns")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "000042_add_retry_columns.up.sql"), up)
	assert.Equal(t, filepath.Join(dir, "000042_add_retry_columns.down.sql"), down)

	content, err := os.ReadFile(up)
	require.NoError(t, err)
	assert.Contains(t, string(content), "000042_add_retry_columns")
}

func TestCreateInEmptyDirectoryStartsAtOne(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	up, _, err := Create(dir, "init")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "000001_init.up.sql"), up)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Users Table", "add_users_table"},
		{"weird--name__here ", "weird_name_here"},
		{"MiXeD123", "mixed123"},
		{"châteaux rows", "chteaux_rows"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}
