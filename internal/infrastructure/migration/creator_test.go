package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rentflow/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create payment obligations", "create_payment_obligations"},
		{"Add-Late-Fee", "add_late_fee"},
		{"ADD_RECEIPT_REF", "add_receipt_ref"},
		{"split__plans", "split_plans"},
		{"Index 2", "index_2"},
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
	now := time.Date(2026, 3, 1, 9, 3, 0, 0, time.UTC)

	mf, err := createAt(dir, "add receipt ref", "Store the receipt object key", now)
	require.NoError(t, err)

	assert.Equal(t, "20260301090300", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20260301090300_add_receipt_ref.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260301090300_add_receipt_ref.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add receipt ref")
	assert.Contains(t, string(up), "Store the receipt object key")
	assert.Contains(t, string(up), "2026-03-01T09:03:00Z")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_Rejects(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("unusable name", func(t *testing.T) {
		_, err := createAt(dir, "!!!", "", now)
		assert.Error(t, err)
	})

	t.Run("existing pair is not overwritten", func(t *testing.T) {
		_, err := createAt(dir, "same", "", now)
		require.NoError(t, err)
		_, err = createAt(dir, "same", "", now)
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"20260301090200_payments.up.sql",
		"20260301090200_payments.down.sql",
		"20260301090000_contracts.up.sql",
		"20260301090000_contracts.down.sql",
		"README.md",
		".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260301090000_contracts", "20260301090200_payments"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCheckPairs(t *testing.T) {
	t.Run("complete pairs", func(t *testing.T) {
		fsys := fstest.MapFS{
			"1_a.up.sql":   {Data: []byte("")},
			"1_a.down.sql": {Data: []byte("")},
		}
		assert.NoError(t, CheckPairs(fsys))
	})

	t.Run("missing halves", func(t *testing.T) {
		fsys := fstest.MapFS{
			"1_a.up.sql":   {Data: []byte("")},
			"2_b.down.sql": {Data: []byte("")},
		}
		err := CheckPairs(fsys)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1_a has no down file")
		assert.Contains(t, err.Error(), "2_b has no up file")
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	require.NoError(t, CheckPairs(migrations.FS))

	names, err := listFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	var schema strings.Builder
	for _, name := range names {
		data, err := migrations.FS.ReadFile(name + upSuffix)
		require.NoError(t, err)
		schema.Write(data)
	}
	for _, table := range []string{
		"rental_contracts",
		"payment_obligations",
		"split_plans",
		"payment_transactions",
		"reconciliation_exceptions",
	} {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema.String(), "uq_transactions_gateway")
	assert.Contains(t, schema.String(), "uq_obligations_installment")
}
