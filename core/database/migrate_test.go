package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFilesOnlyUp(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_index.up.sql",
		"000001_create_expenses_raw.up.sql",
		"000001_create_expenses_raw.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755))

	assert.Equal(t, []string{
		"000001_create_expenses_raw.up.sql",
		"000002_add_index.up.sql",
	}, listMigrationFiles(dir))
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	assert.Equal(t, []string{"000002_b.up.sql", "000003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(0), parseVersion("bogus.up.sql"))
}

func TestResolveMigrationsDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m")
	got, err := resolveMigrationsDir(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = resolveMigrationsDir("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMigrationsDir, filepath.Base(got))
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "expenses", SSLMode: "disable"}
	assert.Equal(t, "user=bot password=p@ss host=db port=5432 dbname=expenses sslmode=disable", cfg.KeywordDSN())
	assert.Equal(t, "postgres://bot:p%40ss@db:5432/expenses?sslmode=disable", cfg.URL())
}
