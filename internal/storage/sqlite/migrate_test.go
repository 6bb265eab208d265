package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsIsRepeatable(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "vocabs_test.db")

	db, err := Open(DriverSQLite, dbPath)
	require.NoError(t, err)
	repo := NewRepository(db)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	for _, table := range []string{"vocabularies", "terms", "predicates", "properties"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "root@/vocabs")
	assert.Error(t, err)
}
