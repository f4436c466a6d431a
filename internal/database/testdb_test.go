package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL with a fresh schema. Tests that
// need it are skipped when the variable is not set.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn, Config{MaxConns: 2})
	require.NoError(t, err)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Exec(ctx, "TRUNCATE price_row, price_run, outbox_event")
	require.NoError(t, err)

	return db
}
