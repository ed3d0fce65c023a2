// Package dbtest opens a migrated in-memory SQLite database for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/database"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
)

var seq atomic.Int64

// New returns a fresh, fully migrated database private to t. It is closed
// when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:fleet_test_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	db, err := database.Open(context.Background(), database.SQLite, dsn, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(logger.NewNop()))
	return db
}
