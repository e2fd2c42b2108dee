package services

import (
	"github.com/maxaizer/hh-search-bot/internal/repositories"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func newTestDb(t *testing.T) *repositories.DbContext {
	t.Helper()

	dbContext, err := repositories.NewDbContext(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, dbContext.Migrate())

	t.Cleanup(func() { _ = dbContext.Close() })
	return dbContext
}

func ptr[T any](value T) *T {
	return &value
}
