package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

func TestNewDB_FileBackedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadtime.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, RunMigrations(db.Writer))
	require.NoError(t, NewCredentialRepo(db, testKey).Set(ctx, driven.GitHubService, "ghp_persisted"))
	require.NoError(t, db.Close())

	reopened, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, RunMigrations(reopened.Writer))

	val, err := NewCredentialRepo(reopened, testKey).Get(ctx, driven.GitHubService)
	require.NoError(t, err)
	assert.Equal(t, "ghp_persisted", val)
}
