package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.GitHubService, "ghp_abc123"))

	val, err := repo.Get(ctx, driven.GitHubService)
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", val)
}

func TestCredentialRepo_ValueIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.GitHubService, "ghp_abc123"))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, driven.GitHubService).Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "ghp_abc123")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	val, err := repo.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.GitHubService, "old-value"))
	require.NoError(t, repo.Set(ctx, driven.GitHubService, "new-value"))

	val, err := repo.Get(ctx, driven.GitHubService)
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.GitHubService, "ghp_abc"))
	require.NoError(t, repo.Set(ctx, "enterprise", "ghe_xyz"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "enterprise", creds[0].Service)
	assert.Equal(t, "ghe_xyz", creds[0].Value)
	assert.Equal(t, driven.GitHubService, creds[1].Service)
	assert.Equal(t, "ghp_abc", creds[1].Value)
	assert.WithinDuration(t, time.Now().UTC(), creds[1].UpdatedAt, time.Minute)
}

func TestCredentialRepo_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	creds, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.GitHubService, "ghp_abc"))
	require.NoError(t, repo.Delete(ctx, driven.GitHubService))

	val, err := repo.Get(ctx, driven.GitHubService)
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, repo.Delete(ctx, driven.GitHubService), "deleting a missing credential is not an error")
}

func TestCredentialRepo_WithoutKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, driven.GitHubService, "ghp_abc"), driven.ErrEncryptionKeyNotSet)

	_, err := repo.Get(ctx, driven.GitHubService)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey).Set(ctx, driven.GitHubService, "ghp_abc"))

	other := NewCredentialRepo(db, bytes.Repeat([]byte{0x07}, 32))
	_, err := other.Get(ctx, driven.GitHubService)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt credential")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RunMigrations(db.Writer))
}
