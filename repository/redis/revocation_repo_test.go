package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

func newTestRepository(t *testing.T) (repository.RevocationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRevocationRepository(client), mr
}

func TestRevoke_ExpiresWithToken(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Revoke(ctx, domain.RevokedToken{
		TokenID:   "jti-1",
		UserID:    "u1",
		ExpiresAt: now.Add(time.Hour),
		RevokedAt: now,
	}))

	assert.Equal(t, time.Hour, mr.TTL("revoked:jti-1"))
	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	raw, err := mr.Get("revoked:jti-1")
	require.NoError(t, err)
	var stored domain.RevokedToken
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "u1", stored.UserID)

	mr.FastForward(time.Hour + time.Second)
	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_TokenWithoutExpiryStaysRevoked(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, domain.RevokedToken{TokenID: "jti-1", UserID: "u1"}))
	assert.Zero(t, mr.TTL("revoked:jti-1"))

	mr.FastForward(365 * 24 * time.Hour)
	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevoke_ExpiredTokenIsSkipped(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Revoke(ctx, domain.RevokedToken{
		TokenID:   "jti-old",
		ExpiresAt: now.Add(-time.Minute),
		RevokedAt: now,
	}))

	assert.False(t, mr.Exists("revoked:jti-old"))
	revoked, err := repo.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevoke_EmptyTokenID(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Revoke(ctx, domain.RevokedToken{}), domain.ErrInvalidPayload)
	assert.Empty(t, mr.Keys())

	revoked, err := repo.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationRepository_Unreachable(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))
	mr.Close()

	assert.Error(t, repo.Ping(ctx))
	_, err := repo.IsRevoked(ctx, "jti-1")
	assert.Error(t, err)
}
