package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/authtoken"
)

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]domain.RevokedToken
	err     error
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: make(map[string]domain.RevokedToken)}
}

func (m *memoryRevocations) Revoke(_ context.Context, token domain.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[token.TokenID] = token
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[id]
	return ok, nil
}

func (m *memoryRevocations) Ping(context.Context) error { return m.err }

func issue(t *testing.T, m *authtoken.Manager) string {
	t.Helper()
	token, _, err := m.Issue(domain.Identity{ID: "u1", Name: "Ada"}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthenticateAndRevoke(t *testing.T) {
	tokens, err := authtoken.NewManager("s3cret", "taskboard")
	require.NoError(t, err)
	store := newMemoryRevocations()
	uc := New(tokens, store, nil)
	ctx := context.Background()

	token := issue(t, tokens)
	claims, err := uc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Identity().ID)

	revokedID, err := uc.Revoke(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, revokedID)
	assert.Equal(t, "u1", store.revoked[revokedID].UserID)

	_, err = uc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	other, err := uc.Authenticate(ctx, issue(t, tokens))
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID)
}

func TestAuthenticate_RevocationStoreDown(t *testing.T) {
	tokens, err := authtoken.NewManager("s3cret", "")
	require.NoError(t, err)
	store := newMemoryRevocations()
	store.err = errors.New("redis down")
	uc := New(tokens, store, nil)

	_, err = uc.Authenticate(context.Background(), issue(t, tokens))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestRevocationDisabled(t *testing.T) {
	tokens, err := authtoken.NewManager("s3cret", "")
	require.NoError(t, err)
	uc := New(tokens, nil, nil)
	ctx := context.Background()

	claims, err := uc.Authenticate(ctx, issue(t, tokens))
	require.NoError(t, err)
	assert.False(t, uc.RevocationEnabled())

	_, err = uc.Revoke(ctx, claims)
	assert.ErrorIs(t, err, domain.ErrRevocationDisabled)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	tokens, err := authtoken.NewManager("s3cret", "")
	require.NoError(t, err)
	uc := New(tokens, newMemoryRevocations(), nil)

	_, err = uc.Authenticate(context.Background(), "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}
