package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type revocationRepository struct {
	client *redislib.Client
	prefix string
}

// NewRevocationRepository creates a Redis-backed token denylist. Entries expire
// together with the token they revoke; tokens without an expiry stay revoked
// for good.
func NewRevocationRepository(client *redislib.Client) repository.RevocationRepository {
	return &revocationRepository{
		client: client,
		prefix: "revoked:",
	}
}

func (r *revocationRepository) Revoke(ctx context.Context, token domain.RevokedToken) error {
	if token.TokenID == "" {
		return domain.ErrInvalidPayload
	}
	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now()
	}

	// zero TTL keeps the key without expiry
	var ttl time.Duration
	if !token.ExpiresAt.IsZero() {
		if token.IsExpired(token.RevokedAt) {
			return nil
		}
		ttl = token.ExpiresAt.Sub(token.RevokedAt)
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(token.TokenID), payload, ttl).Err()
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revocationRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *revocationRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
