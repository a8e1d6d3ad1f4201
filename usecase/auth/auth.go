package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/authtoken"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
)

type UseCase struct {
	tokens      *authtoken.Manager
	revocations repository.RevocationRepository
	logger      *zap.Logger
}

// New builds the auth use case. revocations may be nil, in which case tokens
// stay valid until they expire and Revoke reports ErrRevocationDisabled.
func New(tokens *authtoken.Manager, revocations repository.RevocationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

// Authenticate verifies a bearer token and returns its claims.
func (uc *UseCase) Authenticate(ctx context.Context, token string) (*authtoken.Claims, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if uc.revocations == nil {
		return claims, nil
	}

	revoked, err := uc.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("revocation lookup failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "revocation store unavailable", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denylists the token described by claims until it expires.
func (uc *UseCase) Revoke(ctx context.Context, claims *authtoken.Claims) (string, error) {
	if uc.revocations == nil {
		return "", domain.ErrRevocationDisabled
	}
	if claims == nil || claims.ID == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "token has no id")
	}

	entry := domain.RevokedToken{
		TokenID:   claims.ID,
		UserID:    claims.Identity().ID,
		ExpiresAt: claims.Expiry(),
		RevokedAt: time.Now(),
	}
	if err := uc.revocations.Revoke(ctx, entry); err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "revoke token", err)
	}

	logger.WithRequestID(ctx, uc.logger).Info("token revoked",
		zap.String("token_id", entry.TokenID),
		zap.String("user_id", entry.UserID))
	return entry.TokenID, nil
}

func (uc *UseCase) RevocationEnabled() bool {
	return uc.revocations != nil
}
