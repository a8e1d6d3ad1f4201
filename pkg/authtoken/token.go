// Package authtoken issues and verifies the HS256 bearer tokens shared with
// the external identity provider.
package authtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
)

// Claims carries the caller identity. UserID is accepted for tokens minted
// before the subject claim was used.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the caller described by the claims.
func (c *Claims) Identity() domain.Identity {
	if c == nil {
		return domain.Identity{}
	}
	id := c.Subject
	if id == "" {
		id = c.UserID
	}
	return domain.Identity{ID: id, Name: c.Name, Email: c.Email}
}

// Expiry returns the token expiry, or the zero time when the token never expires.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewManager returns a Manager signing with secret. An empty issuer disables the issuer check.
func NewManager(secret, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("authtoken: empty secret")
	}
	return &Manager{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for identity valid for ttl. A non-positive ttl yields a token without expiry.
func (m *Manager) Issue(identity domain.Identity, ttl time.Duration) (string, *Claims, error) {
	if identity.IsZero() {
		return "", nil, domain.ErrInvalidPayload
	}

	now := m.now()
	claims := &Claims{
		Name:  identity.Name,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  identity.ID,
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies the signature, algorithm, time claims and issuer of token.
func (m *Manager) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}

	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid token issuer")
	}
	if claims.Identity().IsZero() {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "token has no subject")
	}
	return claims, nil
}
