package domain

import "time"

// Identity is the caller resolved from a bearer token. It is never read from request bodies.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}

// RevokedToken marks a token id as unusable until its natural expiry.
type RevokedToken struct {
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}

func (r *RevokedToken) IsExpired(reference time.Time) bool {
	if r == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !r.ExpiresAt.After(reference)
}
