package model

import "time"

// TokenClaims are the readable claims of an API token.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// TokenInspector reads claims from an opaque API token without verifying it.
type TokenInspector interface {
	Inspect(token string) (TokenClaims, error)
}
