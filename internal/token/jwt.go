package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Claims are the fields the storefront API puts into its tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JWT reads API tokens without checking their signature; the key never
// leaves the server, so the client only looks at the payload.
type JWT struct {
	parser *jwt.Parser
}

var _ model.TokenInspector = (*JWT)(nil)

// NewJWT creates a new token inspector.
func NewJWT() *JWT {
	return &JWT{parser: jwt.NewParser()}
}

// Inspect extracts the user id (userId, then id, then sub) and the expiry of tokenString.
func (j *JWT) Inspect(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	if _, _, err := j.parser.ParseUnverified(tokenString, claims); err != nil {
		return model.TokenClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	out := model.TokenClaims{UserID: claims.UserID}
	if out.UserID == "" {
		out.UserID = claims.ID
	}
	if out.UserID == "" {
		out.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
