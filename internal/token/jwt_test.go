package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestJWT_Inspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name   string
		claims jwt.Claims
		wantID string
	}{
		{
			name:   "userId claim",
			claims: Claims{UserID: "u-1", ID: "ignored", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}},
			wantID: "u-1",
		},
		{
			name:   "id claim",
			claims: Claims{ID: "u-2", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}},
			wantID: "u-2",
		},
		{
			name:   "subject fallback",
			claims: jwt.RegisteredClaims{Subject: "u-3", ExpiresAt: jwt.NewNumericDate(exp)},
			wantID: "u-3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewJWT().Inspect(sign(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.UserID)
			assert.True(t, exp.Equal(got.ExpiresAt))
			assert.False(t, got.Expired(time.Now()))
		})
	}
}

func TestJWT_Inspect_ExpiredTokenStillReadable(t *testing.T) {
	tok := sign(t, Claims{UserID: "u-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})

	got, err := NewJWT().Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.Expired(time.Now()))
}

func TestJWT_Inspect_NoExpiry(t *testing.T) {
	got, err := NewJWT().Inspect(sign(t, Claims{UserID: "u-1"}))
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.IsZero())
	assert.False(t, got.Expired(time.Now()))
}

func TestJWT_Inspect_Garbage(t *testing.T) {
	_, err := NewJWT().Inspect("not-a-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}
