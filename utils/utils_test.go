package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyJPY(t *testing.T) {
	tests := map[float64]string{
		0:         "¥0",
		800:       "¥800",
		5600:      "¥5,600",
		30000:     "¥30,000",
		1234567:   "¥1,234,567",
		-1200.5:   "-¥1,201",
		999.4:     "¥999",
		100000000: "¥100,000,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrencyJPY(in), "amount %v", in)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "staff")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    tokenIssuer,
		},
	})
	signed, err := expired.SignedString(jwtSecret)
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{UserID: 1, Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}})
	signed, err = foreign.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{UserID: 1, Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere"}})
	signed, err = wrongIssuer.SignedString(jwtSecret)
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")
}

func TestRevokeToken(t *testing.T) {
	token, err := GenerateToken(7, "cast")
	require.NoError(t, err)

	RevokeToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenRevoked(token))
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Entries past their expiry no longer count and are swept on the next revoke.
	RevokeToken("stale", time.Now().Add(-time.Second))
	assert.False(t, IsTokenRevoked("stale"))
	RevokeToken("another", time.Now().Add(time.Hour))
	revokedMu.RLock()
	_, kept := revokedTokens["stale"]
	revokedMu.RUnlock()
	assert.False(t, kept)
}
