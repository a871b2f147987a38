package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewTokenService(TokenConfig{Secret: "secret-secret-secret-secret-1234", Issuer: "pairup", TTL: time.Hour, Clock: func() time.Time { return now }})
	require.NoError(t, err)

	tok, exp, err := svc.Issue("64b000000000000000000001", "student")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000001", claims.UserID)
	assert.Equal(t, "student", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, err := NewTokenService(TokenConfig{Secret: "secret-a-secret-a-secret-a-12345", Issuer: "pairup", TTL: time.Hour, Clock: clock})
	require.NoError(t, err)
	other, err := NewTokenService(TokenConfig{Secret: "secret-b-secret-b-secret-b-12345", Issuer: "pairup", Clock: clock})
	require.NoError(t, err)
	otherIssuer, err := NewTokenService(TokenConfig{Secret: "secret-a-secret-a-secret-a-12345", Issuer: "elsewhere", Clock: clock})
	require.NoError(t, err)

	good, _, err := svc.Issue("64b000000000000000000001", "admin")
	require.NoError(t, err)
	forged, _, _ := other.Issue("64b000000000000000000001", "admin")
	foreign, _, _ := otherIssuer.Issue("64b000000000000000000001", "admin")
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	_, err = svc.Parse("")
	assert.Error(t, err, "empty")
	_, err = svc.Parse(forged)
	assert.Error(t, err, "wrong secret")
	_, err = svc.Parse(foreign)
	assert.Error(t, err, "wrong issuer")
	_, err = svc.Parse(none)
	assert.Error(t, err, "alg none")

	now = now.Add(2 * time.Hour)
	_, err = svc.Parse(good)
	assert.Error(t, err, "expired")
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("", "correct horse"))

	_, err = HashPassword("short")
	assert.Error(t, err)
}
