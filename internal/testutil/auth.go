package testutil

import (
	"testing"

	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestJWTSecret signs tokens in tests only.
const TestJWTSecret = "test-jwt-secret-for-testing-only-0123456789"

// NewAuthManager returns a Manager backed by db's users collection.
func NewAuthManager(t *testing.T, db *mongo.Database) *auth.Manager {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: TestJWTSecret, Issuer: "pairup-test"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return &auth.Manager{Tokens: tokens, Users: userstore.New(db), CookieName: "pairup_test"}
}

// HashPassword hashes pw or fails the test.
func HashPassword(t *testing.T, pw string) string {
	t.Helper()
	h, err := auth.HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return h
}
