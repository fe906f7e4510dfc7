package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestAPIKeyStore_Lookup(t *testing.T) {
	store := NewAPIKeyStore([]string{"key-one", "key-two"})

	id, err := store.Lookup("key-one")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if id == "" {
		t.Error("Expected caller ID")
	}
	if id == "key-one" {
		t.Error("Caller ID must not be the plaintext key")
	}

	_, err = store.Lookup("key-unknown")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestAPIKeyStore_OpenAccess(t *testing.T) {
	store := NewAPIKeyStore(nil)

	if !store.Open() {
		t.Error("Expected open store with no keys")
	}
	if _, err := store.Lookup("anything"); err != nil {
		t.Errorf("Expected open store to accept any key, got %v", err)
	}
}

func TestAdminJWT_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateAdminJWT("admin-1", secret)
	if err != nil {
		t.Fatalf("GenerateAdminJWT failed: %v", err)
	}

	claims, err := ValidateAdminJWT(token, secret)
	if err != nil {
		t.Fatalf("ValidateAdminJWT failed: %v", err)
	}
	if claims.AdminID != "admin-1" {
		t.Errorf("Expected admin-1, got %s", claims.AdminID)
	}
}

func TestAdminJWT_WrongSecretRejected(t *testing.T) {
	token, err := GenerateAdminJWT("admin-1", []byte("right-secret"))
	if err != nil {
		t.Fatalf("GenerateAdminJWT failed: %v", err)
	}

	if _, err := ValidateAdminJWT(token, []byte("wrong-secret")); err == nil {
		t.Fatal("Expected validation failure with wrong secret")
	}
}

func TestAdminJWT_ExpiredRejected(t *testing.T) {
	secret := []byte("test-secret")
	claims := AdminClaims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := ValidateAdminJWT(token, secret); err == nil {
		t.Fatal("Expected validation failure for expired token")
	}
}

func TestAdminJWT_UnsignedRejected(t *testing.T) {
	claims := AdminClaims{AdminID: "admin-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := ValidateAdminJWT(token, []byte("secret")); err == nil {
		t.Fatal("Expected validation failure for alg=none token")
	}
}
