package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func testAuth(secret []byte) *Auth {
	return &Auth{
		Audience:   "api://tracklane",
		Issuer:     "https://issuer/",
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://tracklane",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestBearerTokenSuccess(t *testing.T) {
	token, err := bearerToken("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenMissing(t *testing.T) {
	if _, err := bearerToken(""); err == nil || err.Error() != "missing authorization header" {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenMalformed(t *testing.T) {
	for _, header := range []string{
		"Bearer",
		"Bearer ",
		"Basic abc.def.ghi",
		"Bearer not-a-jwt",
		"Bearer " + strings.Repeat(".", 1000),
	} {
		if _, err := bearerToken(header); err == nil {
			t.Fatalf("expected error for header %q", header)
		}
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signToken(t, secret, validClaims())

	userID, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromAuthHeaderExpired(t *testing.T) {
	secret := []byte("test-secret")
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	signed := signToken(t, secret, claims)

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestUserIDFromAuthHeaderWrongAudience(t *testing.T) {
	secret := []byte("test-secret")
	claims := validClaims()
	claims["aud"] = "api://someone-else"
	signed := signToken(t, secret, claims)

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatalf("expected audience error")
	}
}

func TestUserIDFromAuthHeaderMissingSub(t *testing.T) {
	secret := []byte("test-secret")
	claims := validClaims()
	delete(claims, "sub")
	signed := signToken(t, secret, claims)

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatalf("expected missing sub error")
	}
}

func TestUserIDFromAuthHeaderWrongSecret(t *testing.T) {
	signed := signToken(t, []byte("other-secret"), validClaims())

	if _, err := testAuth([]byte("test-secret")).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatalf("expected signature error")
	}
}
