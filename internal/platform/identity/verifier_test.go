package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"promptdepot/internal/platform/config"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func testClaims(subject string) *Claims {
	return &Claims{
		Email:         "user@example.com",
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "https://idp.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifier_ValidToken(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{
		JWTSecret: testSecret,
		Issuer:    "https://idp.example.com",
		Audience:  "authenticated",
	})

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), testClaims("ext_abc"))

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Failed to verify token: %v", err)
	}
	if claims.Subject != "ext_abc" {
		t.Errorf("Expected subject ext_abc, got %s", claims.Subject)
	}
	if claims.Email != "user@example.com" || !claims.EmailVerified {
		t.Errorf("Email claims did not round-trip: %+v", claims)
	}
}

func TestVerifier_WrongSecret(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{JWTSecret: testSecret})

	token := signToken(t, jwt.SigningMethodHS256, []byte("some-other-secret"), testClaims("ext_abc"))

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification to fail for a token signed with a different secret")
	}
}

func TestVerifier_Expired(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{JWTSecret: testSecret})

	claims := testClaims("ext_abc")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification to fail for an expired token")
	}
}

func TestVerifier_WrongIssuer(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{
		JWTSecret: testSecret,
		Issuer:    "https://idp.example.com",
	})

	claims := testClaims("ext_abc")
	claims.Issuer = "https://evil.example.com"
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification to fail for a wrong issuer")
	}
}

func TestVerifier_MissingSubject(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{JWTSecret: testSecret})

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), testClaims(""))

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification to fail for a token without a subject")
	}
}

func TestVerifier_UnsignedToken(t *testing.T) {
	verifier := NewVerifier(config.IdentityConfig{JWTSecret: testSecret})

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims("ext_abc")).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build unsigned token: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification to reject the none algorithm")
	}
}
