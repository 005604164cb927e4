package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"promptdepot/internal/platform/config"
)

// Claims is the subset of the identity provider's access-token payload the
// server cares about. Subject is the stable external user id that local user
// rows are keyed on.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens issued by the external identity provider.
// The server never mints tokens; it only checks the provider's HS256
// signature and standard claims.
type Verifier struct {
	config config.IdentityConfig
}

func NewVerifier(cfg config.IdentityConfig) *Verifier {
	return &Verifier{config: cfg}
}

func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(v.config.JWTSecret), nil
	}, opts...)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
