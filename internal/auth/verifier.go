package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"invox/internal/config"
	"invox/internal/domain"
)

// Claims are the token claims this service reads. Tokens come from an
// external identity collaborator; only the subject matters here and it is
// treated as an opaque caller identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and extracts the caller identity.
type Verifier interface {
	Verify(tokenString string) (string, error)
}

type hmacVerifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier that checks HS256 signatures against the
// shared secret from config.
func NewVerifier(cfg *config.AuthConfig) Verifier {
	return &hmacVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *hmacVerifier) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return "", domain.ErrUnauthorized
	}
	if v.issuer != "" {
		iss, _ := claims.GetIssuer()
		if iss != v.issuer {
			return "", domain.ErrUnauthorized
		}
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
