package service

import (
	"fmt"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims read from a Supabase access token.
type AccessClaims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens signed with the project's JWT
// secret. A nil verifier (no secret configured) disables owner checks.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns nil when secret is empty.
func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

// Enabled reports whether tokens are checked at all.
func (v *TokenVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// ValidateAccessToken parses and verifies tokenString.
func (v *TokenVerifier) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}

	return claims, nil
}

// AuthorizeOwner verifies tokenString and checks that it belongs to ownerID.
func (v *TokenVerifier) AuthorizeOwner(tokenString, ownerID string) error {
	claims, err := v.ValidateAccessToken(tokenString)
	if err != nil {
		return err
	}
	if claims.Subject != ownerID {
		return &domain.ErrForbidden{Action: "read recap of another owner"}
	}
	return nil
}
