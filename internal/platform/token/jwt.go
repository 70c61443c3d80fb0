// Package token validates the HS256 identity tokens minted by the external
// auth service.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"turfwars/internal/platform/middleware"

	id "turfwars/pkg/domain"
)

// Validator checks token signatures and extracts caller claims.
type Validator struct {
	signingKey []byte
}

// NewValidator builds a Validator over the shared signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type identityClaims struct {
	Level int `json:"level"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a token, returning the caller identity.
// The subject claim carries the user id; level rides in a custom claim.
func (v *Validator) ValidateToken(tokenString string) (*middleware.Claims, error) {
	var claims identityClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token invalid")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	if claims.Level < 1 {
		return nil, errors.New("token missing level claim")
	}

	return &middleware.Claims{UserID: userID, Level: claims.Level}, nil
}

// Sign mints a token for the given identity. Used by the seeder and tests;
// production tokens come from the external auth service.
func (v *Validator) Sign(userID id.UserID, level int) (string, error) {
	claims := identityClaims{
		Level: level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.signingKey)
}
