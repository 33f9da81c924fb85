// Package auth verifies bearer tokens into a Principal. The core trusts the
// result; everything past this point treats identity and role as facts.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zzuhann/stellar/internal/domain/moderation"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

func NewJWTManager(secret, issuer string) *JWTManager {
	return &JWTManager{secret: []byte(secret), issuer: issuer}
}

// Generate signs a token for subject with role; used by tooling and tests.
func (m *JWTManager) Generate(subject string, role moderation.Role, expiry time.Duration) (string, error) {
	if subject == "" || role == "" {
		return "", ErrInvalidToken
	}

	now := time.Now()
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and verifies a token, returning the actor it asserts.
func (m *JWTManager) Validate(tokenString string) (moderation.Actor, error) {
	if strings.TrimSpace(tokenString) == "" {
		return moderation.Actor{}, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return moderation.Actor{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return moderation.Actor{}, ErrInvalidToken
	}
	role := moderation.Role(claims.Role)
	if role != moderation.RoleAdmin {
		role = moderation.RoleUser
	}
	return moderation.Actor{UserID: claims.Subject, Role: role}, nil
}
