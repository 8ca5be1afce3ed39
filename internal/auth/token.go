package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "simple-mart"
	tokenAudience = "simple-mart-users"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the authenticated identity handed to every protected handler.
type Principal struct {
	ID    string
	Email string
	Role  string
}

func (p Principal) IsAdmin() bool { return p.Role == "admin" }
func (p Principal) IsStaff() bool { return p.Role == "staff" || p.Role == "admin" }

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenMaker issues and verifies HMAC-signed JWTs.
type TokenMaker struct {
	secret   []byte
	duration time.Duration
}

func NewTokenMaker(secret string, duration time.Duration) *TokenMaker {
	return &TokenMaker{secret: []byte(secret), duration: duration}
}

func (m *TokenMaker) Issue(userID, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenMaker) Verify(tokenString string) (Principal, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	return Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
