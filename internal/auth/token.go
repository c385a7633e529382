// Package auth issues and checks the HS256 bearer tokens of the API. The
// token subject is the user recorded as created_by.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoBearer is returned when the request carries no bearer token
	ErrNoBearer = errors.New("no bearer token")

	// ErrInvalidToken is returned for expired, malformed or foreign tokens
	ErrInvalidToken = errors.New("invalid or expired token")
)

// DefaultTTL is used when no token lifetime is configured
const DefaultTTL = 24 * time.Hour

// Issuer signs and verifies tokens with a shared secret
type Issuer struct {
	secret []byte
	name   string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. name is checked against the iss claim when set.
func NewIssuer(secret, name string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		name:   name,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate signs a token for user
func (i *Issuer) Generate(user string) (string, error) {
	if user == "" {
		return "", fmt.Errorf("token subject is required")
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   user,
		Issuer:    i.name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse verifies a token and returns its subject
func (i *Issuer) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if i.name != "" && claims.Issuer != i.name {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// FromRequest extracts and verifies the bearer token of r
func (i *Issuer) FromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrNoBearer
	}
	return i.Parse(strings.TrimPrefix(header, "Bearer "))
}
