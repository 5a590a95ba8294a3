package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceSubject identifies doccheck in tokens it mints for the shop service.
const ServiceSubject = "doccheck"

var ErrEmptySecret = errors.New("token secret is empty")

// GenerateServiceToken creates a signed HS256 JWT identifying doccheck as the caller.
func GenerateServiceToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if subject == "" {
		subject = ServiceSubject
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": "orders:write documents:read",
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Source returns a function minting a fresh service token per call, suitable
// for shop.WithTokenSource.
func Source(secret string, ttl time.Duration) func() (string, error) {
	return func() (string, error) {
		return GenerateServiceToken(secret, ServiceSubject, ttl)
	}
}
