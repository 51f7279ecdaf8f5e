package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frostx76/microservices-project/pkg/apperr"
)

// Codec signs and checks HS256 access tokens whose subject is the account email.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of c that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL is the lifetime given to new tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign issues a token for subject expiring ttl from now.
func (c *Codec) Sign(subject string) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse returns the subject of a valid token. Expired tokens give
// apperr.ErrExpiredToken, everything else apperr.ErrInvalidToken.
func (c *Codec) Parse(raw string) (string, error) {
	if raw == "" {
		return "", apperr.ErrMissingToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.ErrExpiredToken
		}
		return "", apperr.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", apperr.ErrInvalidToken
	}
	return claims.Subject, nil
}
