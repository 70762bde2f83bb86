// Package auth issues and verifies bearer credentials, hashes passwords and
// carries the authenticated principal through a request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token. Handle and Role are denormalized
// at issuance so authorization needs no store lookup.
type Claims struct {
	jwt.RegisteredClaims
	Handle string      `json:"handle"`
	Role   models.Role `json:"role"`
}

// TokenIssuer signs and verifies HS256 access tokens with one secret that is
// fixed at construction.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// IssuerOption customizes a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) { i.now = now }
}

// WithIssuer sets the "iss" claim and requires it on verification.
func WithIssuer(iss string) IssuerOption {
	return func(i *TokenIssuer) { i.issuer = iss }
}

// NewTokenIssuer validates the secret and lifetime. The lifetime is truncated
// to whole seconds, the resolution of JWT time claims.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token issuer: empty signing secret")
	}
	ttl = ttl.Truncate(time.Second)
	if ttl <= 0 {
		return nil, fmt.Errorf("token issuer: lifetime must be at least one second")
	}

	i := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the credential lifetime.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a credential for p. The issuance instant is truncated to the
// second so the token is valid for exactly [iat, iat+ttl).
func (i *TokenIssuer) Issue(p models.Principal) (string, time.Time, error) {
	iat := i.now().UTC().Truncate(time.Second)
	exp := iat.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.AccountID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Handle: p.Handle,
		Role:   p.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm, issuer and expiry and returns the
// embedded principal. Every failure wraps common.ErrUnauthorized; expired
// tokens additionally match jwt.ErrTokenExpired.
func (i *TokenIssuer) Parse(tokenString string) (*models.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, common.ErrUnauthorized
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", common.ErrUnauthorized)
	}

	return &models.Principal{
		AccountID: claims.Subject,
		Handle:    claims.Handle,
		Role:      claims.Role,
	}, nil
}
