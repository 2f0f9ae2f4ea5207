// Package auth resolves the user a request acts for from its session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	guide2pdf "github.com/alnah/go-guide2pdf"
)

// Sentinel errors for session resolution.
var (
	ErrNoSession      = errors.New("no session cookie")
	ErrInvalidSession = errors.New("invalid session")
	ErrNoSecret       = errors.New("session secret is required")
)

// Compile-time interface check.
var _ guide2pdf.UserResolver = (*CookieResolver)(nil)

// Claims are the session token claims. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// CookieResolver reads an HS256 session token from a named cookie.
type CookieResolver struct {
	cookieName string
	secret     []byte
	devUser    string
	now        func() time.Time
}

// Option configures a CookieResolver.
type Option func(*CookieResolver)

// WithDevUser resolves every request, with or without a session, to
// username. Meant for local development only.
func WithDevUser(username string) Option {
	return func(r *CookieResolver) {
		r.devUser = username
	}
}

// withClock replaces time.Now for token validation in tests.
func withClock(now func() time.Time) Option {
	return func(r *CookieResolver) {
		r.now = now
	}
}

// NewCookieResolver creates a resolver for the given cookie name and HMAC
// secret. The secret may be empty only with WithDevUser.
func NewCookieResolver(cookieName, secret string, opts ...Option) (*CookieResolver, error) {
	r := &CookieResolver{cookieName: cookieName, secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if len(r.secret) == 0 && r.devUser == "" {
		return nil, ErrNoSecret
	}
	return r, nil
}

// ResolveUser returns the username carried by the session cookie found in
// cookieHeader, the raw Cookie request header.
func (r *CookieResolver) ResolveUser(ctx context.Context, cookieHeader string) (string, error) {
	if r.devUser != "" {
		return r.devUser, nil
	}

	token := r.sessionToken(cookieHeader)
	if token == "" {
		return "", ErrNoSession
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return claims.Subject, nil
}

// Sign issues a session token for username valid for ttl.
func (r *CookieResolver) Sign(username string, ttl time.Duration) (string, error) {
	if len(r.secret) == 0 {
		return "", ErrNoSecret
	}
	now := r.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func (r *CookieResolver) sessionToken(cookieHeader string) string {
	if cookieHeader == "" {
		return ""
	}
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == r.cookieName {
			return c.Value
		}
	}
	return ""
}
