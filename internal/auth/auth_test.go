package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newResolver(t *testing.T, opts ...Option) *CookieResolver {
	t.Helper()
	r, err := NewCookieResolver("session", "s3cret", opts...)
	if err != nil {
		t.Fatalf("NewCookieResolver() error = %v", err)
	}
	return r
}

func TestResolveUser(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	token, err := r.Sign("ada", time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	got, err := r.ResolveUser(context.Background(), "theme=dark; session="+token+"; lang=en")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if got != "ada" {
		t.Errorf("ResolveUser() = %q, want ada", got)
	}
}

func TestResolveUser_Rejected(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	other, err := NewCookieResolver("session", "other")
	if err != nil {
		t.Fatal(err)
	}
	forged, _ := other.Sign("ada", time.Hour)

	past := time.Now().Add(-2 * time.Hour)
	stale, _ := newResolver(t, withClock(func() time.Time { return past })).Sign("ada", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "ada", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := r.Sign("", time.Hour)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"no header", "", ErrNoSession},
		{"other cookies only", "theme=dark", ErrNoSession},
		{"garbage token", "session=abc.def.ghi", ErrInvalidSession},
		{"wrong secret", "session=" + forged, ErrInvalidSession},
		{"expired", "session=" + stale, ErrInvalidSession},
		{"alg none", "session=" + unsigned, ErrInvalidSession},
		{"empty subject", "session=" + noSubject, ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := r.ResolveUser(context.Background(), tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveUser() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveUser_DevUser(t *testing.T) {
	t.Parallel()

	r, err := NewCookieResolver("session", "", WithDevUser("dev"))
	if err != nil {
		t.Fatalf("NewCookieResolver() error = %v", err)
	}

	got, err := r.ResolveUser(context.Background(), "")
	if err != nil || got != "dev" {
		t.Errorf("ResolveUser() = %q, %v; want dev", got, err)
	}
	if _, err := r.Sign("x", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Sign() without secret error = %v, want ErrNoSecret", err)
	}
}

func TestNewCookieResolver_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewCookieResolver("session", ""); !errors.Is(err, ErrNoSecret) {
		t.Errorf("NewCookieResolver() error = %v, want ErrNoSecret", err)
	}
}
