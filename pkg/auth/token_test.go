package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/lfbag/storefront/pkg/config"
)

func TestInspectAdminTokenUnverified(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintAdminToken("backend-secret", now, time.Hour, AdminClaims{Email: "ana@lfbag.com.br", IsStaff: true})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := InspectAdminToken(config.AdminAuthConfig{}, token, now)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Actor() != "ana@lfbag.com.br" {
		t.Fatalf("unexpected actor %q", claims.Actor())
	}
}

func TestInspectAdminTokenVerifiesWhenSecretSet(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintAdminToken("secret-a", now, time.Hour, AdminClaims{IsStaff: true})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := InspectAdminToken(config.AdminAuthConfig{JWTSecret: "secret-b"}, token, now); err == nil {
		t.Fatal("expected signature mismatch")
	}
	if _, err := InspectAdminToken(config.AdminAuthConfig{JWTSecret: "secret-a"}, token, now); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
}

func TestInspectAdminTokenRejectsExpired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token, err := MintAdminToken("secret", issued, time.Hour, AdminClaims{IsStaff: true})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = InspectAdminToken(config.AdminAuthConfig{}, token, time.Now())
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestInspectAdminTokenRejectsNonStaff(t *testing.T) {
	now := time.Now()
	token, err := MintAdminToken("secret", now, time.Hour, AdminClaims{UserID: 7})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = InspectAdminToken(config.AdminAuthConfig{}, token, now)
	if !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
}

func TestInspectAdminTokenRejectsGarbage(t *testing.T) {
	if _, err := InspectAdminToken(config.AdminAuthConfig{}, "not-a-jwt", time.Now()); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := InspectAdminToken(config.AdminAuthConfig{}, "  ", time.Now()); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def": "abc.def",
		"bearer   xyz":   "xyz",
		"raw-token":      "raw-token",
	}
	for header, want := range cases {
		got, ok := BearerToken(header)
		if !ok || got != want {
			t.Fatalf("BearerToken(%q) = %q, %v", header, got, ok)
		}
	}
	if _, ok := BearerToken(""); ok {
		t.Fatal("expected empty header to fail")
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatal("expected bare prefix to fail")
	}
}

func TestAdminClaimsActorFallbacks(t *testing.T) {
	if got := (&AdminClaims{UserID: float64(42)}).Actor(); got != "42" {
		t.Fatalf("expected user id fallback, got %q", got)
	}
	var nilClaims *AdminClaims
	if nilClaims.Actor() != "" {
		t.Fatal("nil claims should have empty actor")
	}
}
