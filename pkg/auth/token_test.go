package auth

import (
	"testing"
	"time"

	"github.com/jkovarik/dispecink-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.Auth{
		JWTSecret: "secret",
		JWTIssuer: "dispecink",
	}
	now := time.Now().UTC()

	payload := TokenPayload{
		UserID:    "ab1234",
		GivenName: "Jana",
		Surname:   "Novotná",
		FullName:  "Jana Novotná",
		Roles:     []string{"dispecink", "reglogistika_admin"},
		Locations: map[string][]string{"dispecink": {"L1", "L2"}},
	}

	token, err := MintAccessToken(cfg, now, 15*time.Minute, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.Subject != "ab1234" {
		t.Fatalf("expected subject ab1234, got %s", claims.Subject)
	}
	if claims.FullName != "Jana Novotná" {
		t.Fatalf("full name mismatch: %s", claims.FullName)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles not preserved: %v", claims.Roles)
	}
	if got := claims.Locations["dispecink"]; len(got) != 2 || got[1] != "L2" {
		t.Fatalf("locations not preserved: %v", claims.Locations)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := config.Auth{JWTSecret: "secret", JWTIssuer: "dispecink"}
	past := time.Now().UTC().Add(-time.Hour)

	token, err := MintAccessToken(cfg, past, time.Minute, TokenPayload{UserID: "ab1234"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	minted, err := MintAccessToken(config.Auth{JWTSecret: "one", JWTIssuer: "dispecink"}, time.Now(), time.Minute, TokenPayload{UserID: "x"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(config.Auth{JWTSecret: "two", JWTIssuer: "dispecink"}, minted); err == nil {
		t.Fatalf("expected signature validation to fail")
	}
}
