package config

import (
	"testing"
)

func TestResolvedAuthMode_Explicit(t *testing.T) {
	cfg := &Config{Env: "production", AuthMode: "jwt"}
	if got := cfg.ResolvedAuthMode(); got != "jwt" {
		t.Errorf("expected jwt, got %s", got)
	}
}

func TestResolvedAuthMode_DevInferred(t *testing.T) {
	cfg := &Config{Env: "development"}
	if got := cfg.ResolvedAuthMode(); got != "dev" {
		t.Errorf("expected dev, got %s", got)
	}
}

func TestResolvedAuthMode_ProductionInferred(t *testing.T) {
	cfg := &Config{Env: "production"}
	if got := cfg.ResolvedAuthMode(); got != "jwt" {
		t.Errorf("expected jwt, got %s", got)
	}
}

func TestValidate_DevModeInProductionRejected(t *testing.T) {
	cfg := &Config{Env: "production", AuthMode: "dev"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for dev auth in production")
	}
}

func TestValidate_JWTWithoutKeySource(t *testing.T) {
	cfg := &Config{Env: "production", AuthMode: "jwt"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no JWKS source or signing key is set")
	}
}

func TestValidate_JWTWithIssuer(t *testing.T) {
	cfg := &Config{Env: "production", AuthMode: "jwt", AuthIssuer: "https://auth.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_JWTWithSigningKey(t *testing.T) {
	cfg := &Config{Env: "staging", AuthMode: "jwt", AuthSigningKey: "secret"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := &Config{Env: "production", AuthMode: "standalone"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown auth mode")
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 2, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when max conns below min conns")
	}
}
