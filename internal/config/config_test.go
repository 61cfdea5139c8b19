package config

import (
	"os"
	"strings"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/mindhaven_test")
	setEnv(t, "ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("port = %q, want 8000", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("max conns = %d, want 20", cfg.DBMaxConns)
	}
	if cfg.BodyLimit != "1M" {
		t.Errorf("body limit = %q, want 1M", cfg.BodyLimit)
	}
	if !cfg.IsDev() {
		t.Error("expected dev mode")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/mindhaven_test")
	setEnv(t, "CORS_ORIGINS", "https://admin.example.com,https://staging.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("origins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[0] != "https://admin.example.com" {
		t.Errorf("first origin = %q", cfg.CORSOrigins[0])
	}
}

func TestValidate_ProductionRequiresSigningKey(t *testing.T) {
	cfg := &Config{Env: "production"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing JWT_SIGNING_KEY in production")
	}
	if !strings.Contains(err.Error(), "JWT_SIGNING_KEY") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ShortSigningKey(t *testing.T) {
	cfg := &Config{Env: "production", JWTSigningKey: "too-short"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short signing key")
	}
}

func TestValidate_DevWithoutKey(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in dev mode: %v", err)
	}
}

func TestValidate_ConnBounds(t *testing.T) {
	cfg := &Config{
		Env:           "production",
		JWTSigningKey: strings.Repeat("k", 32),
		DBMaxConns:    5,
		DBMinConns:    10,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}
