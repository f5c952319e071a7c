package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/careops")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("default env should be development")
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("pool sizes = %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.SlotMinutes != 30 {
		t.Errorf("slot minutes = %d", cfg.SlotMinutes)
	}
	if cfg.AvailabilityCacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v", cfg.AvailabilityCacheTTL)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := &Config{Env: "production", SlotMinutes: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("production without JWT_SECRET must fail validation")
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected: %v", err)
	}
}

func TestValidate_SlotMinutes(t *testing.T) {
	cfg := &Config{Env: "development", SlotMinutes: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("zero slot minutes must fail")
	}
	cfg.SlotMinutes = 90
	if err := cfg.Validate(); err == nil {
		t.Error("oversized slot minutes must fail")
	}
}
