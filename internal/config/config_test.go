package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FRAXION_PG_DSN", "postgres://localhost/fraxion")
	t.Setenv("FRAXION_ACCESS_SECRET", "access-secret")
	t.Setenv("FRAXION_REFRESH_SECRET", "refresh-secret")
	t.Setenv("FRAXION_CHAIN_RPC_URL", "http://localhost:8545")
	t.Setenv("FRAXION_REGISTRY_ADDRESS", "0x"+strings.Repeat("aa", 20))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.AccessTTL != 15*time.Minute || cfg.RefreshTTL != 14*24*time.Hour {
		t.Fatalf("unexpected TTLs: %v / %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.LoginChallenge == "" {
		t.Fatalf("expected default login challenge")
	}
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("FRAXION_ACCESS_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing access secret")
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("FRAXION_REFRESH_SECRET", "access-secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FRAXION_ACCESS_TTL", "5m")
	t.Setenv("FRAXION_RATE_BURST", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RateBurst != 50 {
		t.Fatalf("unexpected burst: %d", cfg.RateBurst)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("FRAXION_ACCESS_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
