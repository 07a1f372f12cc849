package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("expected fallback ttl, got %s", cfg.JWTAccessTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if !cfg.UsesMemoryStore() {
		t.Fatal("development without DATABASE_URL should use the memory store")
	}
}

func TestProductionNeverUsesMemoryStore(t *testing.T) {
	cfg := &Config{Env: "production"}
	if cfg.UsesMemoryStore() || !cfg.IsProduction() {
		t.Fatal("production must require a database")
	}
}
