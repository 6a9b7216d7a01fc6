package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studymate")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPENROUTER_MODEL", "")
	t.Setenv("GENERATE_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.OpenRouterModel == "" {
		t.Fatalf("expected a default generation model")
	}
	if cfg.GenerateTimeout != 60*time.Second {
		t.Fatalf("generate timeout = %s, want 60s", cfg.GenerateTimeout)
	}
	if cfg.DefaultUsageLimit <= 0 {
		t.Fatalf("default usage limit should be positive")
	}
}

func TestLoadConfigParsesCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studymate")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins = %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
}
