package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
auth:
  login_code_ttl: 5m
  allowed_domains:
    - campus.edu
    - uni.edu
feed:
  default_page_size: 12
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.LoginCodeTTL.String() != "5m0s" {
		t.Fatalf("unexpected login code ttl: %s", cfg.Auth.LoginCodeTTL)
	}
	if len(cfg.Auth.AllowedDomains) != 2 || cfg.Auth.AllowedDomains[0] != "campus.edu" {
		t.Fatalf("unexpected allowed domains: %v", cfg.Auth.AllowedDomains)
	}
	if cfg.Feed.DefaultPageSize != 12 {
		t.Fatalf("unexpected default page size: %d", cfg.Feed.DefaultPageSize)
	}

	if cfg.Feed.MaxPageSize != 50 {
		t.Fatalf("max page size default should stay 50, got %d", cfg.Feed.MaxPageSize)
	}
	if cfg.HTTP.ReadTimeout.String() != "5s" {
		t.Fatalf("read timeout default should stay 5s, got %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.S3.Bucket != "raydius-photos" {
		t.Fatalf("unexpected default bucket: %s", cfg.S3.Bucket)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.LoginCodeTTL.String() != "10m0s" {
		t.Fatalf("unexpected default login code ttl: %s", cfg.Auth.LoginCodeTTL)
	}
	if cfg.Feed.DefaultPageSize != 10 || cfg.Feed.MaxPageSize != 50 {
		t.Fatalf("unexpected feed defaults: %d/%d", cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("ALLOWED_DOMAINS", "one.edu, two.edu")
	t.Setenv("LOGIN_CODE_TTL", "3m")
	t.Setenv("FEED_MAX_PAGE_SIZE", "25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env addr override not applied: %s", cfg.HTTP.Addr)
	}
	if len(cfg.Auth.AllowedDomains) != 2 || cfg.Auth.AllowedDomains[1] != "two.edu" {
		t.Fatalf("env domains override not applied: %v", cfg.Auth.AllowedDomains)
	}
	if cfg.Auth.LoginCodeTTL.String() != "3m0s" {
		t.Fatalf("env login code ttl override not applied: %s", cfg.Auth.LoginCodeTTL)
	}
	if cfg.Feed.MaxPageSize != 25 {
		t.Fatalf("env max page size override not applied: %d", cfg.Feed.MaxPageSize)
	}
}

func TestEnvOverrideParseErrors(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid REDIS_DB")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT", "HTTP_ALLOWED_ORIGINS", "LOG_LEVEL", "POSTGRES_DSN",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
		"JWT_SECRET", "JWT_ACCESS_TTL", "REFRESH_TTL", "LOGIN_CODE_TTL",
		"ALLOWED_DOMAINS", "FEED_DEFAULT_PAGE_SIZE", "FEED_MAX_PAGE_SIZE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
