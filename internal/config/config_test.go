// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "test-secret-at-least-32-characters-long"
	cfg.Storage.InMemory = true
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "too short" }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bcrypt cost too low", func(c *Config) { c.Security.BcryptCost = 4 }},
		{"bcrypt cost too high", func(c *Config) { c.Security.BcryptCost = 31 }},
		{"no storage path", func(c *Config) { c.Storage.InMemory = false; c.Storage.Path = "" }},
		{"zero session ttl", func(c *Config) { c.Security.SessionTTL = 0 }},
		{"negative reset ttl", func(c *Config) { c.Security.ResetTTL = -time.Minute }},
	}
	for _, tc := range cases {
		cfg := validTestConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
security:
  jwt_secret: file-secret-that-is-32-characters!!
storage:
  in_memory: true
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	// Environment overrides the file.
	t.Setenv("SERVER_RATE_LIMIT", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 (from file)", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 42 {
		t.Errorf("rate limit = %d, want 42 (from environment)", cfg.Server.RateLimit)
	}
	// Unset values keep their defaults.
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want default 30s", cfg.Server.Timeout)
	}
	if cfg.Stripe.Currency != "cad" {
		t.Errorf("currency = %q, want default cad", cfg.Stripe.Currency)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SECURITY_JWT_SECRET", "too short")
	if _, err := Load(); err == nil {
		t.Error("short secret accepted, want validation error")
	}
}

func TestEnvTransformIgnoresUnknownVars(t *testing.T) {
	if got := envTransformFunc("SECURITY_JWT_SECRET"); got != "security.jwt_secret" {
		t.Errorf("transform = %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unrelated variable mapped to %q, want empty", got)
	}
}
