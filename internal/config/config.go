// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package config loads and validates service configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables (highest priority). The resulting Config value is
// constructed once at startup and passed by reference into every component;
// nothing in the process reads ambient globals for credentials.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Security   SecurityConfig   `koanf:"security"`
	Cloudinary CloudinaryConfig `koanf:"cloudinary"`
	SMTP       SMTPConfig       `koanf:"smtp"`
	Stripe     StripeConfig     `koanf:"stripe"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
	// RateLimit is the per-IP request budget per minute for API routes.
	RateLimit int `koanf:"rate_limit"`
	// ResetURL is the storefront page that consumes password-reset tokens.
	ResetURL string `koanf:"reset_url"`
}

// StorageConfig holds Badger settings.
type StorageConfig struct {
	// Path is the Badger data directory. Empty selects in-memory mode,
	// which is only appropriate for tests.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// SecurityConfig holds token and password settings.
type SecurityConfig struct {
	// JWTSecret signs session and password-reset tokens. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`
	// SessionTTL is the lifetime of session tokens.
	SessionTTL time.Duration `koanf:"session_ttl"`
	// ResetTTL is the lifetime of password-reset tokens.
	ResetTTL time.Duration `koanf:"reset_ttl"`
	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`
	// LoginAttempts and LoginWindow bound login attempts per client IP.
	LoginAttempts int           `koanf:"login_attempts"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// CloudinaryConfig holds image host credentials.
type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Username   string `koanf:"username"`
	Password   string `koanf:"password"`
	From       string `koanf:"from"`
	FromName   string `koanf:"from_name"`
	DisableTLS bool   `koanf:"disable_tls"`
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	APIKey        string `koanf:"api_key"`
	WebhookSecret string `koanf:"webhook_secret"`
	Currency      string `koanf:"currency"`
	// SuccessURL and CancelURL are where the hosted checkout page redirects.
	SuccessURL string `koanf:"success_url"`
	CancelURL  string `koanf:"cancel_url"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are the
// lowest layer; config file and environment variables override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
			RateLimit:   300,
			ResetURL:    "http://localhost:3000/auth/reset-password",
		},
		Storage: StorageConfig{
			Path:     "/data/empress",
			InMemory: false,
		},
		Security: SecurityConfig{
			JWTSecret:     "",
			SessionTTL:    time.Hour,
			ResetTTL:      time.Hour,
			BcryptCost:    12,
			LoginAttempts: 5,
			LoginWindow:   5 * time.Minute,
		},
		Stripe: StripeConfig{
			Currency:   "cad",
			SuccessURL: "http://localhost:3000/products?success=true",
			CancelURL:  "http://localhost:3000/cart?canceled=true",
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "The Empress Team",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 18 {
		return fmt.Errorf("security.bcrypt_cost %d out of range (10-18)", c.Security.BcryptCost)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}
	if c.Security.SessionTTL <= 0 || c.Security.ResetTTL <= 0 {
		return fmt.Errorf("security token lifetimes must be positive")
	}
	return nil
}
