// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package main is the entry point for the Empress server.
//
// Empress is the backend for a small handcrafted-jewelry storefront: a public
// product catalog, customer accounts with carts, hosted-checkout payments,
// and an administrator surface for catalog and customer management.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file, and environment (Koanf v2)
//  2. Storage: embedded Badger document store
//  3. Authentication: JWT session and password-reset tokens, bcrypt hashing
//  4. Collaborators: Cloudinary image host, SMTP mail, Stripe checkout
//  5. Services: cart engine, catalog administration, checkout
//  6. HTTP server: Chi router with the REST API and /metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, config file (config.yaml), built-in defaults.
//
// Required settings:
//   - SECURITY_JWT_SECRET: 32+ character secret for token signing
//   - STRIPE_API_KEY, STRIPE_WEBHOOK_SECRET: payment processing
//   - CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET
//
// When Cloudinary or SMTP credentials are absent the server falls back to
// in-memory stand-ins and logs a warning; useful for local development only.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// connections, waits up to 10 seconds for in-flight requests, then closes the
// store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/empress-shop/empress/internal/api"
	"github.com/empress-shop/empress/internal/auth"
	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/catalog"
	"github.com/empress-shop/empress/internal/checkout"
	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/config"
	"github.com/empress-shop/empress/internal/logging"
	"github.com/empress-shop/empress/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting empress server")

	db, err := store.Open(store.Options{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("store close failed")
		}
	}()

	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	hasher := auth.NewHasher(cfg.Security.BcryptCost)
	limiter := auth.NewLoginLimiter(cfg.Security.LoginAttempts, cfg.Security.LoginWindow)
	defer limiter.Stop()

	resolver := auth.NewResolver(tokens, db.Admins, db.Customers)
	authmw := auth.NewMiddleware(resolver)

	images := newImageHost(cfg)
	mailer := newMailer(cfg)
	payments, err := newPaymentProvider(cfg)
	if err != nil {
		return err
	}

	carts := cart.NewEngine(db.Customers, db.Products)
	catalogSvc := catalog.NewService(db, images)
	checkoutSvc := checkout.NewService(db, carts, payments, &cfg.Stripe)

	server := api.NewServer(cfg, db, tokens, hasher, limiter, authmw, carts, catalogSvc, checkoutSvc, mailer)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}

func newImageHost(cfg *config.Config) collab.ImageHost {
	if cfg.Cloudinary.CloudName == "" {
		logging.Warn().Msg("cloudinary not configured, using in-memory image host")
		return &collab.FakeImageHost{}
	}
	host, err := collab.NewCloudinaryHost(&cfg.Cloudinary)
	if err != nil {
		logging.Fatal().Err(err).Msg("cloudinary init failed")
	}
	return host
}

func newMailer(cfg *config.Config) collab.Mailer {
	if cfg.SMTP.Host == "" {
		logging.Warn().Msg("smtp not configured, mail will not be delivered")
		return &collab.FakeMailer{}
	}
	return collab.NewSMTPMailer(&cfg.SMTP)
}

func newPaymentProvider(cfg *config.Config) (collab.PaymentProvider, error) {
	if cfg.Stripe.APIKey == "" {
		logging.Warn().Msg("stripe not configured, using fake payment provider")
		return &collab.FakePaymentProvider{}, nil
	}
	return collab.NewStripeProvider(&cfg.Stripe)
}
