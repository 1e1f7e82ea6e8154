// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package api provides the HTTP surface: routing, request decoding, and the
// uniform response envelope. Handlers stay thin; domain rules live in the
// cart, catalog, checkout, and store packages.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/empress-shop/empress/internal/auth"
	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/catalog"
	"github.com/empress-shop/empress/internal/checkout"
	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/config"
	"github.com/empress-shop/empress/internal/middleware"
	"github.com/empress-shop/empress/internal/store"
)

// Server holds the wired dependencies for all HTTP handlers.
type Server struct {
	cfg      *config.Config
	db       *store.DB
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	limiter  *auth.LoginLimiter
	authmw   *auth.Middleware
	carts    *cart.Engine
	catalog  *catalog.Service
	checkout *checkout.Service
	mailer   collab.Mailer
}

// NewServer wires the HTTP layer.
func NewServer(
	cfg *config.Config,
	db *store.DB,
	tokens *auth.TokenManager,
	hasher *auth.Hasher,
	limiter *auth.LoginLimiter,
	authmw *auth.Middleware,
	carts *cart.Engine,
	catalogSvc *catalog.Service,
	checkoutSvc *checkout.Service,
	mailer collab.Mailer,
) *Server {
	return &Server{
		cfg:      cfg,
		db:       db,
		tokens:   tokens,
		hasher:   hasher,
		limiter:  limiter,
		authmw:   authmw,
		carts:    carts,
		catalog:  catalogSvc,
		checkout: checkoutSvc,
		mailer:   mailer,
	}
}

// Routes builds the chi route tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/v1/health", s.handleHealth)

	// Payment webhook: provider-authenticated via signature, never via
	// bearer token, and never rate limited against the storefront budget.
	r.Post("/api/v1/payments/webhook", s.handlePaymentWebhook)

	apiLimit := httprate.LimitByIP(s.cfg.Server.RateLimit, time.Minute)

	// Public storefront.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimit)
		r.Use(middleware.PrometheusMetrics)
		r.Use(s.authmw.WithIdentity)

		r.Get("/products", s.handleStorefrontProducts)
		r.Get("/products/{productID}", s.handleStorefrontProduct)
		r.Get("/collections", s.handleStorefrontCollections)
		r.Get("/collections/{collectionID}", s.handleStorefrontCollection)

		// Authentication.
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(30, time.Minute))

			r.Post("/admin", s.handleCreateAdmin)
			r.Post("/admin/login", s.handleAdminLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleCustomerLogin)
			r.Get("/check", s.handleCheckAuth)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password", s.handleResetPassword)
		})

		// Customer-only surface.
		r.Group(func(r chi.Router) {
			r.Use(s.authmw.RequireCustomer)

			r.Post("/cart", s.handleAddToCart)
			r.Get("/cart", s.handleGetCart)
			r.Put("/cart/{productID}", s.handleUpdateCart)
			r.Delete("/cart/{productID}", s.handleRemoveFromCart)
			r.Post("/checkout", s.handleCheckout)
			r.Put("/me", s.handleUpdateProfile)
			r.Put("/me/password", s.handleUpdatePassword)
		})

		// Administrator surface.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authmw.RequireAdmin)

			r.Post("/products", s.handleCreateProduct)
			r.Get("/products", s.handleListProducts)
			r.Get("/products/{productID}", s.handleGetProduct)
			r.Put("/products/{productID}", s.handleUpdateProduct)
			r.Delete("/products/{productID}", s.handleDeleteProduct)
			r.Put("/products/{productID}/visibility", s.handleToggleVisibility)
			r.Put("/products/{productID}/materials", s.handleAddMaterial)
			r.Delete("/products/{productID}/materials", s.handleRemoveMaterial)
			r.Put("/products/{productID}/images", s.handleAddProductImages)
			r.Delete("/products/{productID}/images", s.handleRemoveProductImage)

			r.Post("/collections", s.handleCreateCollection)
			r.Get("/collections", s.handleListCollections)
			r.Get("/collections/{collectionID}", s.handleGetCollection)
			r.Put("/collections/{collectionID}", s.handleUpdateCollection)
			r.Delete("/collections/{collectionID}", s.handleDeleteCollection)
			r.Put("/collections/{collectionID}/products", s.handleAddToCollection)
			r.Delete("/collections/{collectionID}/products", s.handleRemoveFromCollection)

			r.Get("/customers", s.handleListCustomers)
			r.Get("/customers/{customerID}", s.handleGetCustomer)
			r.Delete("/customers/{customerID}", s.handleDeleteCustomer)

			r.Get("/notifications", s.handleNotifications)
		})
	})

	return r
}

// handleHealth reports liveness; it intentionally avoids touching the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", nil)
}
