// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empress-shop/empress/internal/auth"
	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/metrics"
	"github.com/empress-shop/empress/internal/store"
)

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

type updateCartRequest struct {
	Quantity  int    `json:"quantity" validate:"required"`
	Operation string `json:"operation" validate:"required,oneof=add subtract"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}
	if err := store.ValidateID(req.ProductID); err != nil {
		fail(w, err, "product")
		return
	}

	lines, err := s.carts.Add(r.Context(), identity.ID, req.ProductID, req.Quantity)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Product added to cart successfully", lines)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	lines, err := s.carts.Get(r.Context(), identity.ID)
	if err != nil {
		fail(w, err, "customer")
		return
	}
	respond(w, http.StatusOK, "Cart retrieved successfully", lines)
}

func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	productID := chi.URLParam(r, "productID")
	if err := store.ValidateID(productID); err != nil {
		fail(w, err, "product")
		return
	}

	var req updateCartRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}

	op, err := cart.ParseOperation(req.Operation)
	if err != nil {
		respond(w, http.StatusBadRequest, "Invalid operation. Use 'add' or 'subtract'.", nil)
		return
	}

	lines, err := s.carts.Update(r.Context(), identity.ID, productID, req.Quantity, op)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond(w, http.StatusNotFound, "Product not found in cart", nil)
			return
		}
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Cart updated successfully", lines)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	productID := chi.URLParam(r, "productID")
	if err := store.ValidateID(productID); err != nil {
		fail(w, err, "product")
		return
	}

	lines, err := s.carts.Remove(r.Context(), identity.ID, productID)
	if err != nil {
		fail(w, err, "customer")
		return
	}
	respond(w, http.StatusOK, "Product removed from cart successfully", lines)
}

// handleCheckout opens a hosted payment session for the caller's cart and
// returns the redirect URL.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	sess, err := s.checkout.CreateSession(r.Context(), identity.ID)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	metrics.CheckoutSessionsCreated.Inc()
	respond(w, http.StatusOK, "Payment session created successfully", map[string]any{
		"url": sess.URL,
	})
}

// handlePaymentWebhook receives provider confirmations. The signature header
// authenticates the caller; a valid completed-checkout event settles the
// pending order.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		respond(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	settled, err := s.checkout.HandleConfirmation(r.Context(), payload, signature)
	if err != nil {
		metrics.PaymentWebhookFailures.Inc()
		fail(w, err, "order")
		return
	}

	if settled {
		metrics.PaymentsConfirmed.Inc()
	}
	respond(w, http.StatusOK, "Webhook processed", nil)
}
