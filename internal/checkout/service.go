// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package checkout ties the cart to the payment provider. A checkout opens a
// hosted payment session and records a pending order; the provider's webhook
// confirms payment, which atomically decrements stock, records the sale, and
// clears the cart.
package checkout

import (
	"context"
	"errors"

	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/config"
	"github.com/empress-shop/empress/internal/logging"
	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

// Service coordinates checkout sessions and payment confirmations.
type Service struct {
	db       *store.DB
	carts    *cart.Engine
	provider collab.PaymentProvider
	cfg      config.StripeConfig
}

// NewService wires the checkout service.
func NewService(db *store.DB, carts *cart.Engine, provider collab.PaymentProvider, cfg *config.StripeConfig) *Service {
	return &Service{
		db:       db,
		carts:    carts,
		provider: provider,
		cfg:      *cfg,
	}
}

// CreateSession opens a hosted payment session for the customer's current
// cart and records a pending order keyed by the provider session id. The cart
// itself is not mutated; stock moves only on confirmation.
func (s *Service) CreateSession(ctx context.Context, customerID string) (collab.CheckoutSession, error) {
	lines, err := s.carts.CheckoutLines(ctx, customerID)
	if err != nil {
		return collab.CheckoutSession{}, err
	}

	sess, err := s.provider.CreateSession(ctx, collab.CheckoutRequest{
		Lines:      lines,
		Currency:   s.cfg.Currency,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		CustomerID: customerID,
	})
	if err != nil {
		return collab.CheckoutSession{}, err
	}

	var total int64
	for _, line := range lines {
		total += line.UnitAmount * int64(line.Quantity)
	}

	order := &models.Order{
		CustomerID: customerID,
		SessionID:  sess.ID,
		Lines:      lines,
		Currency:   s.cfg.Currency,
		Total:      total,
		Status:     models.OrderPending,
	}
	if err := s.db.Orders.Insert(ctx, order); err != nil {
		return collab.CheckoutSession{}, err
	}

	return sess, nil
}

// HandleConfirmation verifies a provider webhook payload and, for a completed
// checkout, settles the pending order. It reports whether an order was
// settled by this delivery; replayed confirmations are accepted without
// re-settling.
func (s *Service) HandleConfirmation(ctx context.Context, payload []byte, signature string) (bool, error) {
	event, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		return false, err
	}

	if event.Type != collab.EventCheckoutCompleted {
		logging.Debug().Str("type", event.Type).Msg("ignoring payment event")
		return false, nil
	}

	order, err := s.db.CompleteCheckout(ctx, event.SessionID)
	if errors.Is(err, store.ErrOrderAlreadyPaid) {
		logging.Info().Str("session_id", event.SessionID).Msg("payment already settled")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logging.Info().
		Str("order_id", order.ID).
		Str("customer_id", order.CustomerID).
		Int64("total", order.Total).
		Msg("payment confirmed")
	return true, nil
}
