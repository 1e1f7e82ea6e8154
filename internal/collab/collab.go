// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package collab holds the adapters for external collaborators: the image
// host, outbound mail, and the payment processor. The core consumes the small
// interfaces defined here; the concrete adapters are constructed once at
// startup from explicit configuration.
package collab

import (
	"context"

	"github.com/empress-shop/empress/internal/models"
)

// ImageHost uploads and deletes hosted images.
type ImageHost interface {
	// Upload pushes the file at localPath to the host under publicID and
	// returns the stored reference (two derived URLs plus the public id).
	Upload(ctx context.Context, localPath, publicID string) (models.ImageRef, error)

	// Delete removes the hosted image. Deletion is best-effort; callers log
	// and continue on error.
	Delete(ctx context.Context, publicID string) error
}

// Mailer delivers outbound mail. Sends are fire-and-forget: callers log
// failures and never surface them to the end user.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// CheckoutRequest describes a hosted-checkout session to open.
type CheckoutRequest struct {
	// Lines are the priced items, unit amounts in minor currency units.
	Lines      []models.OrderLine
	Currency   string
	SuccessURL string
	CancelURL  string
	// CustomerID is carried as the session's client reference.
	CustomerID string
}

// CheckoutSession is an opened hosted-checkout session.
type CheckoutSession struct {
	// ID is the provider's session identifier, used to correlate the
	// confirmation event with the pending order.
	ID string
	// URL is the hosted checkout page to redirect the customer to.
	URL string
}

// EventCheckoutCompleted is the provider event type emitted when a hosted
// checkout session is paid.
const EventCheckoutCompleted = "checkout.session.completed"

// PaymentEvent is a verified provider webhook event.
type PaymentEvent struct {
	Type      string
	SessionID string
}

// PaymentProvider opens hosted-checkout sessions and verifies webhook events.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)

	// VerifyEvent checks the webhook signature and decodes the event.
	// An invalid signature is an error; event types the core does not care
	// about are returned as-is and ignored by the caller.
	VerifyEvent(payload []byte, signature string) (PaymentEvent, error)
}
