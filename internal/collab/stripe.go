// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/empress-shop/empress/internal/config"
)

// ErrBadSignature is returned when a webhook payload fails signature
// verification.
var ErrBadSignature = errors.New("collab: webhook signature verification failed")

// StripeProvider implements PaymentProvider against the Stripe hosted
// checkout API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider builds a provider with its own API client so the
// package-level stripe key is never mutated.
func NewStripeProvider(cfg *config.StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("collab: stripe api key is required")
	}

	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateSession opens a hosted checkout session for the given line items.
// Amounts are already in the currency's minor unit.
func (p *StripeProvider) CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(req.Currency),
			UnitAmount: stripe.Int64(line.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(line.Name),
			},
		}
		if line.Image != "" {
			priceData.ProductData.Images = stripe.StringSlice([]string{line.Image})
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(int64(line.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         items,
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.CustomerID),
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}

	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the webhook signature and extracts the event type and
// checkout session id from the raw payload.
func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return PaymentEvent{}, ErrBadSignature
	}

	pe := PaymentEvent{Type: string(event.Type)}

	if pe.Type == EventCheckoutCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return PaymentEvent{}, fmt.Errorf("stripe event payload: %w", err)
		}
		pe.SessionID = sess.ID
	}

	return pe, nil
}
