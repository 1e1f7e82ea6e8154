// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package collab

import (
	"context"
	"fmt"
	"sync"

	"github.com/empress-shop/empress/internal/models"
)

// FakeImageHost records uploads in memory. Used by tests and by local
// development when no Cloudinary credentials are configured.
type FakeImageHost struct {
	mu      sync.Mutex
	Err     error
	Uploads []string
	Deletes []string
}

func (f *FakeImageHost) Upload(ctx context.Context, localPath, publicID string) (models.ImageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.ImageRef{}, f.Err
	}
	f.Uploads = append(f.Uploads, publicID)
	return models.ImageRef{
		OptimizeURL: fmt.Sprintf("https://images.test/optimize/%s", publicID),
		AutoCropURL: fmt.Sprintf("https://images.test/crop/%s", publicID),
		PublicID:    publicID,
	}, nil
}

func (f *FakeImageHost) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, publicID)
	return nil
}

// FakeMailer captures outbound mail instead of delivering it.
type FakeMailer struct {
	mu   sync.Mutex
	Err  error
	Sent []FakeMail
}

// FakeMail is one captured message.
type FakeMail struct {
	To      string
	Subject string
	Body    string
}

func (f *FakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, FakeMail{To: to, Subject: subject, Body: body})
	return nil
}

// FakePaymentProvider returns canned checkout sessions and accepts any
// signature, echoing back a configurable event.
type FakePaymentProvider struct {
	mu        sync.Mutex
	Err       error
	SessionID string
	Event     *PaymentEvent
	Requests  []CheckoutRequest
}

func (f *FakePaymentProvider) CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return CheckoutSession{}, f.Err
	}
	f.Requests = append(f.Requests, req)
	id := f.SessionID
	if id == "" {
		id = "cs_test_fake"
	}
	return CheckoutSession{
		ID:  id,
		URL: "https://checkout.test/pay/" + id,
	}, nil
}

func (f *FakePaymentProvider) VerifyEvent(payload []byte, signature string) (PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return PaymentEvent{}, f.Err
	}
	if f.Event != nil {
		return *f.Event, nil
	}
	id := f.SessionID
	if id == "" {
		id = "cs_test_fake"
	}
	return PaymentEvent{Type: EventCheckoutCompleted, SessionID: id}, nil
}
