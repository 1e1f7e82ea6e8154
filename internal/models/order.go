// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package models

import "time"

// Order status values.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
)

// OrderLine is a priced snapshot of a cart line taken at checkout time.
// UnitAmount is the unit price in minor currency units (cents).
type OrderLine struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	UnitAmount int64  `json:"unitAmount"`
	Quantity   int    `json:"quantity"`
}

// Order records a checkout attempt. It is created pending when a payment
// session is opened and marked paid by the payment confirmation webhook, which
// also decrements stock and clears the customer's cart.
type Order struct {
	ID         string      `json:"_id"`
	CustomerID string      `json:"customerId"`
	SessionID  string      `json:"sessionId"`
	Lines      []OrderLine `json:"lines"`
	Currency   string      `json:"currency"`
	Total      int64       `json:"total"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	PaidAt     *time.Time  `json:"paidAt,omitempty"`
}
