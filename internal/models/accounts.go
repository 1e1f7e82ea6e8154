// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package models

import "time"

// Address is a customer's postal address, embedded in the customer document.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// CartLine is one (product, quantity) pair in a customer's cart. Quantity is
// always >= 1; a line that would drop to zero is removed instead.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Customer holds a storefront account. The cart is embedded and exclusively
// owned by the customer; lines reference products by identifier only.
type Customer struct {
	ID           string     `json:"_id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Address      Address    `json:"address"`
	PasswordHash string     `json:"-"`
	Cart         []CartLine `json:"cart"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FindCartLine returns a pointer into the customer's cart for productID, or
// nil when no line exists. The pointer stays valid until the cart slice is
// reallocated.
func (c *Customer) FindCartLine(productID string) *CartLine {
	for i := range c.Cart {
		if c.Cart[i].ProductID == productID {
			return &c.Cart[i]
		}
	}
	return nil
}

// Admin holds an administrator account. Role is not stored: a record being in
// the admin store is what makes its owner an administrator.
type Admin struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
