// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package store

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/empress-shop/empress/internal/models"
)

// Customers is the customer credential store.
type Customers struct {
	db *badger.DB
}

func customerKey(id string) []byte {
	return []byte(customerKeyPrefix + id)
}

// Insert stores a new customer, assigning its identifier and timestamps.
// Fails with ErrDuplicateEmail when the email is already registered.
func (s *Customers) Insert(ctx context.Context, c *models.Customer) error {
	c.ID = NewID()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Cart == nil {
		c.Cart = []models.CartLine{}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		taken := false
		err := scan(txn, customerKeyPrefix, func(doc *models.Customer) bool {
			if strings.EqualFold(doc.Email, c.Email) {
				taken = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}
		return setJSON(txn, customerKey(c.ID), c)
	})
}

// Get returns the customer with the given identifier.
func (s *Customers) Get(ctx context.Context, id string) (*models.Customer, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var c models.Customer
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, customerKey(id), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByEmail returns the customer registered under email, or ErrNotFound.
func (s *Customers) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var found *models.Customer
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, customerKeyPrefix, func(doc *models.Customer) bool {
			if strings.EqualFold(doc.Email, email) {
				found = doc
				return false
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// List returns every customer.
func (s *Customers) List(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, customerKeyPrefix, func(doc *models.Customer) bool {
			customers = append(customers, *doc)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// Update persists a modified customer. The document must already exist.
// Changing the email re-checks uniqueness against other customers.
func (s *Customers) Update(ctx context.Context, c *models.Customer) error {
	if err := ValidateID(c.ID); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Customer
		if err := getJSON(txn, customerKey(c.ID), &existing); err != nil {
			return err
		}
		if !strings.EqualFold(existing.Email, c.Email) {
			taken := false
			err := scan(txn, customerKeyPrefix, func(doc *models.Customer) bool {
				if doc.ID != c.ID && strings.EqualFold(doc.Email, c.Email) {
					taken = true
					return false
				}
				return true
			})
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateEmail
			}
		}
		return setJSON(txn, customerKey(c.ID), c)
	})
}

// Delete removes a customer. Returns ErrNotFound when it does not exist.
func (s *Customers) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Customer
		if err := getJSON(txn, customerKey(id), &existing); err != nil {
			return err
		}
		return txn.Delete(customerKey(id))
	})
}
