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

// Admins is the administrator credential store. The store holds at most one
// record: the bootstrap endpoint creates the single admin and further inserts
// fail with ErrAdminExists.
type Admins struct {
	db *badger.DB
}

func adminKey(id string) []byte {
	return []byte(adminKeyPrefix + id)
}

// Insert stores the admin account. Fails with ErrAdminExists when any admin
// record is already present.
func (s *Admins) Insert(ctx context.Context, a *models.Admin) error {
	a.ID = NewID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		exists := false
		err := scan(txn, adminKeyPrefix, func(doc *models.Admin) bool {
			exists = true
			return false
		})
		if err != nil {
			return err
		}
		if exists {
			return ErrAdminExists
		}
		return setJSON(txn, adminKey(a.ID), a)
	})
}

// Get returns the admin with the given identifier.
func (s *Admins) Get(ctx context.Context, id string) (*models.Admin, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var a models.Admin
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, adminKey(id), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByEmail returns the admin registered under email, or ErrNotFound.
func (s *Admins) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var found *models.Admin
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, adminKeyPrefix, func(doc *models.Admin) bool {
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
