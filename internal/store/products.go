// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/empress-shop/empress/internal/models"
)

// Products is the product document store.
type Products struct {
	db *badger.DB
}

func productKey(id string) []byte {
	return []byte(productKeyPrefix + id)
}

// Insert stores a new product, assigning its identifier and timestamps.
// Fails with ErrDuplicateName when a product with the same name exists; the
// uniqueness check and the write happen in one transaction.
func (s *Products) Insert(ctx context.Context, p *models.Product) error {
	p.ID = NewID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Materials == nil {
		p.Materials = []string{}
	}
	if p.ImagesURL == nil {
		p.ImagesURL = []models.ImageRef{}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		taken := false
		err := scan(txn, productKeyPrefix, func(doc *models.Product) bool {
			if strings.EqualFold(doc.Name, p.Name) {
				taken = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateName
		}
		return setJSON(txn, productKey(p.ID), p)
	})
}

// Get returns the product with the given identifier.
func (s *Products) Get(ctx context.Context, id string) (*models.Product, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var p models.Product
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, productKey(id), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByName returns the product whose name matches (case-insensitive), or
// ErrNotFound.
func (s *Products) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var found *models.Product
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, productKeyPrefix, func(doc *models.Product) bool {
			if strings.EqualFold(doc.Name, name) {
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

// List returns every product.
func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, productKeyPrefix, func(doc *models.Product) bool {
			products = append(products, *doc)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListVisibleInStock returns the storefront view: visible products with
// stock greater than zero.
func (s *Products) ListVisibleInStock(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, productKeyPrefix, func(doc *models.Product) bool {
			if doc.IsVisible && doc.Stock > 0 {
				products = append(products, *doc)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListLowStock returns products with stock strictly below threshold.
func (s *Products) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, productKeyPrefix, func(doc *models.Product) bool {
			if doc.Stock < threshold {
				products = append(products, *doc)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update persists a modified product. The document must already exist.
func (s *Products) Update(ctx context.Context, p *models.Product) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Product
		if err := getJSON(txn, productKey(p.ID), &existing); err != nil {
			return err
		}
		return setJSON(txn, productKey(p.ID), p)
	})
}

// Delete removes a product. Returns ErrNotFound when it does not exist.
func (s *Products) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Product
		if err := getJSON(txn, productKey(id), &existing); err != nil {
			return err
		}
		if err := txn.Delete(productKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}
