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

// Collections is the collection document store.
type Collections struct {
	db *badger.DB
}

// Membership errors.
var (
	// ErrAlreadyInCollection indicates the product is already a member.
	ErrAlreadyInCollection = errors.New("product already in collection")

	// ErrNotInCollection indicates the product is not a member.
	ErrNotInCollection = errors.New("product not in collection")
)

func collectionKey(id string) []byte {
	return []byte(collectionKeyPrefix + id)
}

// Insert stores a new collection, assigning its identifier and timestamps.
// Fails with ErrDuplicateName when a collection with the same name exists.
func (s *Collections) Insert(ctx context.Context, c *models.Collection) error {
	c.ID = NewID()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Products == nil {
		c.Products = []string{}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		taken := false
		err := scan(txn, collectionKeyPrefix, func(doc *models.Collection) bool {
			if strings.EqualFold(doc.Name, c.Name) {
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
		return setJSON(txn, collectionKey(c.ID), c)
	})
}

// Get returns the collection with the given identifier.
func (s *Collections) Get(ctx context.Context, id string) (*models.Collection, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var c models.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, collectionKey(id), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every collection.
func (s *Collections) List(ctx context.Context) ([]models.Collection, error) {
	collections := []models.Collection{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, collectionKeyPrefix, func(doc *models.Collection) bool {
			collections = append(collections, *doc)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return collections, nil
}

// Update persists a modified collection. The document must already exist.
// The name-uniqueness scan excludes the document being updated, so renaming a
// collection to its current name is not a conflict.
func (s *Collections) Update(ctx context.Context, c *models.Collection) error {
	if err := ValidateID(c.ID); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Collection
		if err := getJSON(txn, collectionKey(c.ID), &existing); err != nil {
			return err
		}
		taken := false
		err := scan(txn, collectionKeyPrefix, func(doc *models.Collection) bool {
			if doc.ID != c.ID && strings.EqualFold(doc.Name, c.Name) {
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
		return setJSON(txn, collectionKey(c.ID), c)
	})
}

// Delete removes a collection. Products that referenced it have their
// membership link cleared in the same transaction.
func (s *Collections) Delete(ctx context.Context, id string) (*models.Collection, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var deleted models.Collection
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, collectionKey(id), &deleted); err != nil {
			return err
		}
		for _, productID := range deleted.Products {
			var p models.Product
			err := getJSON(txn, productKey(productID), &p)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if p.CollectionID == id {
				p.CollectionID = ""
				p.UpdatedAt = time.Now().UTC()
				if err := setJSON(txn, productKey(productID), &p); err != nil {
					return err
				}
			}
		}
		return txn.Delete(collectionKey(id))
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// SetMembership adds or removes a product to/from a collection, keeping both
// sides of the relation and the stored counter consistent: the collection's
// product set, its itemsCount, and the product's collectionId all change in
// one transaction.
//
// Add fails with ErrAlreadyInCollection when the product is a member; remove
// fails with ErrNotInCollection when it is not. The updated collection and
// product are returned.
func (db *DB) SetMembership(ctx context.Context, collectionID, productID string, add bool) (*models.Collection, *models.Product, error) {
	if err := ValidateID(collectionID); err != nil {
		return nil, nil, err
	}
	if err := ValidateID(productID); err != nil {
		return nil, nil, err
	}

	var (
		c models.Collection
		p models.Product
	)
	err := db.badger.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, collectionKey(collectionID), &c); err != nil {
			return err
		}
		if err := getJSON(txn, productKey(productID), &p); err != nil {
			return err
		}

		member := c.InCollection(productID)
		if add {
			if member {
				return ErrAlreadyInCollection
			}
			c.Products = append(c.Products, productID)
			p.CollectionID = collectionID
		} else {
			if !member {
				return ErrNotInCollection
			}
			kept := c.Products[:0]
			for _, id := range c.Products {
				if id != productID {
					kept = append(kept, id)
				}
			}
			c.Products = kept
			if p.CollectionID == collectionID {
				p.CollectionID = ""
			}
		}
		c.ItemsCount = len(c.Products)

		now := time.Now().UTC()
		c.UpdatedAt = now
		p.UpdatedAt = now

		if err := setJSON(txn, collectionKey(c.ID), &c); err != nil {
			return err
		}
		return setJSON(txn, productKey(p.ID), &p)
	})
	if err != nil {
		return nil, nil, err
	}
	return &c, &p, nil
}
