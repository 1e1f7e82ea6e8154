// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/empress-shop/empress/internal/models"
)

// Orders is the order document store. Orders are additionally indexed by the
// payment-session identifier so the confirmation webhook can find them.
type Orders struct {
	db *badger.DB
}

// ErrOrderAlreadyPaid indicates a confirmation arrived for an order that was
// already completed. Webhook deliveries can repeat; the second one is a no-op.
var ErrOrderAlreadyPaid = errors.New("order already paid")

func orderKey(id string) []byte {
	return []byte(orderKeyPrefix + id)
}

func orderSessionKey(sessionID string) []byte {
	return []byte(orderSessionKeyPrefix + sessionID)
}

// Insert stores a new pending order and its session index entry.
func (s *Orders) Insert(ctx context.Context, o *models.Order) error {
	o.ID = NewID()
	o.CreatedAt = time.Now().UTC()
	o.Status = models.OrderPending

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, orderKey(o.ID), o); err != nil {
			return err
		}
		if err := txn.Set(orderSessionKey(o.SessionID), []byte(o.ID)); err != nil {
			return err
		}
		return nil
	})
}

// Get returns the order with the given identifier.
func (s *Orders) Get(ctx context.Context, id string) (*models.Order, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var o models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, orderKey(id), &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetBySessionID returns the order opened for a payment session.
func (s *Orders) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var o models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderSessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var orderID string
		if err := item.Value(func(val []byte) error {
			orderID = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, orderKey(orderID), &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByCustomer returns a customer's orders.
func (s *Orders) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, orderKeyPrefix, func(doc *models.Order) bool {
			if doc.CustomerID == customerID {
				orders = append(orders, *doc)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CompleteCheckout finalizes the order for a payment session: the order is
// marked paid, each ordered product's stock is decremented and its sold/revenue
// counters advanced, and the customer's cart is cleared. All of it happens in
// one transaction; a repeated confirmation returns ErrOrderAlreadyPaid and
// changes nothing.
func (db *DB) CompleteCheckout(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := db.badger.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(orderSessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var orderID string
		if err := item.Value(func(val []byte) error {
			orderID = string(val)
			return nil
		}); err != nil {
			return err
		}
		if err := getJSON(txn, orderKey(orderID), &order); err != nil {
			return err
		}
		if order.Status == models.OrderPaid {
			return ErrOrderAlreadyPaid
		}

		now := time.Now().UTC()

		for _, line := range order.Lines {
			var p models.Product
			err := getJSON(txn, productKey(line.ProductID), &p)
			if errors.Is(err, ErrNotFound) {
				// Product deleted between checkout and confirmation; the sale
				// still completes for the remaining lines.
				continue
			}
			if err != nil {
				return err
			}
			p.Stock -= line.Quantity
			if p.Stock < 0 {
				p.Stock = 0
			}
			p.ItemsSold += line.Quantity
			p.Revenue += float64(line.UnitAmount) / 100 * float64(line.Quantity)
			p.UpdatedAt = now
			if err := setJSON(txn, productKey(p.ID), &p); err != nil {
				return err
			}
		}

		var customer models.Customer
		err = getJSON(txn, customerKey(order.CustomerID), &customer)
		if err == nil {
			customer.Cart = []models.CartLine{}
			customer.UpdatedAt = now
			if err := setJSON(txn, customerKey(customer.ID), &customer); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		order.Status = models.OrderPaid
		order.PaidAt = &now
		return setJSON(txn, orderKey(order.ID), &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
