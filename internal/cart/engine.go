// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package cart implements the per-customer shopping cart. Carts store only
// (product id, quantity) pairs; product details are joined at read time so
// price and availability changes are reflected without touching stored carts.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

var (
	// ErrInvalidQuantity is returned when a requested quantity is below one.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

	// ErrInsufficientStock is returned when a product's stock cannot cover
	// the requested quantity.
	ErrInsufficientStock = errors.New("cart: insufficient stock available")

	// ErrEmptyCart is returned when checkout is attempted on an empty cart.
	ErrEmptyCart = errors.New("cart: cart is empty")
)

// Operation selects the direction of an incremental cart update.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
)

// ParseOperation validates a client-supplied operation string.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OpAdd, OpSubtract:
		return Operation(s), nil
	default:
		return "", fmt.Errorf("cart: unknown operation %q", s)
	}
}

// Line is a cart line joined with live product details for display.
type Line struct {
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Price     float64           `json:"price"`
	Stock     int               `json:"stock"`
	Images    []models.ImageRef `json:"imagesUrl"`
	Quantity  int               `json:"quantity"`
}

// Engine mutates customer carts against live catalog state.
type Engine struct {
	customers *store.Customers
	products  *store.Products
}

// NewEngine wires the cart engine to its stores.
func NewEngine(customers *store.Customers, products *store.Products) *Engine {
	return &Engine{customers: customers, products: products}
}

// Add puts quantity units of a product into the customer's cart, merging into
// an existing line when one is present. Stock is checked against this single
// add, not the cumulative cart quantity.
func (e *Engine) Add(ctx context.Context, customerID, productID string, quantity int) ([]models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := e.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	customer, err := e.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if line := customer.FindCartLine(productID); line != nil {
		line.Quantity += quantity
	} else {
		customer.Cart = append(customer.Cart, models.CartLine{
			ProductID: productID,
			Quantity:  quantity,
		})
	}

	if err := e.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer.Cart, nil
}

// Get returns the customer's cart joined with current product details. Lines
// whose product has been deleted since they were added are skipped.
func (e *Engine) Get(ctx context.Context, customerID string) ([]Line, error) {
	customer, err := e.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(customer.Cart))
	for _, cl := range customer.Cart {
		product, err := e.products.Get(ctx, cl.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Stock:     product.Stock,
			Images:    product.ImagesURL,
			Quantity:  cl.Quantity,
		})
	}
	return lines, nil
}

// Update increments or decrements an existing cart line. Subtracting to zero
// or below removes the line entirely.
func (e *Engine) Update(ctx context.Context, customerID, productID string, quantity int, op Operation) ([]models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	customer, err := e.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	line := customer.FindCartLine(productID)
	if line == nil {
		return nil, store.ErrNotFound
	}

	switch op {
	case OpAdd:
		line.Quantity += quantity
	case OpSubtract:
		line.Quantity -= quantity
		if line.Quantity <= 0 {
			customer.Cart = removeLine(customer.Cart, productID)
		}
	default:
		return nil, fmt.Errorf("cart: unknown operation %q", op)
	}

	if err := e.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer.Cart, nil
}

// Remove drops the line for productID. Removing an absent line is a no-op.
func (e *Engine) Remove(ctx context.Context, customerID, productID string) ([]models.CartLine, error) {
	customer, err := e.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	customer.Cart = removeLine(customer.Cart, productID)

	if err := e.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer.Cart, nil
}

// CheckoutLines builds payment line items from the live cart. Unit amounts
// are rounded to the currency's minor unit; prices like 19.99 are not exactly
// representable in a float64 and truncation would undercharge. Lines whose
// product has been deleted are skipped, matching Get; a cart left with no
// purchasable lines is treated as empty.
func (e *Engine) CheckoutLines(ctx context.Context, customerID string) ([]models.OrderLine, error) {
	customer, err := e.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLine, 0, len(customer.Cart))
	for _, cl := range customer.Cart {
		product, err := e.products.Get(ctx, cl.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		line := models.OrderLine{
			ProductID:  product.ID,
			Name:       product.Name,
			UnitAmount: int64(math.Round(product.Price * 100)),
			Quantity:   cl.Quantity,
		}
		if len(product.ImagesURL) > 0 {
			line.Image = product.ImagesURL[0].OptimizeURL
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return lines, nil
}

func removeLine(cart []models.CartLine, productID string) []models.CartLine {
	kept := cart[:0]
	for _, line := range cart {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	return kept
}
