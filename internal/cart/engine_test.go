// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.DB) {
	t.Helper()
	db, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEngine(db.Customers, db.Products), db
}

func seedProduct(t *testing.T, db *store.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Price:       price,
		Stock:       stock,
		Description: "d",
		Summary:     "s",
		IsVisible:   true,
	}
	if err := db.Products.Insert(context.Background(), p); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return p
}

func seedCustomer(t *testing.T, db *store.DB) *models.Customer {
	t.Helper()
	c := &models.Customer{
		Email:        "ada@example.com",
		PasswordHash: "x",
		Cart:         []models.CartLine{},
	}
	if err := db.Customers.Insert(context.Background(), c); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return c
}

func TestAddMergesExistingLine(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Bracelet", 20, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, product.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := engine.Add(ctx, customer.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(cart))
	}
	if cart[0].Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", cart[0].Quantity)
	}
}

func TestAddRejectsBadQuantity(t *testing.T) {
	engine, db := newTestEngine(t)
	product := seedProduct(t, db, "Bracelet", 20, 10)
	customer := seedCustomer(t, db)

	for _, qty := range []int{0, -1} {
		if _, err := engine.Add(context.Background(), customer.ID, product.ID, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Add(qty=%d) = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestAddInsufficientStockLeavesCartUnchanged(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Bracelet", 20, 3)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, product.ID, 2); err != nil {
		t.Fatalf("seed add: %v", err)
	}
	if _, err := engine.Add(ctx, customer.ID, product.ID, 4); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("oversized add = %v, want ErrInsufficientStock", err)
	}

	got, err := db.Customers.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if len(got.Cart) != 1 || got.Cart[0].Quantity != 2 {
		t.Errorf("cart after failed add = %+v, want single line qty 2", got.Cart)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	engine, db := newTestEngine(t)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(context.Background(), customer.ID, store.NewID(), 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("add unknown product = %v, want ErrNotFound", err)
	}
}

func TestGetJoinsProductsAndSkipsDeleted(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	kept := seedProduct(t, db, "Kept", 12.50, 10)
	gone := seedProduct(t, db, "Gone", 5, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, kept.ID, 2); err != nil {
		t.Fatalf("add kept: %v", err)
	}
	if _, err := engine.Add(ctx, customer.ID, gone.ID, 1); err != nil {
		t.Fatalf("add gone: %v", err)
	}
	if err := db.Products.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	lines, err := engine.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("joined cart has %d lines, want 1", len(lines))
	}
	if lines[0].Name != "Kept" || lines[0].Price != 12.50 || lines[0].Quantity != 2 {
		t.Errorf("joined line = %+v", lines[0])
	}
}

func TestUpdateSubtractRemovesDrainedLine(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Bracelet", 20, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := engine.Update(ctx, customer.ID, product.ID, 1, OpSubtract)
	if err != nil {
		t.Fatalf("subtract 1: %v", err)
	}
	if len(cart) != 1 || cart[0].Quantity != 1 {
		t.Fatalf("cart after subtract = %+v, want single line qty 1", cart)
	}

	// Subtracting at least the remaining quantity removes the line.
	cart, err = engine.Update(ctx, customer.ID, product.ID, 5, OpSubtract)
	if err != nil {
		t.Fatalf("subtract past zero: %v", err)
	}
	if len(cart) != 0 {
		t.Errorf("cart after draining = %+v, want empty", cart)
	}
}

func TestUpdateMissingLine(t *testing.T) {
	engine, db := newTestEngine(t)
	product := seedProduct(t, db, "Bracelet", 20, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Update(context.Background(), customer.ID, product.ID, 1, OpAdd); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update absent line = %v, want ErrNotFound", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Bracelet", 20, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := engine.Remove(ctx, customer.ID, product.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart) != 0 {
		t.Fatalf("cart after remove = %+v, want empty", cart)
	}

	cart, err = engine.Remove(ctx, customer.ID, product.ID)
	if err != nil {
		t.Fatalf("repeated remove: %v", err)
	}
	if len(cart) != 0 {
		t.Errorf("cart after repeated remove = %+v, want empty", cart)
	}
}

func TestParseOperation(t *testing.T) {
	if op, err := ParseOperation("add"); err != nil || op != OpAdd {
		t.Errorf("ParseOperation(add) = %v, %v", op, err)
	}
	if op, err := ParseOperation("subtract"); err != nil || op != OpSubtract {
		t.Errorf("ParseOperation(subtract) = %v, %v", op, err)
	}
	if _, err := ParseOperation("multiply"); err == nil {
		t.Error("ParseOperation(multiply) succeeded, want error")
	}
}

func TestCheckoutLines(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Bracelet", 25.50, 10)
	product.ImagesURL = []models.ImageRef{{OptimizeURL: "https://images.test/optimize/b", PublicID: "b"}}
	if err := db.Products.Update(ctx, product); err != nil {
		t.Fatalf("attach image: %v", err)
	}
	customer := seedCustomer(t, db)

	if _, err := engine.CheckoutLines(ctx, customer.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart checkout = %v, want ErrEmptyCart", err)
	}

	if _, err := engine.Add(ctx, customer.ID, product.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, err := engine.CheckoutLines(ctx, customer.ID)
	if err != nil {
		t.Fatalf("checkout lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if line.UnitAmount != 2550 {
		t.Errorf("unit amount = %d, want 2550 (minor units)", line.UnitAmount)
	}
	if line.Quantity != 3 || line.Name != "Bracelet" {
		t.Errorf("line = %+v", line)
	}
	if line.Image != "https://images.test/optimize/b" {
		t.Errorf("line image = %q", line.Image)
	}
}

func TestCheckoutLinesRoundsMinorUnits(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	customer := seedCustomer(t, db)

	// Prices that are not exactly representable in a float64 must round,
	// not truncate: 19.99*100 is 1998.999... in binary.
	cases := []struct {
		price float64
		want  int64
	}{
		{19.99, 1999},
		{4.20, 420},
		{0.07, 7},
		{25.50, 2550},
	}
	for i, tc := range cases {
		product := seedProduct(t, db, fmt.Sprintf("Priced %d", i), tc.price, 10)
		if _, err := engine.Add(ctx, customer.ID, product.ID, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
		lines, err := engine.CheckoutLines(ctx, customer.ID)
		if err != nil {
			t.Fatalf("checkout lines: %v", err)
		}
		if got := lines[len(lines)-1].UnitAmount; got != tc.want {
			t.Errorf("unit amount for price %v = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestCheckoutLinesSkipsDeletedProducts(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	kept := seedProduct(t, db, "Kept", 10, 10)
	gone := seedProduct(t, db, "Gone", 5, 10)
	customer := seedCustomer(t, db)

	if _, err := engine.Add(ctx, customer.ID, kept.ID, 1); err != nil {
		t.Fatalf("add kept: %v", err)
	}
	if _, err := engine.Add(ctx, customer.ID, gone.ID, 1); err != nil {
		t.Fatalf("add gone: %v", err)
	}
	if err := db.Products.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	lines, err := engine.CheckoutLines(ctx, customer.ID)
	if err != nil {
		t.Fatalf("checkout lines: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != kept.ID {
		t.Errorf("lines = %+v, want only the surviving product", lines)
	}

	// A cart whose every product has been deleted has nothing to buy.
	if err := db.Products.Delete(ctx, kept.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := engine.CheckoutLines(ctx, customer.ID); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("all-deleted cart = %v, want ErrEmptyCart", err)
	}
}
