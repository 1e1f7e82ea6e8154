// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empress-shop/empress/internal/store"
)

// handleStorefrontProducts lists products that are visible and in stock.
// Hidden and sold-out products never appear on the storefront.
func (s *Server) handleStorefrontProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.db.Products.ListVisibleInStock(r.Context())
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Products retrieved successfully", products)
}

func (s *Server) handleStorefrontProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.db.Products.Get(r.Context(), id)
	if err != nil {
		fail(w, err, "product")
		return
	}
	if !product.IsVisible || product.Stock <= 0 {
		fail(w, store.ErrNotFound, "product")
		return
	}
	respond(w, http.StatusOK, "Product retrieved successfully", product)
}

func (s *Server) handleStorefrontCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.db.Collections.List(r.Context())
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, "Collections retrieved successfully", collections)
}

func (s *Server) handleStorefrontCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "collection")
		return
	}

	collection, err := s.db.Collections.Get(r.Context(), id)
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, "Collection retrieved successfully", collection)
}
