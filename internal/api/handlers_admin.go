// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/empress-shop/empress/internal/catalog"
	"github.com/empress-shop/empress/internal/store"
	"github.com/empress-shop/empress/internal/validation"
)

// lowStockThreshold is the stock level below which a product appears in the
// admin notification feed.
const lowStockThreshold = 5

type materialRequest struct {
	Material string `json:"material" validate:"required"`
}

type removeImageRequest struct {
	PublicID string `json:"publicId" validate:"required"`
}

type membershipRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.CreateProduct(r.Context(), &in)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusCreated, "Product added successfully", product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.db.Products.List(r.Context())
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Products retrieved successfully", products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
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
	respond(w, http.StatusOK, "Product retrieved successfully", product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.UpdateProduct(r.Context(), id, &in)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Product updated successfully", product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Product deleted successfully", nil)
}

func (s *Server) handleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.ToggleVisibility(r.Context(), id)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Product visibility changed successfully", product)
}

func (s *Server) handleAddMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.AddMaterial(r.Context(), id, req.Material)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Material added to product successfully", product)
}

func (s *Server) handleRemoveMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.RemoveMaterial(r.Context(), id, req.Material)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Material removed from product successfully", product)
}

// handleAddProductImages accepts a multipart form with one or more files
// under the "images" field.
func (s *Server) handleAddProductImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	paths, err := saveUploadedFiles(r, "images")
	if err != nil {
		fail(w, err, "product")
		return
	}

	if err := store.ValidateID(id); err != nil {
		for _, p := range paths {
			os.Remove(p)
		}
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.AddProductImages(r.Context(), id, paths)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Images added to product successfully", product)
}

func (s *Server) handleRemoveProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "product")
		return
	}

	var req removeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}

	product, err := s.catalog.RemoveProductImage(r.Context(), id, req.PublicID)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Image removed from product successfully", product)
}

// handleCreateCollection accepts a multipart form: name and description
// fields plus a required file under "image".
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	in, imagePath, err := collectionForm(r)
	if err != nil {
		fail(w, err, "collection")
		return
	}

	collection, err := s.catalog.CreateCollection(r.Context(), in, imagePath)
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusCreated, "Collection added successfully", collection)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.db.Collections.List(r.Context())
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, "Collections retrieved successfully", collections)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
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

// handleUpdateCollection accepts the same form as create, with the image
// optional; omitting it keeps the current image.
func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")

	in, imagePath, err := collectionForm(r)
	if err != nil {
		fail(w, err, "collection")
		return
	}

	if err := store.ValidateID(id); err != nil {
		if imagePath != "" {
			os.Remove(imagePath)
		}
		fail(w, err, "collection")
		return
	}

	collection, err := s.catalog.UpdateCollection(r.Context(), id, in, imagePath)
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, "Collection updated successfully", collection)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "collection")
		return
	}

	if err := s.catalog.DeleteCollection(r.Context(), id); err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, "Collection deleted successfully", nil)
}

func (s *Server) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	s.handleMembership(w, r, true, "Product added to collection successfully")
}

func (s *Server) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	s.handleMembership(w, r, false, "Product removed from collection successfully")
}

func (s *Server) handleMembership(w http.ResponseWriter, r *http.Request, add bool, message string) {
	collectionID := chi.URLParam(r, "collectionID")
	if err := store.ValidateID(collectionID); err != nil {
		fail(w, err, "collection")
		return
	}

	var req membershipRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "product")
		return
	}
	if err := store.ValidateID(req.ProductID); err != nil {
		fail(w, err, "product")
		return
	}

	var err error
	var result any
	if add {
		_, product, merr := s.catalog.AddToCollection(r.Context(), collectionID, req.ProductID)
		err, result = merr, product
	} else {
		collection, _, merr := s.catalog.RemoveFromCollection(r.Context(), collectionID, req.ProductID)
		err, result = merr, collection
	}
	if err != nil {
		fail(w, err, "collection")
		return
	}
	respond(w, http.StatusOK, message, result)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.db.Customers.List(r.Context())
	if err != nil {
		fail(w, err, "customer")
		return
	}
	respond(w, http.StatusOK, "Customers retrieved successfully", customers)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "customer")
		return
	}

	customer, err := s.db.Customers.Get(r.Context(), id)
	if err != nil {
		fail(w, err, "customer")
		return
	}
	respond(w, http.StatusOK, "Customer retrieved successfully", customer)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	if err := store.ValidateID(id); err != nil {
		fail(w, err, "customer")
		return
	}

	if err := s.db.Customers.Delete(r.Context(), id); err != nil {
		fail(w, err, "customer")
		return
	}
	respond(w, http.StatusOK, "Customer deleted successfully", nil)
}

// handleNotifications surfaces products running low on stock.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	lowStock, err := s.db.Products.ListLowStock(r.Context(), lowStockThreshold)
	if err != nil {
		fail(w, err, "product")
		return
	}
	respond(w, http.StatusOK, "Notifications retrieved successfully", map[string]any{
		"products": lowStock,
		"orders":   []any{},
		"users":    []any{},
	})
}

// collectionForm parses the multipart collection payload and spools the
// optional image file. The caller owns cleanup of the returned path.
func collectionForm(r *http.Request) (*catalog.CollectionInput, string, error) {
	paths, err := saveUploadedFiles(r, "image")
	if err != nil {
		return nil, "", err
	}
	imagePath := ""
	if len(paths) > 0 {
		imagePath = paths[0]
	}

	in := &catalog.CollectionInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	if verr := validation.ValidateStruct(in); verr != nil {
		if imagePath != "" {
			os.Remove(imagePath)
		}
		return nil, "", verr
	}
	return in, imagePath, nil
}
