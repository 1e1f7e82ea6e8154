// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package catalog implements administrator-facing catalog maintenance:
// product and collection CRUD, visibility, materials, images, and
// collection membership.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/logging"
	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

var (
	// ErrMaterialExists is returned when adding a material the product
	// already carries.
	ErrMaterialExists = errors.New("catalog: material already exists in the product")

	// ErrMaterialNotFound is returned when removing a material the product
	// does not carry.
	ErrMaterialNotFound = errors.New("catalog: material does not exist in the product")

	// ErrImageNotFound is returned when removing an image whose public id
	// is not on the product.
	ErrImageNotFound = errors.New("catalog: image does not exist in the product")

	// ErrImageRequired is returned when an image operation receives no file.
	ErrImageRequired = errors.New("catalog: at least one image is required")
)

// ProductInput carries the mutable product fields for create and update.
// Update replaces every field it names; there is no partial merge.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Description string   `json:"description" validate:"required"`
	Summary     string   `json:"summary" validate:"required"`
	Materials   []string `json:"materials"`
	IsVisible   bool     `json:"isVisible"`
}

// CollectionInput carries the mutable collection fields.
type CollectionInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Service coordinates catalog mutations across the store and the image host.
type Service struct {
	db          *store.DB
	products    *store.Products
	collections *store.Collections
	images      collab.ImageHost
}

// NewService wires the catalog service.
func NewService(db *store.DB, images collab.ImageHost) *Service {
	return &Service{
		db:          db,
		products:    db.Products,
		collections: db.Collections,
		images:      images,
	}
}

// CreateProduct inserts a new product. Duplicate names are rejected by the
// store.
func (s *Service) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		Summary:     in.Summary,
		Materials:   in.Materials,
		IsVisible:   in.IsVisible,
	}
	if product.Materials == nil {
		product.Materials = []string{}
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct replaces the product's mutable fields wholesale. Counters,
// images, and collection membership are untouched.
func (s *Service) UpdateProduct(ctx context.Context, id string, in *ProductInput) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
	product.Summary = in.Summary
	product.IsVisible = in.IsVisible

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct hard-deletes the product and asks the image host to drop its
// images. Host failures are logged, not surfaced.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, img := range product.ImagesURL {
		s.deleteImage(ctx, img.PublicID)
	}

	return s.products.Delete(ctx, id)
}

// deleteImage asks the host to drop an image. Best-effort: failures are
// logged and never surfaced.
func (s *Service) deleteImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Delete(ctx, publicID); err != nil {
		logging.Warn().Err(err).Str("public_id", publicID).Msg("image host delete failed")
	}
}

// ToggleVisibility flips the product's visibility flag.
func (s *Service) ToggleVisibility(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsVisible = !product.IsVisible
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// AddMaterial appends a material tag. Set semantics: duplicates are rejected.
func (s *Service) AddMaterial(ctx context.Context, id, material string) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.HasMaterial(material) {
		return nil, ErrMaterialExists
	}
	product.Materials = append(product.Materials, material)
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveMaterial drops a material tag. Removing an absent tag is an error.
func (s *Service) RemoveMaterial(ctx context.Context, id, material string) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.HasMaterial(material) {
		return nil, ErrMaterialNotFound
	}
	kept := product.Materials[:0]
	for _, m := range product.Materials {
		if m != material {
			kept = append(kept, m)
		}
	}
	product.Materials = kept
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// AddProductImages uploads each local file to the image host and appends the
// resulting references. The temporary files are removed on every path.
func (s *Service) AddProductImages(ctx context.Context, id string, localPaths []string) (*models.Product, error) {
	defer removeAll(localPaths)

	if len(localPaths) == 0 {
		return nil, ErrImageRequired
	}

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, path := range localPaths {
		publicID := fmt.Sprintf("%s-%d", id, time.Now().UnixMilli())
		ref, err := s.images.Upload(ctx, path, publicID)
		if err != nil {
			return nil, fmt.Errorf("catalog: image upload: %w", err)
		}
		product.ImagesURL = append(product.ImagesURL, ref)
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveProductImage drops the image reference matching publicID. The host
// delete is best-effort.
func (s *Service) RemoveProductImage(ctx context.Context, id, publicID string) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, img := range product.ImagesURL {
		if img.PublicID == publicID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrImageNotFound
	}

	s.deleteImage(ctx, publicID)

	product.ImagesURL = append(product.ImagesURL[:idx], product.ImagesURL[idx+1:]...)
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateCollection uploads the collection image and inserts the document.
// The image file is required and removed on every path.
func (s *Service) CreateCollection(ctx context.Context, in *CollectionInput, localImagePath string) (*models.Collection, error) {
	defer removeAll([]string{localImagePath})

	if localImagePath == "" {
		return nil, ErrImageRequired
	}

	publicID := fmt.Sprintf("%s-%d", in.Name, time.Now().UnixMilli())
	ref, err := s.images.Upload(ctx, localImagePath, publicID)
	if err != nil {
		return nil, fmt.Errorf("catalog: image upload: %w", err)
	}

	collection := &models.Collection{
		Name:        in.Name,
		Description: in.Description,
		Products:    []string{},
		ImageURL:    ref,
	}
	if err := s.collections.Insert(ctx, collection); err != nil {
		// The image went up before the name check; drop it so a rejected
		// create does not orphan a hosted image.
		s.deleteImage(ctx, ref.PublicID)
		return nil, err
	}
	return collection, nil
}

// UpdateCollection replaces name and description, and the image only when a
// new file was supplied. The stored name-uniqueness check excludes the
// collection itself.
func (s *Service) UpdateCollection(ctx context.Context, id string, in *CollectionInput, localImagePath string) (*models.Collection, error) {
	defer removeAll([]string{localImagePath})

	collection, err := s.collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Upload the replacement before touching anything; the old image is
	// only deleted once the updated document is persisted, so a rejected
	// update (duplicate name) orphans nothing on either side.
	previous := collection.ImageURL
	if localImagePath != "" {
		publicID := fmt.Sprintf("%s-%d", in.Name, time.Now().UnixMilli())
		ref, err := s.images.Upload(ctx, localImagePath, publicID)
		if err != nil {
			return nil, fmt.Errorf("catalog: image upload: %w", err)
		}
		collection.ImageURL = ref
	}

	collection.Name = in.Name
	collection.Description = in.Description

	if err := s.collections.Update(ctx, collection); err != nil {
		if localImagePath != "" {
			s.deleteImage(ctx, collection.ImageURL.PublicID)
		}
		return nil, err
	}
	if localImagePath != "" {
		s.deleteImage(ctx, previous.PublicID)
	}
	return collection, nil
}

// DeleteCollection removes the document, clears membership links on its
// products, and asks the image host to drop its image.
func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	deleted, err := s.collections.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.deleteImage(ctx, deleted.ImageURL.PublicID)
	return nil
}

// AddToCollection links a product into a collection, maintaining both sides
// and the item counter in one store transaction.
func (s *Service) AddToCollection(ctx context.Context, collectionID, productID string) (*models.Collection, *models.Product, error) {
	return s.db.SetMembership(ctx, collectionID, productID, true)
}

// RemoveFromCollection unlinks a product from a collection.
func (s *Service) RemoveFromCollection(ctx context.Context, collectionID, productID string) (*models.Collection, *models.Product, error) {
	return s.db.SetMembership(ctx, collectionID, productID, false)
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", p).Msg("temp file cleanup failed")
		}
	}
}
