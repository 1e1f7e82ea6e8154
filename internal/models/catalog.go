// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package models

import "time"

// ImageRef is a stored reference to an image held by the external image host.
// PublicID is the host-side opaque identifier used for deletion.
type ImageRef struct {
	OptimizeURL string `json:"optimizeUrl"`
	AutoCropURL string `json:"autoCropUrl"`
	PublicID    string `json:"publicId"`
}

// Product is a catalog item. Name is unique across the catalog.
//
// Membership is a weak link: CollectionID holds at most one collection
// identifier and is mirrored by the collection's Products set. ItemsSold and
// Revenue are maintained by payment confirmation, never by cart mutation.
type Product struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	Stock        int        `json:"stock"`
	ItemsSold    int        `json:"itemsSold"`
	Revenue      float64    `json:"revenue"`
	Description  string     `json:"description"`
	Summary      string     `json:"summary"`
	CollectionID string     `json:"collectionId,omitempty"`
	Materials    []string   `json:"materials"`
	IsVisible    bool       `json:"isVisible"`
	ImagesURL    []ImageRef `json:"imagesUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Collection groups products under a name with a single image.
//
// ItemsCount is a stored counter kept equal to len(Products); both are only
// ever mutated together inside one store transaction.
type Collection struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ItemsCount  int       `json:"itemsCount"`
	Products    []string  `json:"products"`
	ImageURL    ImageRef  `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InCollection reports whether productID is a member of the collection.
func (c *Collection) InCollection(productID string) bool {
	for _, id := range c.Products {
		if id == productID {
			return true
		}
	}
	return false
}

// HasMaterial reports whether the product's material set contains m.
func (p *Product) HasMaterial(m string) bool {
	for _, existing := range p.Materials {
		if existing == m {
			return true
		}
	}
	return false
}
