// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package collab

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/empress-shop/empress/internal/config"
	"github.com/empress-shop/empress/internal/models"
)

// Cloudinary transformations applied to the two derived URLs: an
// auto-format/auto-quality delivery URL and a 500x500 auto-cropped square.
const (
	optimizeTransformation = "f_auto,q_auto"
	autoCropTransformation = "c_auto,g_auto,w_500,h_500"
)

// CloudinaryHost is the Cloudinary-backed ImageHost.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryHost builds an image host from explicit credentials.
func NewCloudinaryHost(cfg *config.CloudinaryConfig) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryHost{cld: cld}, nil
}

// Upload pushes the local file under publicID and derives the optimized and
// auto-cropped delivery URLs.
func (h *CloudinaryHost) Upload(ctx context.Context, localPath, publicID string) (models.ImageRef, error) {
	_, err := h.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{PublicID: publicID})
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("cloudinary upload %q: %w", publicID, err)
	}

	optimizeURL, err := h.transformedURL(publicID, optimizeTransformation)
	if err != nil {
		return models.ImageRef{}, err
	}
	autoCropURL, err := h.transformedURL(publicID, autoCropTransformation)
	if err != nil {
		return models.ImageRef{}, err
	}

	return models.ImageRef{
		OptimizeURL: optimizeURL,
		AutoCropURL: autoCropURL,
		PublicID:    publicID,
	}, nil
}

// Delete destroys the hosted image by public id.
func (h *CloudinaryHost) Delete(ctx context.Context, publicID string) error {
	_, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %q: %w", publicID, err)
	}
	return nil
}

// transformedURL builds a delivery URL with the given transformation applied.
func (h *CloudinaryHost) transformedURL(publicID, transformation string) (string, error) {
	img, err := h.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary asset %q: %w", publicID, err)
	}
	img.Transformation = transformation
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("cloudinary url %q: %w", publicID, err)
	}
	return url, nil
}
