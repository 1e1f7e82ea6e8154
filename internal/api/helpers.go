// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/catalog"
	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/logging"
	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
	"github.com/empress-shop/empress/internal/validation"
)

const (
	maxJSONBody      = 1 << 20  // 1 MiB
	maxMultipartBody = 32 << 20 // 32 MiB
)

var (
	errInvalidBody = errors.New("Invalid request body")
	errInvalidForm = errors.New("Invalid multipart form")
)

// respond writes the uniform response envelope. Encoding failures are logged;
// the status line has already been sent at that point.
func respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	env := models.Response{Status: status, Message: message, Data: data}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON reads and validates a JSON request body into v. The returned
// error is already client-safe.
func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errInvalidBody
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

// fail maps a domain error onto the response envelope. The entity name feeds
// the store error messages ("Invalid product ID", "Product not found", ...).
func fail(w http.ResponseWriter, err error, entity string) {
	var verr *validation.RequestError
	if errors.As(err, &verr) {
		respond(w, http.StatusBadRequest, verr.Error(), nil)
		return
	}

	switch {
	case errors.Is(err, errInvalidBody), errors.Is(err, errInvalidForm):
		respond(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, store.ErrInvalidID):
		respond(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID", entity), nil)
	case errors.Is(err, store.ErrNotFound):
		respond(w, http.StatusNotFound, fmt.Sprintf("%s not found", capitalize(entity)), nil)
	case errors.Is(err, store.ErrDuplicateName):
		respond(w, http.StatusBadRequest,
			fmt.Sprintf("%s with the same name already exists", capitalize(entity)), nil)
	case errors.Is(err, store.ErrDuplicateEmail):
		respond(w, http.StatusBadRequest, "Email already exists", nil)
	case errors.Is(err, store.ErrAdminExists):
		respond(w, http.StatusBadRequest, "Admin already exists", nil)
	case errors.Is(err, store.ErrAlreadyInCollection):
		respond(w, http.StatusBadRequest, "Product already exists in the collection", nil)
	case errors.Is(err, store.ErrNotInCollection):
		respond(w, http.StatusBadRequest, "Product does not exist in the collection", nil)
	case errors.Is(err, cart.ErrInvalidQuantity):
		respond(w, http.StatusBadRequest, "Quantity must be at least 1", nil)
	case errors.Is(err, cart.ErrInsufficientStock):
		respond(w, http.StatusBadRequest, "Insufficient stock available", nil)
	case errors.Is(err, cart.ErrEmptyCart):
		respond(w, http.StatusBadRequest, "Cart is empty", nil)
	case errors.Is(err, catalog.ErrMaterialExists):
		respond(w, http.StatusBadRequest, "Material already exists in the product", nil)
	case errors.Is(err, catalog.ErrMaterialNotFound):
		respond(w, http.StatusNotFound, "Material does not exist in the product", nil)
	case errors.Is(err, catalog.ErrImageNotFound):
		respond(w, http.StatusNotFound, "Image does not exist in the product", nil)
	case errors.Is(err, catalog.ErrImageRequired):
		respond(w, http.StatusBadRequest, "At least one image is required", nil)
	case errors.Is(err, collab.ErrBadSignature):
		respond(w, http.StatusBadRequest, "Invalid webhook signature", nil)
	default:
		logging.Error().Err(err).Msg("request failed")
		respond(w, http.StatusInternalServerError, "Something went wrong", nil)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// clientIP returns the request's remote IP. RealIP middleware has already
// unwrapped X-Forwarded-For upstream.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// saveUploadedFiles parses the multipart form and spools each file under the
// given field to a temporary file, returning the local paths. Callers own
// cleanup of the returned paths on every outcome.
func saveUploadedFiles(r *http.Request, field string) ([]string, error) {
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		return nil, errInvalidForm
	}
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	paths := make([]string, 0, len(headers))
	for _, hdr := range headers {
		path, err := spoolFile(hdr)
		if err != nil {
			for _, p := range paths {
				os.Remove(p)
			}
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func spoolFile(hdr *multipart.FileHeader) (string, error) {
	src, err := hdr.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "empress-upload-*")
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	return dst.Name(), nil
}
