// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"net/http"

	"github.com/empress-shop/empress/internal/auth"
)

type updateProfileRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// handleUpdateProfile merges non-empty fields into the caller's record. An
// email change re-checks uniqueness against other customers.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	customer, err := s.db.Customers.Get(r.Context(), identity.ID)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	setIfPresent(&customer.FirstName, req.FirstName)
	setIfPresent(&customer.LastName, req.LastName)
	setIfPresent(&customer.Email, req.Email)
	setIfPresent(&customer.Phone, req.Phone)
	setIfPresent(&customer.Address.Street, req.Street)
	setIfPresent(&customer.Address.City, req.City)
	setIfPresent(&customer.Address.Province, req.Province)
	setIfPresent(&customer.Address.Country, req.Country)
	setIfPresent(&customer.Address.PostalCode, req.PostalCode)

	if err := s.db.Customers.Update(r.Context(), customer); err != nil {
		fail(w, err, "customer")
		return
	}

	respond(w, http.StatusOK, "Customer details updated successfully", customerProfile(customer))
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	customer, err := s.db.Customers.Get(r.Context(), identity.ID)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	if !s.hasher.Compare(customer.PasswordHash, req.CurrentPassword) {
		respond(w, http.StatusBadRequest, "Current password is incorrect", nil)
		return
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	customer.PasswordHash = hash
	if err := s.db.Customers.Update(r.Context(), customer); err != nil {
		fail(w, err, "customer")
		return
	}

	respond(w, http.StatusOK, "Customer password updated successfully", customerProfile(customer))
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
