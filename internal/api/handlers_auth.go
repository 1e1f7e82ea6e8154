// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/empress-shop/empress/internal/auth"
	"github.com/empress-shop/empress/internal/logging"
	"github.com/empress-shop/empress/internal/metrics"
	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

const (
	welcomeSubject = "Welcome to Empress!"
	welcomeBody    = "Hey there!\n\n" +
		"We're so excited to have you join the Empress family. Your journey to elegance starts now! " +
		"Explore our exclusive collection of handcrafted bracelets, designed just for you.\n\n" +
		"Have any questions? We're here to help, just reply to this email!\n\n" +
		"Enjoy your Empress experience!\n\n" +
		"Cheers,\nThe Empress Team"

	resetSubject = "Password Reset Request"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	Street          string `json:"street" validate:"required"`
	City            string `json:"city" validate:"required"`
	Province        string `json:"province" validate:"required"`
	Country         string `json:"country" validate:"required"`
	PostalCode      string `json:"postalCode" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// customerProfile is the customer projection returned by auth and profile
// endpoints. The password hash never leaves the server.
func customerProfile(c *models.Customer) map[string]any {
	return map[string]any{
		"firstName": c.FirstName,
		"lastName":  c.LastName,
		"email":     c.Email,
		"phone":     c.Phone,
		"address":   c.Address,
		"cart":      c.Cart,
	}
}

// handleCreateAdmin bootstraps the single administrator account. Once one
// admin exists every further call fails.
func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "admin")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		fail(w, err, "admin")
		return
	}

	admin := &models.Admin{Email: req.Email, PasswordHash: hash}
	if err := s.db.Admins.Insert(r.Context(), admin); err != nil {
		fail(w, err, "admin")
		return
	}

	respond(w, http.StatusCreated, "Admin created", map[string]any{"email": admin.Email})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		metrics.RecordLogin("admin", "throttled")
		respond(w, http.StatusTooManyRequests, "Too many login attempts", nil)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "admin")
		return
	}

	admin, err := s.db.Admins.FindByEmail(r.Context(), req.Email)
	if err != nil || !s.hasher.Compare(admin.PasswordHash, req.Password) {
		metrics.RecordLogin("admin", "failure")
		respond(w, http.StatusBadRequest, "Invalid email or password", nil)
		return
	}

	token, err := s.tokens.Issue(admin.ID, auth.PurposeSession)
	if err != nil {
		fail(w, err, "admin")
		return
	}

	metrics.RecordLogin("admin", "success")
	respond(w, http.StatusOK, "Login successful", map[string]any{
		"token": "Bearer " + token,
		"user":  map[string]any{"email": admin.Email},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	customer := &models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address: models.Address{
			Street:     req.Street,
			City:       req.City,
			Province:   req.Province,
			Country:    req.Country,
			PostalCode: req.PostalCode,
		},
		PasswordHash: hash,
		Cart:         []models.CartLine{},
	}
	if err := s.db.Customers.Insert(r.Context(), customer); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respond(w, http.StatusBadRequest, "Customer already exists", nil)
			return
		}
		fail(w, err, "customer")
		return
	}

	s.sendMail(customer.Email, welcomeSubject, welcomeBody)

	respond(w, http.StatusCreated, "Customer created", customerProfile(customer))
}

func (s *Server) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		metrics.RecordLogin("customer", "throttled")
		respond(w, http.StatusTooManyRequests, "Too many login attempts", nil)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	customer, err := s.db.Customers.FindByEmail(r.Context(), req.Email)
	if err != nil || !s.hasher.Compare(customer.PasswordHash, req.Password) {
		metrics.RecordLogin("customer", "failure")
		respond(w, http.StatusBadRequest, "Invalid email or password", nil)
		return
	}

	token, err := s.tokens.Issue(customer.ID, auth.PurposeSession)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	metrics.RecordLogin("customer", "success")
	respond(w, http.StatusOK, "Login successful", map[string]any{
		"token": "Bearer " + token,
		"user":  customerProfile(customer),
	})
}

// handleCheckAuth reports the caller's resolved identity. Anonymous callers
// get 401, never an error.
func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	switch {
	case identity.IsAdmin():
		respond(w, http.StatusOK, "Authenticated", map[string]any{
			"user": map[string]any{"email": identity.Email},
		})
	case identity.IsCustomer():
		customer, err := s.db.Customers.Get(r.Context(), identity.ID)
		if err != nil {
			fail(w, err, "customer")
			return
		}
		respond(w, http.StatusOK, "Authenticated", customerProfile(customer))
	default:
		respond(w, http.StatusUnauthorized, "Unauthorized", nil)
	}
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	customer, err := s.db.Customers.FindByEmail(r.Context(), req.Email)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	token, err := s.tokens.Issue(customer.ID, auth.PurposeReset)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	resetLink := fmt.Sprintf("%s?token=%s", s.cfg.Server.ResetURL, token)
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Click the link below to reset it:\n\n%s\n\n"+
			"If you didn't request this, please ignore this email.\n\nThanks,\nThe Empress Team",
		customer.FirstName, resetLink)

	s.sendMail(customer.Email, resetSubject, body)

	respond(w, http.StatusOK, "Password reset email sent", nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err, "customer")
		return
	}

	subjectID, err := s.tokens.Verify(req.Token, auth.PurposeReset)
	if err != nil {
		respond(w, http.StatusBadRequest, "Invalid or expired token", nil)
		return
	}

	customer, err := s.db.Customers.Get(r.Context(), subjectID)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		fail(w, err, "customer")
		return
	}

	customer.PasswordHash = hash
	if err := s.db.Customers.Update(r.Context(), customer); err != nil {
		fail(w, err, "customer")
		return
	}

	respond(w, http.StatusOK, "Password reset successful", nil)
}

// sendMail delivers asynchronously. Mail failures are logged and never
// surfaced to the caller.
func (s *Server) sendMail(to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, body); err != nil {
			logging.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("mail delivery failed")
		}
	}()
}
