// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/empress-shop/empress/internal/store"
)

// Role names the kind of caller an identity represents.
type Role string

// Identity roles. A request with no usable token is Anonymous.
const (
	RoleAnonymous Role = "anonymous"
	RoleAdmin     Role = "admin"
	RoleCustomer  Role = "customer"
)

// Identity is the resolved caller: an administrator, a customer, or anonymous.
// The zero value is anonymous.
type Identity struct {
	Role  Role
	ID    string
	Email string
}

// Anonymous is the identity of an unauthenticated request.
var Anonymous = Identity{Role: RoleAnonymous}

// IsAdmin reports whether the identity is an administrator.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsCustomer reports whether the identity is a customer.
func (i Identity) IsCustomer() bool { return i.Role == RoleCustomer }

// Resolver turns an Authorization header into an Identity.
//
// Resolution tries the administrator store first, then the customer store;
// this order is fixed so the composed identity is deterministic even though a
// given token's subject can only exist in one store. Resolution never fails:
// any defect (missing header, malformed or expired token, subject no longer
// in either store) yields Anonymous.
type Resolver struct {
	tokens    *TokenManager
	admins    *store.Admins
	customers *store.Customers
}

// NewResolver builds an identity resolver over the two credential stores.
func NewResolver(tokens *TokenManager, admins *store.Admins, customers *store.Customers) *Resolver {
	return &Resolver{tokens: tokens, admins: admins, customers: customers}
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Resolve maps the raw Authorization header to the caller's identity.
func (r *Resolver) Resolve(ctx context.Context, authorizationHeader string) Identity {
	if authorizationHeader == "" {
		return Anonymous
	}
	token, ok := bearerToken(authorizationHeader)
	if !ok {
		return Anonymous
	}

	subject, err := r.tokens.Verify(token, PurposeSession)
	if err != nil {
		return Anonymous
	}
	if err := store.ValidateID(subject); err != nil {
		return Anonymous
	}

	// Admin store first: precedence is fixed for determinism.
	if admin, err := r.admins.Get(ctx, subject); err == nil {
		return Identity{Role: RoleAdmin, ID: admin.ID, Email: admin.Email}
	} else if !errors.Is(err, store.ErrNotFound) {
		return Anonymous
	}

	if customer, err := r.customers.Get(ctx, subject); err == nil {
		return Identity{Role: RoleCustomer, ID: customer.ID, Email: customer.Email}
	}
	return Anonymous
}
