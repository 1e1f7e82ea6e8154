// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package auth

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/empress-shop/empress/internal/models"
)

type contextKey string

// IdentityContextKey carries the resolved Identity in the request context.
const IdentityContextKey contextKey = "identity"

// Middleware resolves the caller's identity for every request and gates
// role-restricted route groups.
type Middleware struct {
	resolver *Resolver
}

// NewMiddleware builds the auth middleware around a resolver.
func NewMiddleware(resolver *Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// WithIdentity resolves the Authorization header and stores the result in the
// request context. It never rejects: anonymous requests continue with the
// Anonymous identity and role checks happen at the route group.
func (m *Middleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := m.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the resolved identity, or Anonymous if the
// middleware did not run.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(IdentityContextKey).(Identity); ok {
		return id
	}
	return Anonymous
}

// RequireAdmin rejects requests whose identity is not an administrator.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, RoleAdmin)
}

// RequireCustomer rejects requests whose identity is not a customer.
func (m *Middleware) RequireCustomer(next http.Handler) http.Handler {
	return requireRole(next, RoleCustomer)
}

func requireRole(next http.Handler, role Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()).Role != role {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck // nothing to do about a failed error write
			json.NewEncoder(w).Encode(models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized access",
				Data:    nil,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
