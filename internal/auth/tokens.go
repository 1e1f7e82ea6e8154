// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package auth issues and verifies bearer tokens and resolves the caller's
// identity for each request.
//
// Tokens are HMAC-SHA256 JWTs carrying the subject document id and a purpose
// claim. Session tokens and password-reset tokens are signed with the same
// secret but distinct purposes; verification rejects a token presented for
// the wrong purpose, so a reset token can never authenticate a request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/empress-shop/empress/internal/config"
)

// Purpose scopes a token to one use.
type Purpose string

// Token purposes.
const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "password-reset"
)

// ErrInvalidToken covers every verification failure: malformed token, bad
// signature, expiry, or purpose mismatch. Callers treat them all as an
// unauthenticated presentation; the detail is only logged.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the signed token claims.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager creates and validates purpose-scoped tokens.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager builds a token manager from the security configuration.
// The secret must be non-empty; config validation enforces the length floor.
func NewTokenManager(cfg *config.SecurityConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required but was empty")
	}
	return &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.ResetTTL,
	}, nil
}

// Issue signs a token for the given subject and purpose.
func (m *TokenManager) Issue(subjectID string, purpose Purpose) (string, error) {
	ttl := m.sessionTTL
	if purpose == PurposeReset {
		ttl = m.resetTTL
	}
	now := time.Now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its subject id. Tokens signed for a
// different purpose are rejected even when otherwise valid.
func (m *TokenManager) Verify(tokenString string, purpose Purpose) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return "", fmt.Errorf("%w: wrong purpose %q", ErrInvalidToken, claims.Purpose)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
