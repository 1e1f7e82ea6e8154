// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package models defines the document types persisted by the store layer and
// the wire-level response envelope shared by every HTTP endpoint.
//
// Documents are identified by 24-hex-character ObjectIDs. Products and
// collections reference each other by identifier only; the customer document
// embeds its cart.
package models
