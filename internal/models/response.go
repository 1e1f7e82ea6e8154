// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package models

// Response is the uniform envelope returned by every HTTP endpoint.
//
// Status repeats the HTTP status code so clients reading the body alone can
// branch on it. Data is null for errors and for operations with no payload.
//
// Example:
//
//	{
//	  "status": 200,
//	  "message": "Cart updated successfully",
//	  "data": [{"productId": "66f…", "quantity": 2}]
//	}
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}
