// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package metrics exposes Prometheus collectors for HTTP, store, and
// checkout instrumentation. Collectors register themselves via promauto and
// are served from the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation", "collection"},
	)

	// Auth Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"role", "outcome"}, // outcome: "success", "failure", "throttled"
	)

	// Checkout Metrics
	CheckoutSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Total number of hosted checkout sessions opened",
		},
	)

	PaymentsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Total number of payment confirmations settled",
		},
	)

	PaymentWebhookFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_webhook_failures_total",
			Help: "Total number of rejected payment webhook deliveries",
		},
	)
)

// RecordAPIRequest records metrics for one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records the duration and outcome of one store call.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordLogin records a login attempt outcome for the given role.
func RecordLogin(role, outcome string) {
	LoginAttempts.WithLabelValues(role, outcome).Inc()
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
