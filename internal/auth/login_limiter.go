// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter bounds login attempts per client IP to slow brute-force
// guessing. Entries idle for over an hour are dropped by a periodic cleanup.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*loginLimiterEntry
	rate     rate.Limit
	burst    int
	stop     chan struct{}
}

type loginLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginLimiter allows attempts login attempts per window for each IP.
func NewLoginLimiter(attempts int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		limiters: make(map[string]*loginLimiterEntry),
		rate:     rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(5 * time.Minute)
	return l
}

// Allow reports whether another attempt from ip is permitted.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &loginLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// Stop terminates the cleanup goroutine.
func (l *LoginLimiter) Stop() {
	close(l.stop)
}

func (l *LoginLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *LoginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range l.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(l.limiters, ip)
		}
	}
}
