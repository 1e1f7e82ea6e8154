// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package store persists the Empress documents in BadgerDB.
//
// Documents are stored as JSON values under typed key prefixes
// ("product:<id>", "customer:<id>", ...). Identifiers are 24-hex-character
// ObjectIDs. findOne-style secondary lookups (email, name) are prefix scans;
// the catalog is small enough that no secondary index is kept.
//
// Multi-document invariants (collection membership, checkout completion) are
// applied inside a single Badger Update transaction so a failure leaves no
// half-applied state.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/empress-shop/empress/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	productKeyPrefix      = "product:"
	collectionKeyPrefix   = "collection:"
	customerKeyPrefix     = "customer:"
	adminKeyPrefix        = "admin:"
	orderKeyPrefix        = "order:"
	orderSessionKeyPrefix = "order_session:"
)

// Sentinel errors surfaced by the store layer.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID indicates an identifier is not a 24-hex-character ObjectID.
	ErrInvalidID = errors.New("invalid document id")

	// ErrDuplicateName indicates a product or collection name is already taken.
	ErrDuplicateName = errors.New("name already exists")

	// ErrDuplicateEmail indicates a credential email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrAdminExists indicates the single admin account is already bootstrapped.
	ErrAdminExists = errors.New("admin already exists")
)

// DB wraps a Badger database and exposes typed document stores sharing it.
type DB struct {
	badger *badger.DB

	Products    *Products
	Collections *Collections
	Customers   *Customers
	Admins      *Admins
	Orders      *Orders
}

// Options configures Open.
type Options struct {
	// Path is the Badger data directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps all data in process memory. Used by tests.
	InMemory bool
}

// Open opens the document database and wires the typed stores.
func Open(opts Options) (*DB, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	// Badger's default logger prints with stdlib log; route it through zerolog.
	badgerOpts = badgerOpts.WithLogger(badgerLogger{})

	bdb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	db := &DB{badger: bdb}
	db.Products = &Products{db: bdb}
	db.Collections = &Collections{db: bdb}
	db.Customers = &Customers{db: bdb}
	db.Admins = &Admins{db: bdb}
	db.Orders = &Orders{db: bdb}
	return db, nil
}

// Close closes the underlying Badger database.
func (db *DB) Close() error {
	return db.badger.Close()
}

// NewID generates a fresh 24-hex-character document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidateID checks that id is a well-formed 24-hex-character identifier.
// Malformed identifiers are rejected before any lookup is attempted.
func ValidateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// getJSON reads the value at key into out, mapping Badger's missing-key error
// to ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// setJSON marshals v and writes it at key.
func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// scan iterates every document under prefix, unmarshaling each into a fresh T
// and passing it to fn. fn returning false stops the scan early.
func scan[T any](txn *badger.Txn, prefix string, fn func(doc *T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	pfx := []byte(prefix)
	for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
		var doc T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", prefix, err)
		}
		if !fn(&doc) {
			return nil
		}
	}
	return nil
}

// badgerLogger adapts Badger's logger interface onto the zerolog global.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	logging.Debug().Msgf("badger: "+format, args...)
}
