// Package store persists materialized rope values by key.
//
// Every backend writes values through the rope boundary hook, so a stored
// value is always a flat byte string and a loaded value is an already
// materialized rope.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/consrope/internal/config"
	"github.com/dshills/consrope/internal/engine/rope"
)

// Errors returned by stores.
var (
	// ErrNotFound is returned by Get and Delete for an unknown key.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("empty key")
)

// Store is a key/value store of rope values.
type Store interface {
	// Put materializes value and stores it under key, replacing any
	// previous value.
	Put(ctx context.Context, key string, value rope.StringLike) error

	// Get returns the value stored under key as a materialized Rope.
	Get(ctx context.Context, key string) (*rope.Rope, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the backend.
	Close() error
}

// Logger is the logging surface stores use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Open creates the backend named by cfg.
func Open(cfg config.StoreConfig, logger Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.Path)
	case config.BackendBadger:
		return OpenBadger(BadgerConfig{
			Path:     cfg.Path,
			InMemory: cfg.Path == "",
			Logger:   logger,
		})
	case config.BackendMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// KeyError wraps a backend error with the key it concerns.
type KeyError struct {
	Op  string
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func checkKey(op, key string) error {
	if key == "" {
		return &KeyError{Op: op, Key: key, Err: ErrEmptyKey}
	}
	return nil
}
