// Package store provides the key-value persistence used to save an account
// state between runs. The engine itself never does I/O, callers pick where
// and how the state is kept.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a key-value store of opaque values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open opens a store from a location: a path ending with ".db" or ".sqlite" is
// a SQLite database, anything else is a directory.
func Open(location string) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("empty store location")
	}
	if strings.HasSuffix(location, ".db") || strings.HasSuffix(location, ".sqlite") {
		return NewSQLite(location)
	}
	return NewDir(location)
}
