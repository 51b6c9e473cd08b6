// File: internal/store/store.go

// Package store provides BindingStore implementations: an in-memory store for
// single-process runs and tests, and a PostgreSQL store for shared
// persistence. Both enforce an optimistic version check on Put so concurrent
// repair merges against the same binding id cannot silently clobber each
// other.
package store

import "errors"

var (
	// ErrNotFound is returned when no bindings record matches.
	ErrNotFound = errors.New("bindings not found")
	// ErrVersionConflict is returned when a Put would overwrite a record that
	// advanced past the writer's view.
	ErrVersionConflict = errors.New("bindings version conflict")
)
