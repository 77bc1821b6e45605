// Package sqlite provides the public API for the SQLite annotation
// store backend. It exposes the factory function while keeping
// implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/internal/sqlite"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

// NewStore creates a new SQLite-backed annotation store. The store is
// not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewStore()
//	err := store.Attach(types.Config{
//	    Backend:   types.BackendSQLite,
//	    DataDir:   ".annostore",
//	    Namespace: "minnie65",
//	})
//	defer store.Detach()
func NewStore() types.Store {
	return sqlite.NewBackend()
}

// NewStoreWithLogger creates a store that logs lifecycle events and
// transactional failures through the given logger.
func NewStoreWithLogger(logger *zap.Logger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}

// NewStoreWithRegistry creates a store resolving schema types through
// a caller-supplied registry instead of the built-ins.
func NewStoreWithRegistry(registry types.SchemaRegistry) types.Store {
	return sqlite.NewBackend(sqlite.WithRegistry(registry))
}
