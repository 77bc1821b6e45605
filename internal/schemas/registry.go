// Package schemas implements the schema registry and the schema
// adapter: resolving schema type names to flattened field descriptors,
// validating and flattening raw annotation payloads, and partitioning
// flattened fields into their annotation and segmentation halves.
package schemas

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// Registry maps schema type names to field descriptors. Schemas are
// immutable once registered; Register on an existing name fails.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*types.FieldSchema
}

var _ types.SchemaRegistry = (*Registry)(nil)

// NewRegistry returns a registry pre-loaded with the built-in schema
// types.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]*types.FieldSchema)}
	for _, s := range builtinSchemas {
		r.schemas[s.SchemaType] = s
	}
	return r
}

// Register adds a schema type. Fails with ErrConflict if the name is
// already registered.
func (r *Registry) Register(schema *types.FieldSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schemas[schema.SchemaType]; ok {
		return fmt.Errorf("schema type %q already registered: %w", schema.SchemaType, types.ErrConflict)
	}
	r.schemas[schema.SchemaType] = schema
	return nil
}

// Resolve returns the field schema for a type name.
// Fails with ErrUnknownSchemaType if the name is not registered.
func (r *Registry) Resolve(schemaType string) (*types.FieldSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[schemaType]
	if !ok {
		return nil, fmt.Errorf("%q: %w", schemaType, types.ErrUnknownSchemaType)
	}
	return s, nil
}

// List returns the registered schema type names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
