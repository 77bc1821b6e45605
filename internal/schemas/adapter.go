package schemas

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// Adapter validates and flattens raw annotation payloads against a
// schema registry and partitions flattened fields for storage. Field
// splits are cached per schema type for the process lifetime; schemas
// are immutable for a given type name, so the cache never invalidates.
type Adapter struct {
	registry types.SchemaRegistry

	mu     sync.RWMutex
	splits map[string]fieldSplit
}

type fieldSplit struct {
	annotation   []types.FieldSpec
	segmentation []types.FieldSpec
}

// NewAdapter returns an adapter backed by the given registry.
func NewAdapter(registry types.SchemaRegistry) *Adapter {
	return &Adapter{
		registry: registry,
		splits:   make(map[string]fieldSplit),
	}
}

// Registry returns the adapter's schema registry.
func (a *Adapter) Registry() types.SchemaRegistry { return a.registry }

// FieldSplit returns the annotation and segmentation field partitions
// of a schema type. Every declared field lands in exactly one
// partition.
func (a *Adapter) FieldSplit(schemaType string) (annotation, segmentation []types.FieldSpec, err error) {
	a.mu.RLock()
	split, ok := a.splits[schemaType]
	a.mu.RUnlock()
	if ok {
		return split.annotation, split.segmentation, nil
	}

	schema, err := a.registry.Resolve(schemaType)
	if err != nil {
		return nil, nil, err
	}
	split = fieldSplit{
		annotation:   schema.AnnotationFields(),
		segmentation: schema.SegmentationFields(),
	}

	// Concurrent first-use may resolve twice; the result is identical
	// either way, so the last write is harmless.
	a.mu.Lock()
	a.splits[schemaType] = split
	a.mu.Unlock()

	return split.annotation, split.segmentation, nil
}

// LoadAndFlatten validates a raw record against the schema type and
// returns the single-level field map for storage. Nested structures
// flatten with underscore-joined keys (pt.position becomes
// pt_position). Unknown keys pass through without validation; declared
// fields are checked for presence and type and coerced to their
// canonical Go representation.
func (a *Adapter) LoadAndFlatten(schemaType string, record types.Record) (types.Record, error) {
	schema, err := a.registry.Resolve(schemaType)
	if err != nil {
		return nil, err
	}

	flat := flatten(record)
	for _, spec := range schema.Fields {
		raw, ok := flat[spec.Name]
		if !ok || raw == nil {
			if spec.Required {
				return nil, fmt.Errorf("%q (schema %q): %w", spec.Name, schemaType, types.ErrMissingField)
			}
			continue
		}
		coerced, err := coerce(spec, raw)
		if err != nil {
			return nil, err
		}
		flat[spec.Name] = coerced
	}
	return flat, nil
}

// LoadFlat re-validates an already-flat record, coercing declared
// fields and passing unknown keys through untouched. Used on the read
// path, where storage bookkeeping rides along with payload fields.
func (a *Adapter) LoadFlat(schemaType string, flat types.Record) (types.Record, error) {
	schema, err := a.registry.Resolve(schemaType)
	if err != nil {
		return nil, err
	}

	out := make(types.Record, len(flat))
	for k, v := range flat {
		out[k] = v
	}
	for _, spec := range schema.Fields {
		raw, ok := out[spec.Name]
		if !ok || raw == nil {
			continue
		}
		coerced, err := coerce(spec, raw)
		if err != nil {
			return nil, err
		}
		out[spec.Name] = coerced
	}
	return out, nil
}

// SplitForStorage partitions a flat field map by declared field
// ownership. Fields absent from both partitions are silently dropped.
func (a *Adapter) SplitForStorage(schemaType string, flat types.Record) (annotation, segmentation types.Record, err error) {
	annoFields, segFields, err := a.FieldSplit(schemaType)
	if err != nil {
		return nil, nil, err
	}

	annotation = mapToFields(flat, annoFields)
	segmentation = mapToFields(flat, segFields)
	return annotation, segmentation, nil
}

// ParseReferenceMetadata enforces the reference-table constraints for
// CreateTable: reference-kind schemas require a reference table and
// only they accept one, the target must differ from the table being
// created, and the target must already exist. Returns the validated
// reference table name (empty when none was requested) and the
// track-updates flag.
func (a *Adapter) ParseReferenceMetadata(schemaType, tableName string, opts types.TableOptions, existingTables []string) (string, bool, error) {
	schema, err := a.registry.Resolve(schemaType)
	if err != nil {
		return "", false, err
	}
	if opts.ReferenceTable == "" {
		if schema.Reference {
			return "", false, fmt.Errorf("schema %q requires a reference table: %w", schemaType, types.ErrValidation)
		}
		return "", false, nil
	}
	if !schema.Reference {
		return "", false, fmt.Errorf("schema %q: %w", schemaType, types.ErrNotReferenceSchema)
	}
	if opts.ReferenceTable == tableName {
		return "", false, fmt.Errorf("%q: %w", tableName, types.ErrSelfReference)
	}
	for _, existing := range existingTables {
		if existing == opts.ReferenceTable {
			return opts.ReferenceTable, opts.TrackTargetIDUpdates, nil
		}
	}
	return "", false, fmt.Errorf("%q: %w", opts.ReferenceTable, types.ErrReferenceNotFound)
}

// flatten collapses nested maps into a single level, joining keys with
// underscores. Non-map values copy through unchanged.
func flatten(record types.Record) types.Record {
	flat := make(types.Record, len(record))
	for k, v := range record {
		switch nested := v.(type) {
		case map[string]any:
			for nk, nv := range flatten(nested) {
				flat[k+"_"+nk] = nv
			}
		case types.Record:
			for nk, nv := range flatten(nested) {
				flat[k+"_"+nk] = nv
			}
		default:
			flat[k] = v
		}
	}
	return flat
}

// mapToFields copies the values of the named fields out of flat,
// skipping fields the record does not carry.
func mapToFields(flat types.Record, fields []types.FieldSpec) types.Record {
	out := make(types.Record)
	for _, spec := range fields {
		if v, ok := flat[spec.Name]; ok {
			out[spec.Name] = v
		}
	}
	return out
}

// coerce converts a raw value to the canonical representation of the
// field's kind. JSON decoding yields float64 for every number, so
// integral fields accept whole floats.
func coerce(spec types.FieldSpec, raw any) (any, error) {
	switch spec.Kind {
	case types.KindInt:
		switch n := raw.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			return int64(n), nil
		case float64:
			if n != float64(int64(n)) {
				return nil, typeErr(spec, raw)
			}
			return int64(n), nil
		}
	case types.KindFloat:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case types.KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case types.KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case types.KindPoint:
		return coercePoint(spec, raw)
	}
	return nil, typeErr(spec, raw)
}

// coercePoint normalizes a spatial position to a []float64 triple.
func coercePoint(spec types.FieldSpec, raw any) (any, error) {
	var nums []float64
	switch v := raw.(type) {
	case []float64:
		nums = v
	case []int:
		nums = make([]float64, len(v))
		for i, n := range v {
			nums[i] = float64(n)
		}
	case []any:
		nums = make([]float64, len(v))
		for i, el := range v {
			switch n := el.(type) {
			case float64:
				nums[i] = n
			case int:
				nums[i] = float64(n)
			case int64:
				nums[i] = float64(n)
			default:
				return nil, typeErr(spec, raw)
			}
		}
	default:
		return nil, typeErr(spec, raw)
	}
	if len(nums) != 3 {
		return nil, typeErr(spec, raw)
	}
	return nums, nil
}

func typeErr(spec types.FieldSpec, raw any) error {
	return fmt.Errorf("%q expects %s, got %T: %w", spec.Name, spec.Kind, raw, types.ErrFieldType)
}
