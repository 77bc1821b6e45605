// Tests for payload flattening, validation, field splitting, and
// reference-metadata parsing.
package schemas

import (
	"errors"
	"testing"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

func newTestAdapter() *Adapter {
	return NewAdapter(NewRegistry())
}

func synapseRecord() types.Record {
	return types.Record{
		"pre_pt":  map[string]any{"position": []any{1.0, 2.0, 3.0}, "root_id": float64(101)},
		"ctr_pt":  map[string]any{"position": []any{4.0, 5.0, 6.0}},
		"post_pt": map[string]any{"position": []any{7.0, 8.0, 9.0}, "root_id": float64(202)},
		"size":    10.5,
	}
}

func TestLoadAndFlatten_NestedPoints(t *testing.T) {
	a := newTestAdapter()

	flat, err := a.LoadAndFlatten("synapse", synapseRecord())
	if err != nil {
		t.Fatalf("LoadAndFlatten failed: %v", err)
	}

	pos, ok := flat["pre_pt_position"].([]float64)
	if !ok {
		t.Fatalf("pre_pt_position not coerced to []float64: %T", flat["pre_pt_position"])
	}
	if pos[0] != 1.0 || pos[1] != 2.0 || pos[2] != 3.0 {
		t.Errorf("unexpected pre_pt_position: %v", pos)
	}
	if flat["pre_pt_root_id"] != int64(101) {
		t.Errorf("pre_pt_root_id not coerced to int64: %v (%T)", flat["pre_pt_root_id"], flat["pre_pt_root_id"])
	}
	if flat["size"] != 10.5 {
		t.Errorf("unexpected size: %v", flat["size"])
	}
}

func TestLoadAndFlatten_MissingRequiredField(t *testing.T) {
	a := newTestAdapter()

	rec := synapseRecord()
	delete(rec, "ctr_pt")
	_, err := a.LoadAndFlatten("synapse", rec)
	if !errors.Is(err, types.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation class, got %v", err)
	}
}

func TestLoadAndFlatten_MistypedField(t *testing.T) {
	a := newTestAdapter()

	rec := types.Record{
		"pt":  map[string]any{"position": []any{1.0, 2.0, 3.0}},
		"tag": 42,
	}
	_, err := a.LoadAndFlatten("bound_tag", rec)
	if !errors.Is(err, types.ErrFieldType) {
		t.Errorf("expected ErrFieldType, got %v", err)
	}
}

func TestLoadAndFlatten_UnknownFieldsPassThrough(t *testing.T) {
	a := newTestAdapter()

	rec := synapseRecord()
	rec["annotator"] = "amy"
	flat, err := a.LoadAndFlatten("synapse", rec)
	if err != nil {
		t.Fatalf("LoadAndFlatten failed: %v", err)
	}
	if flat["annotator"] != "amy" {
		t.Errorf("unknown field did not pass through: %v", flat["annotator"])
	}
}

func TestLoadAndFlatten_UnknownSchemaType(t *testing.T) {
	a := newTestAdapter()

	_, err := a.LoadAndFlatten("nope", types.Record{})
	if !errors.Is(err, types.ErrUnknownSchemaType) {
		t.Errorf("expected ErrUnknownSchemaType, got %v", err)
	}
}

func TestFieldSplit_PartitionsEveryDeclaredField(t *testing.T) {
	a := newTestAdapter()

	for _, schemaType := range a.Registry().List() {
		anno, seg, err := a.FieldSplit(schemaType)
		if err != nil {
			t.Fatalf("FieldSplit(%q) failed: %v", schemaType, err)
		}

		schema, err := a.Registry().Resolve(schemaType)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", schemaType, err)
		}

		seen := make(map[string]int)
		for _, f := range anno {
			seen[f.Name]++
		}
		for _, f := range seg {
			seen[f.Name]++
		}
		if len(seen) != len(schema.Fields) {
			t.Errorf("%q: split has %d fields, schema declares %d", schemaType, len(seen), len(schema.Fields))
		}
		for name, count := range seen {
			if count != 1 {
				t.Errorf("%q: field %q landed in %d partitions", schemaType, name, count)
			}
		}
	}
}

func TestSplitForStorage(t *testing.T) {
	a := newTestAdapter()

	flat, err := a.LoadAndFlatten("synapse", synapseRecord())
	if err != nil {
		t.Fatalf("LoadAndFlatten failed: %v", err)
	}
	flat["stray"] = "dropped"

	anno, seg, err := a.SplitForStorage("synapse", flat)
	if err != nil {
		t.Fatalf("SplitForStorage failed: %v", err)
	}

	if _, ok := anno["pre_pt_position"]; !ok {
		t.Error("pre_pt_position missing from annotation partition")
	}
	if _, ok := seg["pre_pt_root_id"]; !ok {
		t.Error("pre_pt_root_id missing from segmentation partition")
	}
	if _, ok := anno["pre_pt_root_id"]; ok {
		t.Error("pre_pt_root_id leaked into annotation partition")
	}
	// Undeclared fields are dropped on split.
	if _, ok := anno["stray"]; ok {
		t.Error("undeclared field kept in annotation partition")
	}
	if _, ok := seg["stray"]; ok {
		t.Error("undeclared field kept in segmentation partition")
	}
}

func TestParseReferenceMetadata(t *testing.T) {
	a := newTestAdapter()
	existing := []string{"synapses", "cells"}

	// Non-reference schema refuses a reference table.
	_, _, err := a.ParseReferenceMetadata("synapse", "new_table",
		types.TableOptions{ReferenceTable: "synapses"}, existing)
	if !errors.Is(err, types.ErrNotReferenceSchema) {
		t.Errorf("expected ErrNotReferenceSchema, got %v", err)
	}

	// Self-reference is rejected.
	_, _, err = a.ParseReferenceMetadata("simple_reference", "synapses",
		types.TableOptions{ReferenceTable: "synapses"}, existing)
	if !errors.Is(err, types.ErrSelfReference) {
		t.Errorf("expected ErrSelfReference, got %v", err)
	}

	// Unknown target is rejected.
	_, _, err = a.ParseReferenceMetadata("simple_reference", "new_table",
		types.TableOptions{ReferenceTable: "ghosts"}, existing)
	if !errors.Is(err, types.ErrReferenceNotFound) {
		t.Errorf("expected ErrReferenceNotFound, got %v", err)
	}

	// A valid target passes through with the track flag.
	ref, track, err := a.ParseReferenceMetadata("simple_reference", "new_table",
		types.TableOptions{ReferenceTable: "synapses", TrackTargetIDUpdates: true}, existing)
	if err != nil {
		t.Fatalf("ParseReferenceMetadata failed: %v", err)
	}
	if ref != "synapses" || !track {
		t.Errorf("unexpected result: ref=%q track=%v", ref, track)
	}

	// No reference requested is fine for a non-reference schema.
	ref, track, err = a.ParseReferenceMetadata("synapse", "new_table", types.TableOptions{}, existing)
	if err != nil || ref != "" || track {
		t.Errorf("unexpected result for empty options: ref=%q track=%v err=%v", ref, track, err)
	}

	// A reference schema cannot go without a target.
	_, _, err = a.ParseReferenceMetadata("simple_reference", "new_table", types.TableOptions{}, existing)
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation for missing reference table, got %v", err)
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()

	custom := &types.FieldSchema{
		SchemaType: "custom_tag",
		Fields: []types.FieldSpec{
			{Name: "tag", Kind: types.KindString, Required: true},
		},
	}
	if err := r.Register(custom); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	got, err := r.Resolve("custom_tag")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.SchemaType != "custom_tag" {
		t.Errorf("unexpected schema: %+v", got)
	}

	// Re-registering an existing name conflicts.
	if err := r.Register(custom); !errors.Is(err, types.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Built-ins are present.
	if _, err := r.Resolve("synapse"); err != nil {
		t.Errorf("built-in synapse schema missing: %v", err)
	}
}
