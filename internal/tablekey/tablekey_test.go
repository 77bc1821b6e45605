// Tests for table id encoding and decoding.
package tablekey

import (
	"errors"
	"testing"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

func TestBuildTableID(t *testing.T) {
	id, err := BuildTableID("minnie65", "synapses")
	if err != nil {
		t.Fatalf("BuildTableID failed: %v", err)
	}
	if id != "minnie65__synapses" {
		t.Errorf("unexpected table id: %s", id)
	}
}

func TestBuildTableID_RoundTrip(t *testing.T) {
	cases := []struct {
		namespace string
		tableName string
	}{
		{"minnie65", "synapses"},
		{"v1dd", "cell_types"},
		{"a", "b"},
	}
	for _, c := range cases {
		id, err := BuildTableID(c.namespace, c.tableName)
		if err != nil {
			t.Fatalf("BuildTableID(%q, %q) failed: %v", c.namespace, c.tableName, err)
		}
		if got := TableNameFromID(id); got != c.tableName {
			t.Errorf("TableNameFromID(%q) = %q, want %q", id, got, c.tableName)
		}
		ns, err := NamespaceFromID(id)
		if err != nil {
			t.Fatalf("NamespaceFromID(%q) failed: %v", id, err)
		}
		if ns != c.namespace {
			t.Errorf("NamespaceFromID(%q) = %q, want %q", id, ns, c.namespace)
		}
	}
}

func TestBuildTableID_SeparatorCollision(t *testing.T) {
	if _, err := BuildTableID("bad__ns", "table"); !errors.Is(err, types.ErrSeparatorInName) {
		t.Errorf("expected ErrSeparatorInName for namespace, got %v", err)
	}
	if _, err := BuildTableID("ns", "bad__table"); !errors.Is(err, types.ErrSeparatorInName) {
		t.Errorf("expected ErrSeparatorInName for table name, got %v", err)
	}
	// Separator collisions are validation errors.
	_, err := BuildTableID("ns", "bad__table")
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation class, got %v", err)
	}
}

func TestBuildSegmentationTableID(t *testing.T) {
	annoID, err := BuildTableID("minnie65", "synapses")
	if err != nil {
		t.Fatalf("BuildTableID failed: %v", err)
	}
	segID, err := BuildSegmentationTableID(annoID, "pcg_v2")
	if err != nil {
		t.Fatalf("BuildSegmentationTableID failed: %v", err)
	}
	if segID != "minnie65__synapses__pcg_v2" {
		t.Errorf("unexpected segmentation table id: %s", segID)
	}
	// The final segment of a segmentation table id is the source.
	if got := TableNameFromID(segID); got != "pcg_v2" {
		t.Errorf("TableNameFromID(%q) = %q, want pcg_v2", segID, got)
	}
	ns, err := NamespaceFromID(segID)
	if err != nil {
		t.Fatalf("NamespaceFromID failed: %v", err)
	}
	if ns != "minnie65" {
		t.Errorf("NamespaceFromID(%q) = %q, want minnie65", segID, ns)
	}
}

func TestBuildSegmentationTableID_SeparatorCollision(t *testing.T) {
	if _, err := BuildSegmentationTableID("ns__table", "bad__source"); !errors.Is(err, types.ErrSeparatorInName) {
		t.Errorf("expected ErrSeparatorInName, got %v", err)
	}
}

func TestNamespaceFromID_TooFewSegments(t *testing.T) {
	if _, err := NamespaceFromID("nosep"); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected validation error for id without separator, got %v", err)
	}
}
