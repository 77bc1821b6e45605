// Tests for JSONL history export.
package sqlite

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

func TestExportTableJSONL(t *testing.T) {
	b := newTestBackend(t)
	if _, err := b.CreateTable("tags", "bound_tag", types.TableOptions{}); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if err := b.InsertAnnotations("tags", []types.Record{tagRecord("axon")}); err != nil {
		t.Fatalf("InsertAnnotations failed: %v", err)
	}
	rec := tagRecord("dendrite")
	rec["id"] = float64(1)
	if _, err := b.UpdateAnnotation("tags", rec); err != nil {
		t.Fatalf("UpdateAnnotation failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tags.jsonl")
	if err := b.ExportTableJSONL("tags", path); err != nil {
		t.Fatalf("ExportTableJSONL failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	var lines []exportRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec exportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("parsing export line: %v", err)
		}
		lines = append(lines, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning export: %v", err)
	}

	// Both versions of the record are present, chain intact.
	if len(lines) != 2 {
		t.Fatalf("expected 2 exported versions, got %d", len(lines))
	}
	if lines[0].SupercededID == nil || *lines[0].SupercededID != lines[1].ID {
		t.Errorf("superseded chain not exported: %+v", lines[0])
	}
	if lines[0].Valid || !lines[1].Valid {
		t.Errorf("valid flags not exported: %+v", lines)
	}
	if lines[1].Fields["tag"] != "dendrite" {
		t.Errorf("payload fields not exported: %v", lines[1].Fields)
	}
}

func TestExportTableJSONL_UnknownTable(t *testing.T) {
	b := newTestBackend(t)

	err := b.ExportTableJSONL("ghosts", filepath.Join(t.TempDir(), "out.jsonl"))
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}
