// JSONL export: an on-demand audit dump of a table's full row history,
// written with the atomic temp-file, fsync, rename pattern.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// exportRecord is the JSONL line format: bookkeeping plus the
// flattened payload columns.
type exportRecord struct {
	ID           int64        `json:"id"`
	Created      string       `json:"created"`
	Deleted      string       `json:"deleted,omitempty"`
	Valid        bool         `json:"valid"`
	SupercededID *int64       `json:"superceded_id,omitempty"`
	Fields       types.Record `json:"fields"`
}

// ExportTableJSONL writes every stored row-version of a table,
// including superseded and tombstoned history, to path as JSONL.
func (b *Backend) ExportTableJSONL(tableName, path string) error {
	if err := b.checkAttached(); err != nil {
		return err
	}
	m, err := b.resolveModel(tableName)
	if err != nil {
		return err
	}

	sess, err := b.newSession()
	if err != nil {
		return err
	}
	defer sess.Rollback()

	rows, err := sess.Query(m, types.RowFilter{All: true})
	if err != nil {
		return err
	}

	records := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		rec := exportRecord{
			ID:           row.ID,
			Created:      row.Created.Format(timeFormat),
			Valid:        row.Valid,
			SupercededID: row.SupercededID,
			Fields:       row.Fields,
		}
		if row.Deleted != nil {
			rec.Deleted = row.Deleted.Format(timeFormat)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling row %d: %w", row.ID, err)
		}
		records = append(records, data)
	}

	if err := writeJSONL(path, records); err != nil {
		return err
	}
	b.logger.Info("table history exported",
		zap.String("table", m.tableID),
		zap.String("path", path),
		zap.Int("rows", len(records)))
	return nil
}

// writeJSONL atomically writes records to a JSONL file using the
// temp-file, fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
