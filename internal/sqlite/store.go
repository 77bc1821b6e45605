// Annotation operations: the insert/get/update/delete state machine
// over row-versions. Every operation is one session; the supersede
// protocol's two-step write (insert new head, link old row) shares a
// single transaction so a crash can never leave a record with no live
// head or two.
package sqlite

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// InsertAnnotations validates, flattens, and inserts records as new
// current row-versions in one all-or-nothing batch. A caller-supplied
// "id" field is preserved; otherwise storage assigns the id.
func (b *Backend) InsertAnnotations(tableName string, records []types.Record) error {
	if err := b.checkAttached(); err != nil {
		return err
	}
	if len(records) > types.InsertLimit {
		return &types.InsertLimitError{Count: len(records), Limit: types.InsertLimit}
	}

	md, err := b.GetTableMetadata(tableName)
	if err != nil {
		return err
	}
	m, err := b.resolveModel(tableName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([]*types.AnnotationRow, 0, len(records))
	for _, record := range records {
		flat, err := b.adapter.LoadAndFlatten(md.SchemaType, record)
		if err != nil {
			return err
		}
		annoPart, _, err := b.adapter.SplitForStorage(md.SchemaType, flat)
		if err != nil {
			return err
		}
		row := &types.AnnotationRow{
			Created: now,
			Valid:   true,
			Fields:  annoPart,
		}
		if id, ok := recordID(record); ok {
			row.ID = id
		}
		rows = append(rows, row)
	}

	sess, err := b.newSession()
	if err != nil {
		return err
	}
	if err := sess.AddAll(m, rows); err != nil {
		sess.Rollback()
		return err
	}
	if err := sess.Commit(); err != nil {
		sess.Rollback()
		b.logger.Error("annotation insert failed",
			zap.String("session", sess.id),
			zap.String("table", m.tableID),
			zap.Int("count", len(rows)),
			zap.Error(err))
		return err
	}
	return nil
}

// GetAnnotations fetches every stored row-version whose physical id is
// in ids, regardless of valid or deleted state. Timestamps serialize
// to text and the result is re-coerced through the schema loader; if
// coercion fails the whole call fails with ErrAnnotationNotFound.
func (b *Backend) GetAnnotations(tableName string, ids []int64) ([]types.Record, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	md, err := b.GetTableMetadata(tableName)
	if err != nil {
		return nil, err
	}
	m, err := b.resolveModel(tableName)
	if err != nil {
		return nil, err
	}

	sess, err := b.newSession()
	if err != nil {
		return nil, err
	}
	defer sess.Rollback()

	rows, err := sess.Query(m, types.RowFilter{IDs: ids})
	if err != nil {
		return nil, err
	}

	out := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		flat := make(types.Record, len(row.Fields)+5)
		for k, v := range row.Fields {
			flat[k] = v
		}
		flat[types.ColID] = row.ID
		flat[types.ColCreated] = row.Created.Format(timeFormat)
		flat[types.ColValid] = row.Valid
		if row.Deleted != nil {
			flat[types.ColDeleted] = row.Deleted.Format(timeFormat)
		}
		if row.SupercededID != nil {
			flat[types.ColSupercededID] = *row.SupercededID
		}

		loaded, err := b.adapter.LoadFlat(md.SchemaType, flat)
		if err != nil {
			b.logger.Error("annotation read-back failed schema coercion",
				zap.String("table", m.tableID),
				zap.Int64("id", row.ID),
				zap.Error(err))
			return nil, fmt.Errorf("no entries found for %v: %w", ids, types.ErrAnnotationNotFound)
		}
		out = append(out, loaded)
	}
	return out, nil
}

// UpdateAnnotation supersedes the current version of a record: the new
// payload is inserted as a fresh row, flushed to obtain its id, and
// the old row is linked to it and marked invalid, all in one
// transaction. Only the live head of a chain may be targeted; a
// superseded target fails with *SupersededError naming the correct id.
// Returns the new head's id.
func (b *Backend) UpdateAnnotation(tableName string, record types.Record) (int64, error) {
	if err := b.checkAttached(); err != nil {
		return 0, err
	}
	annoID, ok := recordID(record)
	if !ok {
		return 0, types.ErrMissingAnnotationID
	}

	md, err := b.GetTableMetadata(tableName)
	if err != nil {
		return 0, err
	}
	m, err := b.resolveModel(tableName)
	if err != nil {
		return 0, err
	}

	flat, err := b.adapter.LoadAndFlatten(md.SchemaType, record)
	if err != nil {
		return 0, err
	}
	annoPart, _, err := b.adapter.SplitForStorage(md.SchemaType, flat)
	if err != nil {
		return 0, err
	}

	sess, err := b.newSession()
	if err != nil {
		return 0, err
	}

	rows, err := sess.Query(m, types.RowFilter{IDs: []int64{annoID}})
	if err != nil {
		sess.Rollback()
		return 0, err
	}
	if len(rows) == 0 {
		sess.Rollback()
		return 0, fmt.Errorf("no result found for %d: %w", annoID, types.ErrAnnotationNotFound)
	}
	old := rows[0]
	if old.SupercededID != nil {
		sess.Rollback()
		return 0, &types.SupersededError{ID: annoID, SupersededBy: *old.SupercededID}
	}

	newRow := &types.AnnotationRow{
		Created: time.Now().UTC(),
		Valid:   true,
		Fields:  annoPart,
	}
	if err := sess.AddAll(m, []*types.AnnotationRow{newRow}); err != nil {
		sess.Rollback()
		return 0, err
	}
	if err := sess.Flush(); err != nil {
		sess.Rollback()
		return 0, err
	}

	old.SupercededID = &newRow.ID
	old.Valid = false
	if err := sess.Update(m, old); err != nil {
		sess.Rollback()
		return 0, err
	}
	if err := sess.Commit(); err != nil {
		sess.Rollback()
		b.logger.Error("annotation update failed",
			zap.String("session", sess.id),
			zap.String("table", m.tableID),
			zap.Int64("id", annoID),
			zap.Error(err))
		return 0, err
	}
	return newRow.ID, nil
}

// DeleteAnnotations tombstones every matched row-version with one
// shared timestamp. Matching a superseded historical version is
// permitted and tombstones that version only. Returns the number of
// rows tombstoned; zero means no ids matched.
func (b *Backend) DeleteAnnotations(tableName string, ids []int64) (int64, error) {
	if err := b.checkAttached(); err != nil {
		return 0, err
	}
	m, err := b.resolveModel(tableName)
	if err != nil {
		return 0, err
	}

	sess, err := b.newSession()
	if err != nil {
		return 0, err
	}

	rows, err := sess.Query(m, types.RowFilter{IDs: ids})
	if err != nil {
		sess.Rollback()
		return 0, err
	}
	if len(rows) == 0 {
		sess.Rollback()
		return 0, nil
	}

	deletedTime := time.Now().UTC()
	for _, row := range rows {
		row.Deleted = &deletedTime
		if err := sess.Update(m, row); err != nil {
			sess.Rollback()
			return 0, err
		}
	}
	if err := sess.Commit(); err != nil {
		sess.Rollback()
		b.logger.Error("annotation delete failed",
			zap.String("session", sess.id),
			zap.String("table", m.tableID),
			zap.Int64s("ids", ids),
			zap.Error(err))
		return 0, err
	}
	return int64(len(rows)), nil
}

// recordID extracts a caller-supplied "id" field.
func recordID(record types.Record) (int64, bool) {
	raw, ok := record[types.ColID]
	if !ok || raw == nil {
		return 0, false
	}
	switch n := raw.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
