// Transactional sessions. Every store operation runs inside exactly
// one session: queued inserts, flushes, and bookkeeping updates all
// share the session's transaction and commit or roll back as a unit.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// timeFormat is the textual timestamp form used in storage.
const timeFormat = time.RFC3339Nano

// session implements types.Session over a *sql.Tx.
type session struct {
	tx      *sql.Tx
	id      string
	logger  *zap.Logger
	pending []pendingRow
	done    bool
}

type pendingRow struct {
	model *model
	row   *types.AnnotationRow
}

var _ types.Session = (*session)(nil)

// newSession begins a transaction. The session id correlates log lines
// of one unit of work.
func (b *Backend) newSession() (*session, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %v: %w", err, types.ErrTransaction)
	}
	return &session{
		tx:     tx,
		id:     newSessionID(),
		logger: b.logger,
	}, nil
}

// Query returns the rows matching the filter in id order, regardless
// of valid or deleted state. An empty id set matches nothing; the
// full-table scan must be requested explicitly.
func (s *session) Query(handle types.ModelHandle, filter types.RowFilter) ([]*types.AnnotationRow, error) {
	m, err := asModel(handle)
	if err != nil {
		return nil, err
	}
	if !filter.All && len(filter.IDs) == 0 {
		return nil, nil
	}

	query := "SELECT id, created, deleted, valid, superceded_id"
	for _, col := range m.columns {
		query += ", " + quoteIdent(col.Name)
	}
	query += " FROM " + quoteIdent(m.tableID)

	var args []any
	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY id"

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %v: %w", m.tableID, err, types.ErrTransaction)
	}
	defer rows.Close()

	var out []*types.AnnotationRow
	for rows.Next() {
		row, err := scanAnnotationRow(rows, m.columns)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", m.tableID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %v: %w", m.tableID, err, types.ErrTransaction)
	}
	return out, nil
}

// AddAll queues rows for insertion at the next Flush or Commit.
func (s *session) AddAll(handle types.ModelHandle, rows []*types.AnnotationRow) error {
	m, err := asModel(handle)
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.pending = append(s.pending, pendingRow{model: m, row: row})
	}
	return nil
}

// Flush executes queued inserts inside the transaction and writes
// storage-assigned ids back onto the rows.
func (s *session) Flush() error {
	for _, p := range s.pending {
		if err := s.insertRow(p.model, p.row); err != nil {
			return err
		}
	}
	s.pending = nil
	return nil
}

// Update persists a row's bookkeeping fields.
func (s *session) Update(handle types.ModelHandle, row *types.AnnotationRow) error {
	m, err := asModel(handle)
	if err != nil {
		return err
	}

	var deleted any
	if row.Deleted != nil {
		deleted = row.Deleted.Format(timeFormat)
	}
	var superceded any
	if row.SupercededID != nil {
		superceded = *row.SupercededID
	}

	res, err := s.tx.Exec(
		"UPDATE "+quoteIdent(m.tableID)+" SET valid = ?, deleted = ?, superceded_id = ? WHERE id = ?",
		boolToInt(row.Valid), deleted, superceded, row.ID,
	)
	if err != nil {
		return fmt.Errorf("updating %s row %d: %v: %w", m.tableID, row.ID, err, types.ErrTransaction)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("row %d in %s: %w", row.ID, m.tableID, types.ErrAnnotationNotFound)
	}
	return nil
}

// Commit flushes queued inserts and commits the transaction.
func (s *session) Commit() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing: %v: %w", err, types.ErrTransaction)
	}
	s.done = true
	return nil
}

// Rollback aborts the transaction. A no-op after Commit.
func (s *session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil {
		s.logger.Warn("rollback failed", zap.String("session", s.id), zap.Error(err))
		return fmt.Errorf("rolling back: %v: %w", err, types.ErrTransaction)
	}
	return nil
}

// insertRow writes one row. Rows with ID zero receive the
// storage-assigned id; non-zero ids are preserved.
func (s *session) insertRow(m *model, row *types.AnnotationRow) error {
	cols := []string{"created", "deleted", "valid", "superceded_id"}
	args := []any{row.Created.Format(timeFormat), nil, boolToInt(row.Valid), nil}
	if row.Deleted != nil {
		args[1] = row.Deleted.Format(timeFormat)
	}
	if row.SupercededID != nil {
		args[3] = *row.SupercededID
	}
	if row.ID != 0 {
		cols = append(cols, "id")
		args = append(args, row.ID)
	}
	for _, col := range m.columns {
		v, ok := row.Fields[col.Name]
		if !ok {
			continue
		}
		stored, err := storeValue(col, v)
		if err != nil {
			return err
		}
		cols = append(cols, col.Name)
		args = append(args, stored)
	}

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	res, err := s.tx.Exec(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(m.tableID), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("inserting into %s: %v: %w", m.tableID, err, types.ErrTransaction)
	}
	if row.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading assigned id for %s: %v: %w", m.tableID, err, types.ErrTransaction)
		}
		row.ID = id
	}
	return nil
}

// scanAnnotationRow hydrates one result row into an AnnotationRow.
func scanAnnotationRow(rows *sql.Rows, columns []types.FieldSpec) (*types.AnnotationRow, error) {
	var (
		id         int64
		created    string
		deleted    sql.NullString
		valid      int64
		superceded sql.NullInt64
	)
	payload := make([]any, len(columns))
	for i := range columns {
		payload[i] = new(sql.NullString)
	}

	dest := append([]any{&id, &created, &deleted, &valid, &superceded}, payload...)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := &types.AnnotationRow{
		ID:     id,
		Valid:  valid != 0,
		Fields: make(types.Record, len(columns)),
	}
	var err error
	row.Created, err = time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created: %w", err)
	}
	if deleted.Valid {
		t, err := time.Parse(timeFormat, deleted.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted: %w", err)
		}
		row.Deleted = &t
	}
	if superceded.Valid {
		v := superceded.Int64
		row.SupercededID = &v
	}

	for i, col := range columns {
		ns := payload[i].(*sql.NullString)
		if !ns.Valid {
			continue
		}
		v, err := loadValue(col, ns.String)
		if err != nil {
			return nil, err
		}
		row.Fields[col.Name] = v
	}
	return row, nil
}

// storeValue converts a coerced field value to its storage form.
func storeValue(spec types.FieldSpec, v any) (any, error) {
	switch spec.Kind {
	case types.KindPoint:
		pos, ok := v.([]float64)
		if !ok {
			return nil, fmt.Errorf("%q expects coerced point, got %T: %w", spec.Name, v, types.ErrFieldType)
		}
		data, err := json.Marshal(pos)
		if err != nil {
			return nil, fmt.Errorf("marshaling point %q: %w", spec.Name, err)
		}
		return string(data), nil
	case types.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%q expects bool, got %T: %w", spec.Name, v, types.ErrFieldType)
		}
		return boolToInt(b), nil
	default:
		return v, nil
	}
}

// loadValue parses a stored column text back to the field's canonical
// Go value. SQLite returns every scanned column as text here; numeric
// kinds reparse from the text form.
func loadValue(spec types.FieldSpec, raw string) (any, error) {
	switch spec.Kind {
	case types.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as int: %w", spec.Name, err)
		}
		return n, nil
	case types.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as float: %w", spec.Name, err)
		}
		return f, nil
	case types.KindBool:
		return raw != "0" && raw != "false", nil
	case types.KindPoint:
		var pos []float64
		if err := json.Unmarshal([]byte(raw), &pos); err != nil {
			return nil, fmt.Errorf("parsing %q as point: %w", spec.Name, err)
		}
		return pos, nil
	default:
		return raw, nil
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// asModel narrows a handle back to the backend's concrete model.
func asModel(handle types.ModelHandle) (*model, error) {
	m, ok := handle.(*model)
	if !ok {
		return nil, fmt.Errorf("foreign model handle %T: %w", handle, types.ErrValidation)
	}
	return m, nil
}
