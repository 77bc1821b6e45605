package types

// ModelHandle is the queryable row-model for one backing table,
// produced by the backend's model factory and cached per table id for
// the process lifetime. Handles are safe for concurrent dispatch.
type ModelHandle interface {
	// TableID returns the full table id the handle is bound to.
	TableID() string

	// SchemaType returns the schema type the table was created with.
	SchemaType() string

	// Columns returns the payload column descriptors in storage order,
	// excluding the bookkeeping columns.
	Columns() []FieldSpec

	// SegmentationModel returns the linked segmentation handle, or nil
	// when the table has no segmentation source.
	SegmentationModel() ModelHandle

	// TargetTable returns the table id a reference table points at,
	// empty for non-reference tables.
	TargetTable() string
}

// RowFilter selects rows for Session.Query. IDs names the physical row
// ids to fetch; an empty id set matches nothing. All selects every row
// in the table regardless of IDs, for full-history scans.
type RowFilter struct {
	IDs []int64
	All bool
}

// Session is one transactional unit of work against the backing store.
// Every store operation acquires a session, performs its reads and
// writes, and finishes with exactly one Commit or Rollback. The store
// never issues raw SQL; all access goes through this interface.
type Session interface {
	// Query returns the rows of the model's table matching the filter,
	// in id order, regardless of valid/deleted state. An empty id set
	// matches nothing unless the filter asks for every row.
	Query(model ModelHandle, filter RowFilter) ([]*AnnotationRow, error)

	// AddAll queues rows for insertion into the model's table. Rows
	// with ID == 0 receive a storage-assigned id at flush; a non-zero
	// ID is preserved (explicit id reuse links segmentation rows to
	// their annotation rows).
	AddAll(model ModelHandle, rows []*AnnotationRow) error

	// Flush executes all queued inserts inside the transaction and
	// writes assigned ids back onto the queued rows, without
	// committing.
	Flush() error

	// Update persists the bookkeeping fields (valid, deleted,
	// superceded_id) of an already-stored row inside the transaction.
	Update(model ModelHandle, row *AnnotationRow) error

	// Commit flushes any queued inserts and commits the transaction.
	Commit() error

	// Rollback aborts the transaction, discarding queued and flushed
	// writes. Safe to call after Commit; it is then a no-op.
	Rollback() error
}
