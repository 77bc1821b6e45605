package types

// InsertLimit is the per-call cap on bulk annotation inserts. Batches
// over the cap are rejected before any storage access; callers chunk.
const InsertLimit = 10_000

// Store is the client-facing interface of the versioned annotation
// store. Callers attach to a backend, operate on tables and
// annotations, and detach when done.
//
// Every operation is one atomic unit of work: it either fully applies
// or fully rolls back. Backend-specific errors never escape; failures
// surface as errors wrapping one of the classes in errors.go.
type Store interface {
	// Attach connects the store to the backend described by config and
	// creates the data directory if needed. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach,
	// operations return ErrStoreDetached.
	Detach() error

	// CreateTable registers a new annotation table under the store's
	// namespace and creates its backing storage (and segmentation
	// storage when opts.SegmentationSource is set). Fails with
	// ErrTableAlreadyExists if the name is registered and not deleted,
	// and with the reference-constraint errors for reference-kind
	// schemas.
	CreateTable(tableName, schemaType string, opts TableOptions) (*TableMetadata, error)

	// DeleteTable soft-deletes a table: stamps deleted_at on its
	// metadata, removing it from listings and materialization while
	// leaving storage and rows intact. Not idempotent: a second call
	// overwrites the timestamp.
	DeleteTable(tableName string) error

	// DropTable physically removes the table's storage, any dependent
	// segmentation storage, and its metadata row. Irreversible.
	DropTable(tableName string) error

	// ListExistingTableNames returns the names of all tables in the
	// namespace that are not soft-deleted.
	ListExistingTableNames() ([]string, error)

	// ListExistingTableMetadata returns the metadata of all tables in
	// the namespace that are not soft-deleted.
	ListExistingTableMetadata() ([]*TableMetadata, error)

	// GetTableMetadata returns the metadata row for a table, deleted
	// or not. Fails with ErrTableNotFound if absent.
	GetTableMetadata(tableName string) (*TableMetadata, error)

	// InsertAnnotations validates, flattens, and inserts records as a
	// single all-or-nothing batch of new current row-versions. Fails
	// with *InsertLimitError when len(records) > InsertLimit, before
	// touching storage. A caller-supplied "id" field is preserved.
	InsertAnnotations(tableName string, records []Record) error

	// GetAnnotations fetches all stored row-versions whose physical id
	// is in ids, regardless of valid or deleted state. Timestamps are
	// serialized to text and the result is re-coerced through the
	// schema loader. No matching rows yields an empty slice; a result
	// that cannot be coerced fails with ErrAnnotationNotFound.
	GetAnnotations(tableName string, ids []int64) ([]Record, error)

	// UpdateAnnotation supersedes the current version of a record: it
	// inserts the new payload as a fresh row, links the old row to it
	// through superceded_id, and marks the old row invalid, atomically.
	// The record must carry an "id" naming any known version; only the
	// live head may be updated; targeting a superseded version fails
	// with *SupersededError naming the correct target. Returns the new
	// head's id.
	UpdateAnnotation(tableName string, record Record) (int64, error)

	// DeleteAnnotations tombstones every matched row-version with one
	// shared timestamp. Matching a superseded historical version is
	// permitted. Returns the number of rows tombstoned; zero means no
	// ids matched.
	DeleteAnnotations(tableName string, ids []int64) (int64, error)

	// LoadTable resolves (and caches) the row-model handle for a
	// table, verifying the table exists.
	LoadTable(tableName string) (ModelHandle, error)

	// ExportTableJSONL writes every stored row-version of a table,
	// including superseded and tombstoned history, to path as JSONL
	// using an atomic temp-file-and-rename write.
	ExportTableJSONL(tableName, path string) error
}
