package types

import (
	"errors"
	"fmt"
)

// Error classes. Every error the store surfaces wraps exactly one of
// these, so callers can branch with errors.Is on the class without
// matching the specific condition.
var (
	// ErrValidation covers bad or missing schema fields and separator
	// collisions in table identity encoding. Never worth retrying.
	ErrValidation = errors.New("validation failed")

	// ErrLimitExceeded covers bulk operations over a hard cap, raised
	// before any storage access.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrNotFound covers absent tables, schema types, and annotations.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers self-references, duplicate table names, and
	// updates targeting a superseded row-version.
	ErrConflict = errors.New("conflict")

	// ErrTransaction covers backend write or commit failures. The
	// in-flight unit of work has already been rolled back when an
	// error of this class surfaces.
	ErrTransaction = errors.New("transaction failed")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Specific error conditions, each wrapping its class.
var (
	ErrTableNotFound        = fmt.Errorf("table %w", ErrNotFound)
	ErrTableAlreadyExists   = fmt.Errorf("table already exists: %w", ErrConflict)
	ErrAnnotationNotFound   = fmt.Errorf("annotation %w", ErrNotFound)
	ErrUnknownSchemaType    = fmt.Errorf("unknown schema type: %w", ErrNotFound)
	ErrReferenceNotFound    = fmt.Errorf("reference table %w", ErrNotFound)
	ErrSelfReference        = fmt.Errorf("reference table must target a different table: %w", ErrConflict)
	ErrNotReferenceSchema   = fmt.Errorf("schema type does not accept a reference table: %w", ErrValidation)
	ErrSeparatorInName      = fmt.Errorf("name must not contain the table id separator: %w", ErrValidation)
	ErrMissingAnnotationID  = fmt.Errorf("annotation requires an 'id' to update the targeted row: %w", ErrValidation)
	ErrMissingField         = fmt.Errorf("missing required field: %w", ErrValidation)
	ErrFieldType            = fmt.Errorf("field has wrong type: %w", ErrValidation)
	ErrMetadataInsertFailed = fmt.Errorf("metadata insert failed: %w", ErrTransaction)
)

// InsertLimitError reports a bulk insert that exceeds the per-call cap.
// The batch was rejected before any row touched storage.
type InsertLimitError struct {
	Count int
	Limit int
}

func (e *InsertLimitError) Error() string {
	return fmt.Sprintf("annotation insert limit exceeded: %d annotations, limit is %d", e.Count, e.Limit)
}

func (e *InsertLimitError) Unwrap() error { return ErrLimitExceeded }

// SupersededError reports an update that targeted a historical
// row-version. SupersededBy names the row that replaced it; callers
// should retry the update against that id.
type SupersededError struct {
	ID           int64
	SupersededBy int64
}

func (e *SupersededError) Error() string {
	return fmt.Sprintf("annotation %d has already been superseded by %d, update %d instead",
		e.ID, e.SupersededBy, e.SupersededBy)
}

func (e *SupersededError) Unwrap() error { return ErrConflict }
