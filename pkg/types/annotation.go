package types

import "time"

// Record is a raw annotation payload as supplied by (or returned to) a
// client: a field map, possibly nested on intake, flat on return.
// Unknown keys are ignored on intake and passed through on return.
type Record map[string]any

// AnnotationRow is one stored version of a logical record. Fields holds
// the schema-flattened payload columns; the remaining members are the
// versioning bookkeeping.
//
// Exactly one row-version per logical record has SupercededID == nil,
// Valid == true, and Deleted == nil at any time; that row is the current
// version. Once SupercededID or Deleted is set the row is never mutated
// again.
type AnnotationRow struct {
	ID           int64
	Created      time.Time
	Deleted      *time.Time
	Valid        bool
	SupercededID *int64
	Fields       Record
}

// Current reports whether the row is the live, non-tombstoned head of
// its supersede chain.
func (r *AnnotationRow) Current() bool {
	return r.SupercededID == nil && r.Valid && r.Deleted == nil
}

// Bookkeeping column names shared by every annotation table. These are
// reserved; schema types must not declare fields with these names.
const (
	ColID           = "id"
	ColCreated      = "created"
	ColDeleted      = "deleted"
	ColValid        = "valid"
	ColSupercededID = "superceded_id"
)
