package types

import "time"

// TableMetadata is one row per logical annotation table in a namespace.
// TableName holds the full table id (namespace__name), unique across the
// metadata table.
type TableMetadata struct {
	TableName            string     `json:"table_name"`
	SchemaType           string     `json:"schema_type"`
	Description          string     `json:"description"`
	UserID               string     `json:"user_id"`
	ReferenceTable       string     `json:"reference_table,omitempty"`
	TrackTargetIDUpdates bool       `json:"track_target_id_updates"`
	SegmentationSource   string     `json:"segmentation_source,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the table has been soft-deleted. A deleted
// table is excluded from listings and materialization but its rows
// persist until DropTable.
func (m *TableMetadata) Deleted() bool {
	return m.DeletedAt != nil
}

// TableOptions carries the caller-supplied metadata for CreateTable.
// ReferenceTable is only legal for reference-kind schema types and must
// name a different, existing table. SegmentationSource, when set, makes
// the store create a shadow segmentation table sharing the annotation
// table's id keyspace.
type TableOptions struct {
	Description          string `json:"description"`
	UserID               string `json:"user_id"`
	ReferenceTable       string `json:"reference_table,omitempty"`
	TrackTargetIDUpdates bool   `json:"track_target_id_updates"`
	SegmentationSource   string `json:"segmentation_source,omitempty"`
}
