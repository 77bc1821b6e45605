// Dynamic row-model synthesis. Annotation tables are created from a
// schema type's flattened field descriptors; the resulting model handle
// carries the table id, the payload columns in storage order, and the
// linked segmentation handle when one exists.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/annostore/internal/tablekey"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

// model is the queryable row-model for one backing table.
type model struct {
	tableID     string
	schemaType  string
	columns     []types.FieldSpec
	seg         *model
	targetTable string // reference target table id, empty when none
}

var _ types.ModelHandle = (*model)(nil)

func (m *model) TableID() string            { return m.tableID }
func (m *model) SchemaType() string         { return m.schemaType }
func (m *model) Columns() []types.FieldSpec { return m.columns }
func (m *model) TargetTable() string        { return m.targetTable }

func (m *model) SegmentationModel() types.ModelHandle {
	if m.seg == nil {
		return nil
	}
	return m.seg
}

// executor abstracts *sql.DB and *sql.Tx so models can be created
// inside the transaction that registers their metadata.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// makeAnnotationModel creates the backing table for tableID (a no-op
// when it already exists) and returns its handle. Annotation tables
// assign row ids on insert; the live head of every supersede chain is
// covered by a partial index.
func (b *Backend) makeAnnotationModel(exec executor, tableID, schemaType string) (*model, error) {
	anno, _, err := b.adapter.FieldSplit(schemaType)
	if err != nil {
		return nil, err
	}

	ddl := buildTableDDL(tableID, anno, true)
	if _, err := exec.Exec(ddl); err != nil {
		return nil, fmt.Errorf("creating annotation table %s: %v: %w", tableID, err, types.ErrTransaction)
	}
	idx := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s(id) WHERE superceded_id IS NULL AND valid = 1",
		quoteIdent("idx_"+tableID+"_live"), quoteIdent(tableID),
	)
	if _, err := exec.Exec(idx); err != nil {
		return nil, fmt.Errorf("indexing annotation table %s: %v: %w", tableID, err, types.ErrTransaction)
	}

	return &model{tableID: tableID, schemaType: schemaType, columns: anno}, nil
}

// makeSegmentationModel creates the 1:1 shadow table for a
// segmentation source. Segmentation rows reuse the annotation table's
// id keyspace, so the id column is not auto-assigned.
func (b *Backend) makeSegmentationModel(exec executor, annotationTableID, schemaType, segmentationSource string) (*model, error) {
	_, seg, err := b.adapter.FieldSplit(schemaType)
	if err != nil {
		return nil, err
	}
	segTableID, err := tablekey.BuildSegmentationTableID(annotationTableID, segmentationSource)
	if err != nil {
		return nil, err
	}

	ddl := buildTableDDL(segTableID, seg, false)
	if _, err := exec.Exec(ddl); err != nil {
		return nil, fmt.Errorf("creating segmentation table %s: %v: %w", segTableID, err, types.ErrTransaction)
	}

	return &model{tableID: segTableID, schemaType: schemaType, columns: seg}, nil
}

// makeReferenceAnnotationModel creates an annotation table whose rows
// point at records of targetTable, optionally with a segmentation
// shadow.
func (b *Backend) makeReferenceAnnotationModel(exec executor, tableID, schemaType, targetTable, segmentationSource string) (*model, error) {
	m, err := b.makeAnnotationModel(exec, tableID, schemaType)
	if err != nil {
		return nil, err
	}
	m.targetTable = targetTable
	if segmentationSource != "" {
		m.seg, err = b.makeSegmentationModel(exec, tableID, schemaType, segmentationSource)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// dropModelStorage removes the physical table.
func dropModelStorage(exec executor, tableID string) error {
	if _, err := exec.Exec("DROP TABLE IF EXISTS " + quoteIdent(tableID)); err != nil {
		return fmt.Errorf("dropping table %s: %v: %w", tableID, err, types.ErrTransaction)
	}
	return nil
}

// buildTableDDL synthesizes the CREATE TABLE statement for a table:
// the shared bookkeeping columns followed by the payload columns in
// declaration order.
func buildTableDDL(tableID string, fields []types.FieldSpec, autoID bool) string {
	var cols []string
	if autoID {
		cols = append(cols, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	} else {
		cols = append(cols, "id INTEGER PRIMARY KEY")
	}
	cols = append(cols,
		"created TEXT NOT NULL",
		"deleted TEXT",
		"valid INTEGER NOT NULL DEFAULT 0",
		"superceded_id INTEGER",
	)
	for _, f := range fields {
		col := quoteIdent(f.Name) + " " + columnType(f.Kind)
		if f.Required {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(tableID), strings.Join(cols, ", "))
}

// columnType maps a field kind to its SQLite column type. Points are
// stored as JSON arrays in TEXT.
func columnType(kind types.FieldKind) string {
	switch kind {
	case types.KindInt, types.KindBool:
		return "INTEGER"
	case types.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes an identifier for direct interpolation into SQL.
// Table ids come from validated namespace and table name segments, but
// embedded quotes are escaped regardless.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
