// Table registry: metadata rows for every annotation table in the
// namespace, the active/soft-deleted/dropped lifecycle, and the cache
// of resolved row-model handles.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/annostore/internal/tablekey"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

const metadataColumns = "table_name, schema_type, description, user_id, reference_table, " +
	"track_target_id_updates, segmentation_source, created_at, deleted_at"

// CreateTable registers a new annotation table and creates its backing
// storage in one transaction. Reference-kind constraints are enforced
// before anything is written.
func (b *Backend) CreateTable(tableName, schemaType string, opts types.TableOptions) (*types.TableMetadata, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	tableID, err := tablekey.BuildTableID(b.config.Namespace, tableName)
	if err != nil {
		return nil, err
	}
	if _, err := b.adapter.Registry().Resolve(schemaType); err != nil {
		return nil, err
	}

	// Any registered metadata row blocks the name: an active row is a
	// plain duplicate, a soft-deleted one still owns the physical
	// storage until DropTable.
	if _, err := b.GetTableMetadata(tableName); err == nil {
		return nil, fmt.Errorf("%q: %w", tableName, types.ErrTableAlreadyExists)
	}

	existing, err := b.ListExistingTableNames()
	if err != nil {
		return nil, err
	}
	refTable, trackUpdates, err := b.adapter.ParseReferenceMetadata(schemaType, tableName, opts, existing)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	md := &types.TableMetadata{
		TableName:            tableID,
		SchemaType:           schemaType,
		Description:          opts.Description,
		UserID:               opts.UserID,
		ReferenceTable:       refTable,
		TrackTargetIDUpdates: trackUpdates,
		SegmentationSource:   opts.SegmentationSource,
		CreatedAt:            now,
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %v: %w", err, types.ErrTransaction)
	}
	defer tx.Rollback()

	var refCol, segCol any
	if refTable != "" {
		refCol = refTable
	}
	if opts.SegmentationSource != "" {
		segCol = opts.SegmentationSource
	}
	_, err = tx.Exec(
		"INSERT INTO annotation_table_metadata ("+metadataColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)",
		tableID, schemaType, opts.Description, opts.UserID, refCol,
		boolToInt(trackUpdates), segCol, now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("registering table %s: %v: %w", tableID, err, types.ErrMetadataInsertFailed)
	}

	m, err := b.buildModel(tx, md)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing table creation: %v: %w", err, types.ErrTransaction)
	}

	b.modelsMu.Lock()
	b.models[tableID] = m
	b.modelsMu.Unlock()

	b.logger.Info("annotation table created",
		zap.String("table", tableID),
		zap.String("schema_type", schemaType))
	return md, nil
}

// DeleteTable soft-deletes a table: the metadata row gets a deleted_at
// stamp, removing the table from listings while leaving storage and
// rows intact. Not idempotent: a second call overwrites the stamp.
func (b *Backend) DeleteTable(tableName string) error {
	if err := b.checkAttached(); err != nil {
		return err
	}
	tableID, err := tablekey.BuildTableID(b.config.Namespace, tableName)
	if err != nil {
		return err
	}

	res, err := b.db.Exec(
		"UPDATE annotation_table_metadata SET deleted_at = ? WHERE table_name = ?",
		time.Now().UTC().Format(timeFormat), tableID,
	)
	if err != nil {
		return fmt.Errorf("marking table %s deleted: %v: %w", tableID, err, types.ErrTransaction)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", tableName, types.ErrTableNotFound)
	}
	b.logger.Info("annotation table soft-deleted", zap.String("table", tableID))
	return nil
}

// DropTable physically removes the table's storage, its segmentation
// storage, and its metadata row. Irreversible.
func (b *Backend) DropTable(tableName string) error {
	if err := b.checkAttached(); err != nil {
		return err
	}
	md, err := b.GetTableMetadata(tableName)
	if err != nil {
		return err
	}
	tableID := md.TableName

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %v: %w", err, types.ErrTransaction)
	}
	defer tx.Rollback()

	if md.SegmentationSource != "" {
		segID, err := tablekey.BuildSegmentationTableID(tableID, md.SegmentationSource)
		if err != nil {
			return err
		}
		if err := dropModelStorage(tx, segID); err != nil {
			return err
		}
	}
	if err := dropModelStorage(tx, tableID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM annotation_table_metadata WHERE table_name = ?", tableID); err != nil {
		return fmt.Errorf("deleting metadata for %s: %v: %w", tableID, err, types.ErrTransaction)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing table drop: %v: %w", err, types.ErrTransaction)
	}

	b.modelsMu.Lock()
	delete(b.models, tableID)
	b.modelsMu.Unlock()

	b.logger.Info("annotation table dropped", zap.String("table", tableID))
	return nil
}

// GetTableMetadata returns the metadata row for a table, deleted or
// not. Fails with ErrTableNotFound if absent.
func (b *Backend) GetTableMetadata(tableName string) (*types.TableMetadata, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	tableID, err := tablekey.BuildTableID(b.config.Namespace, tableName)
	if err != nil {
		return nil, err
	}

	row := b.db.QueryRow(
		"SELECT "+metadataColumns+" FROM annotation_table_metadata WHERE table_name = ?",
		tableID,
	)
	md, err := hydrateMetadata(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%q: %w", tableName, types.ErrTableNotFound)
		}
		return nil, fmt.Errorf("getting metadata for %s: %w", tableID, err)
	}
	return md, nil
}

// ListExistingTableIDs returns the ids of all tables in the namespace
// with no deleted_at stamp.
func (b *Backend) ListExistingTableIDs() ([]string, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	rows, err := b.db.Query(
		"SELECT table_name FROM annotation_table_metadata WHERE deleted_at IS NULL AND table_name LIKE ? ORDER BY table_name",
		b.config.Namespace+tablekey.Separator+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %v: %w", err, types.ErrTransaction)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning table id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table ids: %w", err)
	}
	return ids, nil
}

// ListExistingTableNames returns the bare names of all live tables.
func (b *Backend) ListExistingTableNames() ([]string, error) {
	ids, err := b.ListExistingTableIDs()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = tablekey.TableNameFromID(id)
	}
	return names, nil
}

// ListExistingTableMetadata returns the metadata of all live tables.
func (b *Backend) ListExistingTableMetadata() ([]*types.TableMetadata, error) {
	names, err := b.ListExistingTableNames()
	if err != nil {
		return nil, err
	}
	out := make([]*types.TableMetadata, 0, len(names))
	for _, name := range names {
		md, err := b.GetTableMetadata(name)
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, nil
}

// LoadTable resolves (and caches) the row-model handle for a table.
func (b *Backend) LoadTable(tableName string) (types.ModelHandle, error) {
	m, err := b.resolveModel(tableName)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// resolveModel returns the cached handle for a table, building one
// from its registered metadata on first use. Concurrent first-use may
// build twice; both handles are equivalent and the loser is dropped.
func (b *Backend) resolveModel(tableName string) (*model, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	tableID, err := tablekey.BuildTableID(b.config.Namespace, tableName)
	if err != nil {
		return nil, err
	}

	b.modelsMu.RLock()
	m, ok := b.models[tableID]
	b.modelsMu.RUnlock()
	if ok {
		return m, nil
	}

	md, err := b.GetTableMetadata(tableName)
	if err != nil {
		return nil, err
	}
	m, err = b.buildModel(b.db, md)
	if err != nil {
		return nil, err
	}

	b.modelsMu.Lock()
	if cached, ok := b.models[tableID]; ok {
		m = cached
	} else {
		b.models[tableID] = m
	}
	b.modelsMu.Unlock()
	return m, nil
}

// buildModel dispatches to the model factory appropriate for the
// table's metadata. The DDL is idempotent, so building a handle for an
// existing table touches no data.
func (b *Backend) buildModel(exec executor, md *types.TableMetadata) (*model, error) {
	if md.ReferenceTable != "" {
		return b.makeReferenceAnnotationModel(exec, md.TableName, md.SchemaType, md.ReferenceTable, md.SegmentationSource)
	}
	m, err := b.makeAnnotationModel(exec, md.TableName, md.SchemaType)
	if err != nil {
		return nil, err
	}
	if md.SegmentationSource != "" {
		m.seg, err = b.makeSegmentationModel(exec, md.TableName, md.SchemaType, md.SegmentationSource)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// hydrateMetadata converts a metadata row into a TableMetadata.
func hydrateMetadata(row *sql.Row) (*types.TableMetadata, error) {
	var (
		md           types.TableMetadata
		refTable     sql.NullString
		segSource    sql.NullString
		trackUpdates int64
		createdAt    string
		deletedAt    sql.NullString
	)
	err := row.Scan(&md.TableName, &md.SchemaType, &md.Description, &md.UserID,
		&refTable, &trackUpdates, &segSource, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	md.ReferenceTable = refTable.String
	md.SegmentationSource = segSource.String
	md.TrackTargetIDUpdates = trackUpdates != 0
	md.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := time.Parse(timeFormat, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted_at: %w", err)
		}
		md.DeletedAt = &t
	}
	return &md, nil
}
