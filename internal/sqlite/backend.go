// Package sqlite implements the SQLite storage backend for the
// versioned annotation store: metadata registry, dynamic table models,
// transactional sessions, and the annotation versioning protocol.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "embed"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/annostore/internal/schemas"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Backend implements types.Store over a per-namespace SQLite database.
// Annotation tables are plain SQL tables synthesized from their schema
// type; row history lives in the tables themselves through the
// superceded_id chain.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *zap.Logger
	adapter  *schemas.Adapter

	// Resolved row-model handles, one per table id for the process
	// lifetime. Guarded separately so reads don't contend with the
	// backend lifecycle lock.
	modelsMu sync.RWMutex
	models   map[string]*model
}

var _ types.Store = (*Backend)(nil)

// Option configures a Backend at construction.
type Option func(*Backend)

// WithLogger installs a logger for transactional failures and
// lifecycle events. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// WithRegistry replaces the built-in schema registry.
func WithRegistry(registry types.SchemaRegistry) Option {
	return func(b *Backend) { b.adapter = schemas.NewAdapter(registry) }
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger:  zap.NewNop(),
		adapter: schemas.NewAdapter(schemas.NewRegistry()),
		models:  make(map[string]*model),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (or creates) the namespace database under
// config.DataDir and initializes the metadata schema.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, "annostore.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("initializing metadata schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Info("annotation store attached",
		zap.String("namespace", config.Namespace),
		zap.String("db", dbPath))
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false

	b.modelsMu.Lock()
	b.models = make(map[string]*model)
	b.modelsMu.Unlock()
	return nil
}

// checkAttached returns ErrStoreDetached unless the backend is
// attached. Callers hold no lock; the read lock is taken here.
func (b *Backend) checkAttached() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return nil
}

// newSessionID generates a UUID v7 correlation id for session logs.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
