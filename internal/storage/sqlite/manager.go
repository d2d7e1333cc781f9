package sqlite

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
)

// Manager bundles the SQLite-backed stores behind one connection
type Manager struct {
	db       *SQLiteDB
	raw      *RawStorage
	enriched *EnrichedStorage
	employer *EmployerStorage
	logger   arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig) (*Manager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:       db,
		raw:      NewRawStorage(db, logger),
		enriched: NewEnrichedStorage(db, logger),
		employer: NewEmployerStorage(db, logger),
		logger:   logger,
	}, nil
}

// RawStorage returns the raw posting store
func (m *Manager) RawStorage() *RawStorage {
	return m.raw
}

// EnrichedStorage returns the enriched posting store
func (m *Manager) EnrichedStorage() *EnrichedStorage {
	return m.enriched
}

// EmployerStorage returns the employer metadata store
func (m *Manager) EmployerStorage() *EmployerStorage {
	return m.employer
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
