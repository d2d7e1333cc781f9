package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/storage/badger"
	"github.com/ternarybob/laboro/internal/storage/sqlite"
)

// Manager bundles the relational store (postings) with the checkpoint store
type Manager struct {
	sqlite      *sqlite.Manager
	badger      *badger.BadgerDB
	checkpoints *badger.CheckpointStorage
}

// NewManager opens both stores from config
func NewManager(logger arbor.ILogger, config *common.Config) (*Manager, error) {
	sqliteManager, err := sqlite.NewManager(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, err
	}

	badgerDB, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		sqliteManager.Close()
		return nil, err
	}

	return &Manager{
		sqlite:      sqliteManager,
		badger:      badgerDB,
		checkpoints: badger.NewCheckpointStorage(badgerDB, logger),
	}, nil
}

// RawStorage returns the raw posting store
func (m *Manager) RawStorage() *sqlite.RawStorage {
	return m.sqlite.RawStorage()
}

// EnrichedStorage returns the enriched posting store
func (m *Manager) EnrichedStorage() *sqlite.EnrichedStorage {
	return m.sqlite.EnrichedStorage()
}

// EmployerStorage returns the employer metadata store
func (m *Manager) EmployerStorage() *sqlite.EmployerStorage {
	return m.sqlite.EmployerStorage()
}

// CheckpointStorage returns the sweep checkpoint store
func (m *Manager) CheckpointStorage() *badger.CheckpointStorage {
	return m.checkpoints
}

// Close closes both stores
func (m *Manager) Close() error {
	var firstErr error
	if err := m.sqlite.Close(); err != nil {
		firstErr = err
	}
	if err := m.badger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
