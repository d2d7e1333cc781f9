package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// EmployerStorage holds the employer lookup rows consulted during enrichment
type EmployerStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewEmployerStorage creates a new employer metadata storage instance
func NewEmployerStorage(db *SQLiteDB, logger arbor.ILogger) *EmployerStorage {
	return &EmployerStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves employer metadata by display name, nil when unknown
func (s *EmployerStorage) Get(name string) (*models.EmployerMetadata, error) {
	var m models.EmployerMetadata
	var size, department sql.NullString

	err := s.db.db.QueryRow(
		`SELECT name, size, department FROM employer_metadata WHERE name = ?`, name,
	).Scan(&m.Name, &size, &department)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up employer metadata: %w", err)
	}

	m.Size = size.String
	m.Department = department.String
	return &m, nil
}

// Seed replaces the lookup rows for the given employers. Used at startup to
// sync the table from the config directory.
func (s *EmployerStorage) Seed(employers []models.EmployerMetadata) error {
	tx, err := s.db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO employer_metadata (name, size, department) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET size = excluded.size, department = excluded.department`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range employers {
		if _, err := stmt.Exec(m.Name, m.Size, m.Department); err != nil {
			return fmt.Errorf("failed to seed employer %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}
