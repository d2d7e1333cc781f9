package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/laboro/internal/models"
)

// CheckpointStorage records the last successful processing of each employer
// so an interrupted sweep can resume without refetching completed boards.
type CheckpointStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCheckpointStorage creates a new checkpoint storage instance
func NewCheckpointStorage(db *BadgerDB, logger arbor.ILogger) *CheckpointStorage {
	return &CheckpointStorage{
		db:     db,
		logger: logger,
	}
}

func checkpointKey(source models.Source, slug string) string {
	return fmt.Sprintf("%s/%s", source, slug)
}

// Save records a completed employer
func (s *CheckpointStorage) Save(record *models.CheckpointRecord) error {
	if record.Source == "" || record.Slug == "" {
		return fmt.Errorf("checkpoint requires source and slug")
	}
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now().UTC()
	}
	key := checkpointKey(record.Source, record.Slug)
	if err := s.db.Store().Upsert(key, record); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Get retrieves a checkpoint, nil when the employer was never completed
func (s *CheckpointStorage) Get(source models.Source, slug string) (*models.CheckpointRecord, error) {
	var record models.CheckpointRecord
	err := s.db.Store().Get(checkpointKey(source, slug), &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return &record, nil
}

// SlugsProcessedSince returns the slugs of a source completed at or after the
// cutoff. Combined with the raw store's recent companies this drives the
// resume window bulk skip.
func (s *CheckpointStorage) SlugsProcessedSince(source models.Source, since time.Time) (map[string]struct{}, error) {
	var records []models.CheckpointRecord
	query := badgerhold.Where("Source").Eq(source).And("ProcessedAt").Ge(since)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}

	slugs := make(map[string]struct{}, len(records))
	for _, r := range records {
		slugs[r.Slug] = struct{}{}
	}
	return slugs, nil
}

// Clear removes all checkpoints for a source, forcing a full re-sweep
func (s *CheckpointStorage) Clear(source models.Source) error {
	if err := s.db.Store().DeleteMatching(&models.CheckpointRecord{}, badgerhold.Where("Source").Eq(source)); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}
