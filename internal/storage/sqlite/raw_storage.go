package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// RawStorage persists source-native postings keyed by (source, posting_url)
type RawStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewRawStorage creates a new raw posting storage instance
func NewRawStorage(db *SQLiteDB, logger arbor.ILogger) *RawStorage {
	return &RawStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert writes one posting. A re-observation with an unchanged content hash
// only bumps last_seen and reports WasDuplicate so the caller can skip the
// classification stage. A changed hash rewrites the content fields and resets
// the duplicate flag, forcing re-classification downstream.
func (r *RawStorage) Upsert(posting *models.RawPosting) (models.UpsertResult, error) {
	var result models.UpsertResult

	var existingID, existingHash string
	err := r.db.db.QueryRow(
		`SELECT id, content_hash FROM raw_jobs WHERE source = ? AND posting_url = ?`,
		posting.Source, posting.PostingURL,
	).Scan(&existingID, &existingHash)

	switch {
	case err == sql.ErrNoRows:
		metadataJSON, merr := json.Marshal(posting.Metadata)
		if merr != nil {
			return result, fmt.Errorf("failed to marshal metadata: %w", merr)
		}
		id := common.NewJobID()
		_, err = r.db.db.Exec(`
			INSERT INTO raw_jobs (
				id, source, posting_url, source_job_id, title, company,
				raw_text, city_hint, content_hash, metadata, first_seen, last_seen
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, posting.Source, posting.PostingURL, posting.SourceJobID,
			posting.Title, posting.Company, posting.RawText, posting.CityHint,
			posting.ContentHash, string(metadataJSON),
			posting.FirstSeen.Unix(), posting.LastSeen.Unix(),
		)
		if err != nil {
			return result, fmt.Errorf("failed to insert raw posting: %w", err)
		}
		result = models.UpsertResult{RowID: id, Action: models.UpsertInserted}

	case err != nil:
		return result, fmt.Errorf("failed to look up raw posting: %w", err)

	case existingHash == posting.ContentHash:
		_, err = r.db.db.Exec(
			`UPDATE raw_jobs SET last_seen = ? WHERE id = ?`,
			posting.LastSeen.Unix(), existingID,
		)
		if err != nil {
			return result, fmt.Errorf("failed to refresh raw posting: %w", err)
		}
		result = models.UpsertResult{RowID: existingID, Action: models.UpsertUpdatedSame, WasDuplicate: true}

	default:
		metadataJSON, merr := json.Marshal(posting.Metadata)
		if merr != nil {
			return result, fmt.Errorf("failed to marshal metadata: %w", merr)
		}
		_, err = r.db.db.Exec(`
			UPDATE raw_jobs SET
				source_job_id = ?, title = ?, company = ?, raw_text = ?,
				city_hint = ?, content_hash = ?, metadata = ?, last_seen = ?
			WHERE id = ?`,
			posting.SourceJobID, posting.Title, posting.Company, posting.RawText,
			posting.CityHint, posting.ContentHash, string(metadataJSON),
			posting.LastSeen.Unix(), existingID,
		)
		if err != nil {
			return result, fmt.Errorf("failed to update raw posting: %w", err)
		}
		result = models.UpsertResult{RowID: existingID, Action: models.UpsertUpdatedChanged}
	}

	return result, nil
}

// Get retrieves a posting by its identity pair
func (r *RawStorage) Get(source models.Source, postingURL string) (*models.RawPosting, error) {
	row := r.db.db.QueryRow(`
		SELECT source, posting_url, source_job_id, title, company,
			   raw_text, city_hint, content_hash, metadata, first_seen, last_seen
		FROM raw_jobs WHERE source = ? AND posting_url = ?`,
		source, postingURL,
	)
	return scanRawPosting(row)
}

// RowID resolves the identity pair to the row ID, empty when absent
func (r *RawStorage) RowID(source models.Source, postingURL string) (string, error) {
	var id string
	err := r.db.db.QueryRow(
		`SELECT id FROM raw_jobs WHERE source = ? AND posting_url = ?`,
		source, postingURL,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve raw posting id: %w", err)
	}
	return id, nil
}

// CompaniesSeenSince returns the companies of a source with any posting
// observed at or after the cutoff. The orchestrator uses this for resume:
// a company already swept inside the window is skipped wholesale.
func (r *RawStorage) CompaniesSeenSince(source models.Source, since time.Time) (map[string]struct{}, error) {
	rows, err := r.db.db.Query(
		`SELECT DISTINCT company FROM raw_jobs WHERE source = ? AND last_seen >= ?`,
		source, since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent companies: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var company string
		if err := rows.Scan(&company); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		seen[company] = struct{}{}
	}
	return seen, rows.Err()
}

// CountBySource reports row counts per source for sweep summaries
func (r *RawStorage) CountBySource() (map[models.Source]int, error) {
	rows, err := r.db.db.Query(`SELECT source, COUNT(*) FROM raw_jobs GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count raw postings: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Source]int)
	for rows.Next() {
		var source models.Source
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

func scanRawPosting(row *sql.Row) (*models.RawPosting, error) {
	var p models.RawPosting
	var metadataJSON sql.NullString
	var cityHint, sourceJobID sql.NullString
	var firstSeen, lastSeen int64

	err := row.Scan(
		&p.Source, &p.PostingURL, &sourceJobID, &p.Title, &p.Company,
		&p.RawText, &cityHint, &p.ContentHash, &metadataJSON, &firstSeen, &lastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan raw posting: %w", err)
	}

	p.SourceJobID = sourceJobID.String
	p.CityHint = cityHint.String
	p.FirstSeen = time.Unix(firstSeen, 0).UTC()
	p.LastSeen = time.Unix(lastSeen, 0).UTC()
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &p, nil
}
