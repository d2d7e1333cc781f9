package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// EnrichedStorage persists the classified view, one row per raw posting
type EnrichedStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewEnrichedStorage creates a new enriched posting storage instance
func NewEnrichedStorage(db *SQLiteDB, logger arbor.ILogger) *EnrichedStorage {
	return &EnrichedStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the enriched row for a raw posting, replacing any previous
// classification. Column defaults are applied before the write.
func (e *EnrichedStorage) Upsert(posting *models.EnrichedPosting) error {
	if posting.RawJobID == "" {
		return fmt.Errorf("raw job ID is required")
	}
	posting.ApplyWriteDefaults(time.Now().UTC())

	locationsJSON, err := json.Marshal(posting.Locations)
	if err != nil {
		return fmt.Errorf("failed to marshal locations: %w", err)
	}
	skillsJSON, err := json.Marshal(posting.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	var classifiedAt interface{}
	if !posting.ClassifiedAt.IsZero() {
		classifiedAt = posting.ClassifiedAt.Unix()
	}

	query := `
		INSERT INTO enriched_jobs (
			raw_job_id, employer_name, title_display, job_family, job_subfamily,
			seniority, track, position_type, working_arrangement, locations,
			experience_range, employer_department, employer_size,
			is_agency, agency_confidence, currency, salary_min, salary_max,
			equity_eligible, skills, data_source, description_source,
			deduplicated, alt_description, posted_date, last_seen_date, classified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(raw_job_id) DO UPDATE SET
			employer_name = excluded.employer_name,
			title_display = excluded.title_display,
			job_family = excluded.job_family,
			job_subfamily = excluded.job_subfamily,
			seniority = excluded.seniority,
			track = excluded.track,
			position_type = excluded.position_type,
			working_arrangement = excluded.working_arrangement,
			locations = excluded.locations,
			experience_range = excluded.experience_range,
			employer_department = excluded.employer_department,
			employer_size = excluded.employer_size,
			is_agency = excluded.is_agency,
			agency_confidence = excluded.agency_confidence,
			currency = excluded.currency,
			salary_min = excluded.salary_min,
			salary_max = excluded.salary_max,
			equity_eligible = excluded.equity_eligible,
			skills = excluded.skills,
			data_source = excluded.data_source,
			description_source = excluded.description_source,
			deduplicated = excluded.deduplicated,
			alt_description = excluded.alt_description,
			last_seen_date = excluded.last_seen_date,
			classified_at = excluded.classified_at
	`

	_, err = e.db.db.Exec(query,
		posting.RawJobID, posting.EmployerName, posting.TitleDisplay,
		posting.JobFamily, posting.JobSubfamily, posting.Seniority, posting.Track,
		posting.PositionType, posting.WorkingArrangement, string(locationsJSON),
		posting.ExperienceRange, posting.EmployerDepartment, posting.EmployerSize,
		posting.IsAgency, posting.AgencyConfidence, posting.Currency,
		posting.SalaryMin, posting.SalaryMax, posting.EquityEligible,
		string(skillsJSON), posting.DataSource, posting.DescriptionSource,
		posting.Deduplicated, posting.AltDescription,
		posting.PostedDate.Unix(), posting.LastSeenDate.Unix(), classifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert enriched posting: %w", err)
	}
	return nil
}

// Get retrieves the enriched row for a raw posting, nil when not yet written
func (e *EnrichedStorage) Get(rawJobID string) (*models.EnrichedPosting, error) {
	row := e.db.db.QueryRow(`
		SELECT raw_job_id, employer_name, title_display, job_family, job_subfamily,
			   seniority, track, position_type, working_arrangement, locations,
			   experience_range, employer_department, employer_size,
			   is_agency, agency_confidence, currency, salary_min, salary_max,
			   equity_eligible, skills, data_source, description_source,
			   deduplicated, alt_description, posted_date, last_seen_date, classified_at
		FROM enriched_jobs WHERE raw_job_id = ?`,
		rawJobID,
	)

	var p models.EnrichedPosting
	var subfamily, seniority, track, locationsJSON, experienceRange sql.NullString
	var department, size, agencyConfidence, currency, skillsJSON sql.NullString
	var descriptionSource, altDescription sql.NullString
	var postedDate, lastSeenDate int64
	var classifiedAt sql.NullInt64

	err := row.Scan(
		&p.RawJobID, &p.EmployerName, &p.TitleDisplay, &p.JobFamily, &subfamily,
		&seniority, &track, &p.PositionType, &p.WorkingArrangement, &locationsJSON,
		&experienceRange, &department, &size,
		&p.IsAgency, &agencyConfidence, &currency, &p.SalaryMin, &p.SalaryMax,
		&p.EquityEligible, &skillsJSON, &p.DataSource, &descriptionSource,
		&p.Deduplicated, &altDescription, &postedDate, &lastSeenDate, &classifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan enriched posting: %w", err)
	}

	p.JobSubfamily = subfamily.String
	p.Seniority = seniority.String
	p.Track = track.String
	p.ExperienceRange = experienceRange.String
	p.EmployerDepartment = department.String
	p.EmployerSize = size.String
	p.AgencyConfidence = models.Confidence(agencyConfidence.String)
	p.Currency = currency.String
	p.DescriptionSource = models.Source(descriptionSource.String)
	p.AltDescription = altDescription.String
	p.PostedDate = time.Unix(postedDate, 0).UTC()
	p.LastSeenDate = time.Unix(lastSeenDate, 0).UTC()
	if classifiedAt.Valid {
		p.ClassifiedAt = time.Unix(classifiedAt.Int64, 0).UTC()
	}
	if locationsJSON.Valid && locationsJSON.String != "" && locationsJSON.String != "null" {
		if err := json.Unmarshal([]byte(locationsJSON.String), &p.Locations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal locations: %w", err)
		}
	}
	if skillsJSON.Valid && skillsJSON.String != "" && skillsJSON.String != "null" {
		if err := json.Unmarshal([]byte(skillsJSON.String), &p.Skills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
		}
	}
	return &p, nil
}

// CountByFamily reports enriched row counts per job family
func (e *EnrichedStorage) CountByFamily() (map[string]int, error) {
	rows, err := e.db.db.Query(`SELECT job_family, COUNT(*) FROM enriched_jobs GROUP BY job_family`)
	if err != nil {
		return nil, fmt.Errorf("failed to count enriched postings: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var family string
		var n int
		if err := rows.Scan(&family, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[family] = n
	}
	return counts, rows.Err()
}
