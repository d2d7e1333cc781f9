package models

import (
	"time"
)

// EnrichedPosting is the joined record published to the analytic store:
// one per RawPosting, carrying the classification promoted to columns plus
// provenance and liveness fields.
type EnrichedPosting struct {
	RawJobID           string             `json:"raw_job_id"`
	EmployerName       string             `json:"employer_name"`
	TitleDisplay       string             `json:"title_display"`
	JobFamily          string             `json:"job_family"`
	JobSubfamily       string             `json:"job_subfamily"`
	Seniority          string             `json:"seniority"`
	Track              string             `json:"track"`
	PositionType       string             `json:"position_type"`
	WorkingArrangement WorkingArrangement `json:"working_arrangement"`
	Locations          []LocationEntry    `json:"locations"`
	ExperienceRange    string             `json:"experience_range"`
	EmployerDepartment string             `json:"employer_department"`
	EmployerSize       string             `json:"employer_size"`
	IsAgency           bool               `json:"is_agency"`
	AgencyConfidence   Confidence         `json:"agency_confidence"`
	Currency           string             `json:"currency"`
	SalaryMin          *float64           `json:"salary_min"`
	SalaryMax          *float64           `json:"salary_max"`
	EquityEligible     bool               `json:"equity_eligible"`
	Skills             []Skill            `json:"skills"`
	DataSource         Source             `json:"data_source"`
	DescriptionSource  Source             `json:"description_source"`
	Deduplicated       bool               `json:"deduplicated"`
	AltDescription     string             `json:"alt_description,omitempty"` // losing variant retained for dedup audit
	PostedDate         time.Time          `json:"posted_date"`
	LastSeenDate       time.Time          `json:"last_seen_date"`
	ClassifiedAt       time.Time          `json:"classified_at"`
}

// ApplyWriteDefaults fills the documented column defaults ahead of upsert
func (e *EnrichedPosting) ApplyWriteDefaults(now time.Time) {
	if e.JobFamily == "" {
		e.JobFamily = "out_of_scope"
	}
	if e.WorkingArrangement == "" || e.WorkingArrangement == ArrangementUnknown {
		e.WorkingArrangement = ArrangementOnsite
	}
	if e.PositionType == "" {
		e.PositionType = "full_time"
	}
	if e.PostedDate.IsZero() {
		e.PostedDate = now
	}
	if e.LastSeenDate.IsZero() {
		e.LastSeenDate = now
	}
}

// EmployerMetadata is the read-only lookup row consulted during enrichment
type EmployerMetadata struct {
	Name       string `json:"name"`
	Size       string `json:"size,omitempty"`
	Department string `json:"department,omitempty"`
}
