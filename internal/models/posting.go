package models

import (
	"time"
)

// Source identifies which external platform a posting was fetched from
type Source string

const (
	SourceGreenhouse      Source = "greenhouse"
	SourceLever           Source = "lever"
	SourceAshby           Source = "ashby"
	SourceWorkable        Source = "workable"
	SourceSmartRecruiters Source = "smartrecruiters"
	SourceAdzuna          Source = "adzuna"
	SourceGoogle          Source = "google"
)

// AllSources lists every supported source in sweep order. Direct-ATS sources
// precede the aggregator so dedup preference falls out of ordering.
var AllSources = []Source{
	SourceGreenhouse,
	SourceLever,
	SourceAshby,
	SourceWorkable,
	SourceSmartRecruiters,
	SourceGoogle,
	SourceAdzuna,
}

// ParseSource validates a source name from CLI or config input
func ParseSource(s string) (Source, bool) {
	for _, src := range AllSources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// EmployerRef is the stable identity of one career board we scrape.
// Instance distinguishes global/EU API variants where a source has them.
type EmployerRef struct {
	Source      Source `toml:"-" json:"source"`
	DisplayName string `toml:"-" json:"display_name"`
	Slug        string `toml:"slug" json:"slug"`
	Instance    string `toml:"instance,omitempty" json:"instance,omitempty"`
}

// RawPosting is the unit of ingestion: the canonicalized, source-native view
// of one job ad after field extraction and HTML stripping. Identity is
// (Source, PostingURL); ContentHash pivots change detection.
type RawPosting struct {
	Source      Source            `json:"source"`
	PostingURL  string            `json:"posting_url"`
	SourceJobID string            `json:"source_job_id"`
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	RawText     string            `json:"raw_text"`
	CityHint    string            `json:"city_hint"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	FirstSeen   time.Time         `json:"first_seen"`
	LastSeen    time.Time         `json:"last_seen"`
}

// Hint reads a source-specific structured hint from the metadata map
func (p *RawPosting) Hint(key string) (string, bool) {
	if p.Metadata == nil {
		return "", false
	}
	v, ok := p.Metadata[key]
	return v, ok
}

// HasStructuredHints reports whether the source supplied structured context
// (title/company plus at least one hint) alongside the free text. Postings
// with structured context pass the description gate at a lower threshold.
func (p *RawPosting) HasStructuredHints() bool {
	return p.Title != "" && p.Company != "" && len(p.Metadata) > 0
}

// Metadata hint keys populated by fetchers and consumed by the classifier
// gateway and taxonomy mapper.
const (
	HintDepartment      = "department"
	HintTeam            = "team"
	HintCategory        = "category"
	HintCommitment      = "commitment"
	HintEmploymentType  = "employment_type"
	HintWorkplaceType   = "workplace_type" // onsite|hybrid|remote
	HintIsRemote        = "is_remote"      // "true"|"false"
	HintLocationType    = "location_type"
	HintExperienceLevel = "experience_level"
	HintCountryCode     = "country_code"
	HintCity            = "city"
	HintRegion          = "region"
	HintSalaryMin       = "salary_min"
	HintSalaryMax       = "salary_max"
	HintSalaryCurrency  = "salary_currency"
	HintSalaryPredicted = "salary_predicted" // Adzuna model-predicted salary flag
	HintDescriptionMD   = "description_markdown"
)

// UpsertAction describes what the raw store did with a posting
type UpsertAction string

const (
	UpsertInserted       UpsertAction = "inserted"
	UpsertUpdatedChanged UpsertAction = "updated_changed"
	UpsertUpdatedSame    UpsertAction = "updated_same"
)

// UpsertResult is returned by the raw store. WasDuplicate is the single
// pivot that prevents re-paying classification cost.
type UpsertResult struct {
	RowID        string
	Action       UpsertAction
	WasDuplicate bool
}

// FetchStats accumulates per-employer fetch outcomes
type FetchStats struct {
	Scraped  int    `json:"scraped"`
	Kept     int    `json:"kept"`
	Filtered int    `json:"filtered"`
	Error    string `json:"error,omitempty"`
}

// CheckpointRecord marks the last successful processing of one employer
type CheckpointRecord struct {
	Source      Source    `badgerhold:"index"`
	Slug        string    `json:"slug"`
	ProcessedAt time.Time `json:"processed_at"`
	JobCount    int       `json:"job_count"`
}
