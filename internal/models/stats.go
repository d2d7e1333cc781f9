package models

import (
	"time"
)

// CompanyStats is the per-company block printed after each employer
type CompanyStats struct {
	Company         string  `json:"company"`
	Scraped         int     `json:"scraped"`
	Kept            int     `json:"kept"`
	WrittenRaw      int     `json:"written_raw"`
	Duplicate       int     `json:"duplicate"`
	Classified      int     `json:"classified"`
	AgencyFiltered  int     `json:"agency_filtered"`
	SkippedThin     int     `json:"skipped_thin"`
	ClassifyErrors  int     `json:"classify_errors"`
	WrittenEnriched int     `json:"written_enriched"`
	CostUSD         float64 `json:"cost_usd"`
	Elapsed         float64 `json:"elapsed_seconds"`
}

// SweepStats aggregates one orchestrator invocation over a source
type SweepStats struct {
	SweepID             string    `json:"sweep_id"`
	Source              Source    `json:"source"`
	CityCode            string    `json:"city_code"`
	StartedAt           time.Time `json:"started_at"`
	CompaniesTotal      int       `json:"companies_total"`
	CompaniesProcessed  int       `json:"companies_processed"`
	CompaniesSkipped    int       `json:"companies_skipped"`
	CompaniesWithJobs   int       `json:"companies_with_jobs"`
	JobsScraped         int       `json:"jobs_scraped"`
	JobsKept            int       `json:"jobs_kept"`
	JobsWrittenRaw      int       `json:"jobs_written_raw"`
	JobsDuplicate       int       `json:"jobs_duplicate"`
	JobsClassified      int       `json:"jobs_classified"`
	JobsAgencyFiltered  int       `json:"jobs_agency_filtered"`
	JobsSkippedThin     int       `json:"jobs_skipped_thin"`
	JobsClassifyErrors  int       `json:"jobs_classify_errors"`
	JobsWrittenEnriched int       `json:"jobs_written_enriched"`
	CostClassification  float64   `json:"cost_classification_usd"`
	CostSavedFiltering  float64   `json:"cost_saved_from_filtering_usd"`
	ElapsedSeconds      float64   `json:"elapsed_seconds"`
	ETASeconds          float64   `json:"eta_seconds"`
	Errors              int       `json:"errors"`
	RecentErrors        []string  `json:"recent_errors,omitempty"`
}

// MergeStats reports the cross-source deduplication outcome
type MergeStats struct {
	DirectOnly           int            `json:"direct_only"`
	AggregatorOnly       int            `json:"aggregator_only"`
	Deduplicated         int            `json:"deduplicated"`
	DedupRate            float64        `json:"dedup_rate"`
	AvgDescriptionLength float64        `json:"avg_description_length"`
	DescriptionBySource  map[Source]int `json:"description_by_source"`
}
