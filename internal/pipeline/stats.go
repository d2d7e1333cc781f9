package pipeline

import (
	"time"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// StatsAccumulator owns the sweep counters. It is written by exactly one
// orchestrator invocation; parallel sweeps own separate accumulators.
type StatsAccumulator struct {
	stats            models.SweepStats
	companyDurations []float64
	recentErrorCap   int
}

// NewStatsAccumulator starts the counters for one sweep
func NewStatsAccumulator(source models.Source, cityCode string, recentErrorCap int) *StatsAccumulator {
	if recentErrorCap <= 0 {
		recentErrorCap = 50
	}
	return &StatsAccumulator{
		stats: models.SweepStats{
			SweepID:   common.NewSweepID(),
			Source:    source,
			CityCode:  cityCode,
			StartedAt: time.Now().UTC(),
		},
		recentErrorCap: recentErrorCap,
	}
}

// SetCompaniesTotal records the size of the employer list
func (a *StatsAccumulator) SetCompaniesTotal(n int) {
	a.stats.CompaniesTotal = n
}

// SkipCompany counts a resume-window bulk skip
func (a *StatsAccumulator) SkipCompany() {
	a.stats.CompaniesSkipped++
}

// AddCompany folds one processed company into the sweep
func (a *StatsAccumulator) AddCompany(cs models.CompanyStats) {
	a.stats.CompaniesProcessed++
	if cs.Kept > 0 {
		a.stats.CompaniesWithJobs++
	}
	a.stats.JobsScraped += cs.Scraped
	a.stats.JobsKept += cs.Kept
	a.stats.JobsWrittenRaw += cs.WrittenRaw
	a.stats.JobsDuplicate += cs.Duplicate
	a.stats.JobsClassified += cs.Classified
	a.stats.JobsAgencyFiltered += cs.AgencyFiltered
	a.stats.JobsSkippedThin += cs.SkippedThin
	a.stats.JobsClassifyErrors += cs.ClassifyErrors
	a.stats.JobsWrittenEnriched += cs.WrittenEnriched
	a.stats.CostClassification += cs.CostUSD
	a.companyDurations = append(a.companyDurations, cs.Elapsed)
}

// AddSavedCost values the classifications avoided by pre-classification
// filtering: filtered count times the classifier unit cost.
func (a *StatsAccumulator) AddSavedCost(filtered int, unitCost float64) {
	a.stats.CostSavedFiltering += float64(filtered) * unitCost
}

// RecordError counts one non-fatal error, keeping the most recent messages
func (a *StatsAccumulator) RecordError(msg string) {
	a.stats.Errors++
	a.stats.RecentErrors = append(a.stats.RecentErrors, msg)
	if len(a.stats.RecentErrors) > a.recentErrorCap {
		a.stats.RecentErrors = a.stats.RecentErrors[len(a.stats.RecentErrors)-a.recentErrorCap:]
	}
}

// ETA estimates remaining seconds from the rolling per-company mean
func (a *StatsAccumulator) ETA(companiesRemaining int) float64 {
	if len(a.companyDurations) == 0 || companiesRemaining <= 0 {
		return 0
	}
	var sum float64
	for _, d := range a.companyDurations {
		sum += d
	}
	mean := sum / float64(len(a.companyDurations))
	return mean * float64(companiesRemaining)
}

// Snapshot returns the current counters with elapsed time and ETA filled
func (a *StatsAccumulator) Snapshot(companiesRemaining int) models.SweepStats {
	s := a.stats
	s.ElapsedSeconds = time.Since(a.stats.StartedAt).Seconds()
	s.ETASeconds = a.ETA(companiesRemaining)
	return s
}
