package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/laboro/internal/models"
)

func TestStatsAccumulatorFolding(t *testing.T) {
	acc := NewStatsAccumulator(models.SourceGreenhouse, "lon", 50)
	acc.SetCompaniesTotal(3)

	acc.AddCompany(models.CompanyStats{
		Company:         "Acme",
		Scraped:         10,
		Kept:            6,
		WrittenRaw:      6,
		Duplicate:       2,
		Classified:      3,
		AgencyFiltered:  1,
		WrittenEnriched: 4,
		CostUSD:         0.02,
		Elapsed:         2.0,
	})
	acc.AddCompany(models.CompanyStats{Company: "Globex", Scraped: 4, Elapsed: 4.0})
	acc.SkipCompany()

	s := acc.Snapshot(0)
	assert.Equal(t, 3, s.CompaniesTotal)
	assert.Equal(t, 2, s.CompaniesProcessed)
	assert.Equal(t, 1, s.CompaniesSkipped)
	assert.Equal(t, 1, s.CompaniesWithJobs) // only Acme kept anything
	assert.Equal(t, 14, s.JobsScraped)
	assert.Equal(t, 6, s.JobsKept)
	assert.Equal(t, 3, s.JobsClassified)
	assert.Equal(t, 1, s.JobsAgencyFiltered)
	assert.Equal(t, 4, s.JobsWrittenEnriched)
	assert.InDelta(t, 0.02, s.CostClassification, 1e-9)
	assert.NotEmpty(t, s.SweepID)
	assert.Equal(t, "lon", s.CityCode)
}

func TestStatsAccumulatorETA(t *testing.T) {
	acc := NewStatsAccumulator(models.SourceLever, "nyc", 50)

	assert.Equal(t, 0.0, acc.ETA(10)) // nothing observed yet

	acc.AddCompany(models.CompanyStats{Elapsed: 2.0})
	acc.AddCompany(models.CompanyStats{Elapsed: 4.0})

	assert.InDelta(t, 15.0, acc.ETA(5), 1e-9)
	assert.Equal(t, 0.0, acc.ETA(0))
}

func TestStatsAccumulatorSavedCost(t *testing.T) {
	acc := NewStatsAccumulator(models.SourceGreenhouse, "lon", 50)
	acc.AddSavedCost(4, 0.005)
	acc.AddSavedCost(1, 0.005)

	assert.InDelta(t, 0.025, acc.Snapshot(0).CostSavedFiltering, 1e-9)
}

func TestStatsAccumulatorRecentErrorCap(t *testing.T) {
	acc := NewStatsAccumulator(models.SourceGreenhouse, "lon", 3)

	for i := 0; i < 5; i++ {
		acc.RecordError(fmt.Sprintf("error %d", i))
	}

	s := acc.Snapshot(0)
	assert.Equal(t, 5, s.Errors)
	assert.Equal(t, []string{"error 2", "error 3", "error 4"}, s.RecentErrors)
}
