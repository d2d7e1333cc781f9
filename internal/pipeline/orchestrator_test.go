package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/agency"
	"github.com/ternarybob/laboro/internal/classifier"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/fetchers"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/storage"
	"github.com/ternarybob/laboro/internal/taxonomy"
)

const classifierResponse = `{
  "employer": {"department": "Engineering", "size": null, "is_agency": false, "agency_confidence": "low"},
  "role": {"job_family": "engineering", "job_subfamily": "data_platform", "seniority": "senior", "track": "ic", "position_type": "full_time", "experience_range": "5-8"},
  "location": {"working_arrangement": "hybrid", "locations": [{"type": "city", "city": "Berlin", "country_code": "DE"}]},
  "compensation": {"currency": "EUR", "salary_min": 80000, "salary_max": 110000, "equity_eligible": true},
  "skills": [{"name": "python"}, {"name": "Spark"}],
  "summary": "Senior data engineer building the analytics platform."
}`

type stubProvider struct {
	response string
	calls    int
}

func (s *stubProvider) Name() string  { return "claude" }
func (s *stubProvider) Model() string { return "claude-haiku-3-5-20241022" }

func (s *stubProvider) Complete(ctx context.Context, system, user string) (*classifier.Completion, error) {
	s.calls++
	return &classifier.Completion{Text: s.response, InputTokens: 1200, OutputTokens: 300}, nil
}

type fakeFetcher struct {
	source   models.Source
	postings []models.RawPosting
	fetches  int
}

func (f *fakeFetcher) Source() models.Source { return f.source }

func (f *fakeFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts fetchers.Options) ([]models.RawPosting, models.FetchStats) {
	f.fetches++
	out := make([]models.RawPosting, len(f.postings))
	copy(out, f.postings)
	for i := range out {
		out[i].ContentHash = common.ContentHash(out[i].Title, out[i].RawText)
	}
	return out, models.FetchStats{Scraped: len(out), Kept: len(out)}
}

const testEmployersTOML = `
[greenhouse."Acme Corp"]
slug = "acme"

[adzuna."data engineer"]
slug = "q:data-engineer"
`

func setupOrchestrator(t *testing.T, provider classifier.Provider, fetcherSet map[models.Source]fetchers.Fetcher) (*Orchestrator, *storage.Manager) {
	t.Helper()
	dir := t.TempDir()
	logger := arbor.NewLogger()

	config := common.NewDefaultConfig()
	config.Storage.SQLite.Path = filepath.Join(dir, "test.db")
	config.Storage.SQLite.WALMode = false
	config.Storage.Badger.Path = filepath.Join(dir, "checkpoints")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "employers.toml"), []byte(testEmployersTOML), 0o644))
	employers, err := fetchers.LoadEmployers(dir)
	require.NoError(t, err)

	store, err := storage.NewManager(logger, config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	detector := agency.NewDetector(agency.DefaultTables(), logger)
	tables := taxonomy.NewTables(
		map[string]string{"data_platform": "data", "ai_ml_pm": "product"},
		[]taxonomy.SkillEntry{{Name: "Python", FamilyCode: "lang"}},
	)
	mapper := taxonomy.NewMapper(tables, taxonomy.DefaultSuppression(), logger)
	gateway := classifier.NewGateway(provider, logger)

	orch := NewOrchestrator(config, fetcherSet, nil, employers, store, detector, gateway, mapper, logger)
	return orch, store
}

func directPosting() models.RawPosting {
	return models.RawPosting{
		Source:      models.SourceGreenhouse,
		PostingURL:  "https://boards.greenhouse.io/acme/jobs/4001",
		SourceJobID: "4001",
		Title:       "Senior Data Engineer",
		Company:     "Acme Corp",
		RawText:     "We are hiring a senior data engineer to build and operate our analytics platform in Berlin.",
		CityHint:    "Berlin",
		Metadata:    map[string]string{models.HintDepartment: "Data"},
	}
}

func agencyPosting() models.RawPosting {
	return models.RawPosting{
		Source:     models.SourceGreenhouse,
		PostingURL: "https://boards.greenhouse.io/acme/jobs/4002",
		Title:      "Data Engineer",
		Company:    "Hays",
		RawText:    "Our client is seeking a data engineer for a leading fintech.",
		CityHint:   "London",
	}
}

func TestRunSweepEndToEnd(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{directPosting(), agencyPosting()}}
	orch, store := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	allStats, err := orch.Run(context.Background(), SweepOptions{CityCode: "lon"})
	require.NoError(t, err)
	require.Len(t, allStats, 1)

	stats := allStats[0]
	assert.Equal(t, 1, stats.CompaniesProcessed)
	assert.Equal(t, 2, stats.JobsScraped)
	assert.Equal(t, 2, stats.JobsWrittenRaw)
	assert.Equal(t, 1, stats.JobsClassified)
	assert.Equal(t, 1, stats.JobsAgencyFiltered)
	assert.Equal(t, 2, stats.JobsWrittenEnriched)
	assert.Greater(t, stats.CostClassification, 0.0)
	assert.Greater(t, stats.CostSavedFiltering, 0.0)
	assert.Equal(t, 1, provider.calls)

	// the classified posting lands with its corrected taxonomy: the
	// classifier's advisory family is overwritten from the subfamily table
	id, err := store.RawStorage().RowID(models.SourceGreenhouse, "https://boards.greenhouse.io/acme/jobs/4001")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	enriched, err := store.EnrichedStorage().Get(id)
	require.NoError(t, err)
	require.NotNil(t, enriched)
	assert.Equal(t, "data", enriched.JobFamily)
	assert.Equal(t, "data_platform", enriched.JobSubfamily)
	assert.False(t, enriched.IsAgency)
	require.Len(t, enriched.Skills, 2)
	assert.Equal(t, "Python", enriched.Skills[0].Name) // canonical casing
	require.NotNil(t, enriched.Skills[0].FamilyCode)
	assert.Equal(t, "lang", *enriched.Skills[0].FamilyCode)

	// the hard-agency posting is labeled without ever reaching the classifier
	agencyID, err := store.RawStorage().RowID(models.SourceGreenhouse, "https://boards.greenhouse.io/acme/jobs/4002")
	require.NoError(t, err)
	agencyRow, err := store.EnrichedStorage().Get(agencyID)
	require.NoError(t, err)
	require.NotNil(t, agencyRow)
	assert.True(t, agencyRow.IsAgency)
	assert.Equal(t, models.ConfidenceHigh, agencyRow.AgencyConfidence)
	assert.Equal(t, "out_of_scope", agencyRow.JobFamily)
	assert.True(t, agencyRow.ClassifiedAt.IsZero())

	// the employer is checkpointed
	checkpoint, err := store.CheckpointStorage().Get(models.SourceGreenhouse, "acme")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, 2, checkpoint.JobCount)
}

func TestRunUnchangedPostingsNotReclassified(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{directPosting(), agencyPosting()}}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	_, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	allStats, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls) // no new classification
	assert.Equal(t, 2, allStats[0].JobsDuplicate)
	assert.Equal(t, 0, allStats[0].JobsWrittenRaw) // liveness touch only
	assert.Equal(t, 0, allStats[0].JobsClassified)
	assert.Equal(t, 0, allStats[0].JobsAgencyFiltered)
}

func TestRunChangedContentReclassified(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{directPosting()}}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	_, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	fetcher.postings[0].RawText = "We are hiring a senior data engineer. The role now includes ownership of the streaming platform."
	allStats, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, 0, allStats[0].JobsDuplicate)
	assert.Equal(t, 1, allStats[0].JobsClassified)
}

func TestRunResumeWindowSkipsCompany(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{directPosting()}}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	_, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.fetches)

	allStats, err := orch.Run(context.Background(), SweepOptions{ResumeHours: 24})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.fetches) // not fetched again
	assert.Equal(t, 1, allStats[0].CompaniesSkipped)
	assert.Equal(t, 0, allStats[0].CompaniesProcessed)
}

func TestRunSkipClassification(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{directPosting()}}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	allStats, err := orch.Run(context.Background(), SweepOptions{SkipClassification: true})
	require.NoError(t, err)

	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 1, allStats[0].JobsWrittenRaw)
	assert.Equal(t, 0, allStats[0].JobsWrittenEnriched)
}

func TestRunThinDescriptionSkipped(t *testing.T) {
	thin := directPosting()
	thin.Metadata = nil // no structured hints, so the 50-char gate applies
	thin.RawText = strings.Repeat("x", 40)

	provider := &stubProvider{response: classifierResponse}
	fetcher := &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{thin}}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{models.SourceGreenhouse: fetcher})

	allStats, err := orch.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 1, allStats[0].JobsSkippedThin)
	assert.Equal(t, 1, allStats[0].JobsWrittenRaw) // the raw observation is still recorded
}

func TestRunMergesAggregatorStream(t *testing.T) {
	direct := directPosting()
	aggregator := models.RawPosting{
		Source:     models.SourceAdzuna,
		PostingURL: "https://www.adzuna.co.uk/jobs/details/9001",
		Title:      direct.Title,
		Company:    direct.Company,
		CityHint:   direct.CityHint,
		RawText:    strings.Repeat(direct.RawText+" ", 2), // materially longer variant
		Metadata:   map[string]string{models.HintCategory: "IT Jobs"},
	}

	provider := &stubProvider{response: classifierResponse}
	orch, store := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{
		models.SourceGreenhouse: &fakeFetcher{source: models.SourceGreenhouse, postings: []models.RawPosting{direct}},
		models.SourceAdzuna:     &fakeFetcher{source: models.SourceAdzuna, postings: []models.RawPosting{aggregator}},
	})

	allStats, err := orch.Run(context.Background(), SweepOptions{CityCode: "lon"})
	require.NoError(t, err)
	require.Len(t, allStats, 2)

	// the direct row carries the merge outcome
	id, err := store.RawStorage().RowID(models.SourceGreenhouse, direct.PostingURL)
	require.NoError(t, err)
	enriched, err := store.EnrichedStorage().Get(id)
	require.NoError(t, err)
	require.NotNil(t, enriched)

	assert.True(t, enriched.Deduplicated)
	assert.Equal(t, models.SourceAdzuna, enriched.DescriptionSource)
	assert.Equal(t, direct.RawText, enriched.AltDescription)
}

func TestResolveSourcesOrderAndFilter(t *testing.T) {
	provider := &stubProvider{response: classifierResponse}
	orch, _ := setupOrchestrator(t, provider, map[models.Source]fetchers.Fetcher{
		models.SourceAdzuna:     &fakeFetcher{source: models.SourceAdzuna},
		models.SourceGreenhouse: &fakeFetcher{source: models.SourceGreenhouse},
	})

	// direct sources always precede the aggregator
	assert.Equal(t,
		[]models.Source{models.SourceGreenhouse, models.SourceAdzuna},
		orch.resolveSources(nil))

	assert.Equal(t,
		[]models.Source{models.SourceAdzuna},
		orch.resolveSources([]models.Source{models.SourceAdzuna}))

	// sources without an enabled fetcher are dropped
	assert.Empty(t, orch.resolveSources([]models.Source{models.SourceLever}))
}
