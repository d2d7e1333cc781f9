package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/agency"
	"github.com/ternarybob/laboro/internal/classifier"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/fetchers"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/storage"
	"github.com/ternarybob/laboro/internal/taxonomy"
)

// progressInterval is how many companies pass between ETA log lines
const progressInterval = 10

// SweepOptions parameterizes one Run invocation. Zero values defer to config.
type SweepOptions struct {
	Sources              []models.Source
	CityCode             string
	MaxJobs              int
	Companies            []string // restrict to these slugs
	MinDescriptionLength int
	ResumeHours          int
	SkipClassification   bool // debug: stop after the raw write
	SkipStorage          bool // debug: no database writes at all
}

// Orchestrator drives a sweep: fetch, raw upsert, agency filter, classify,
// map, validate, enriched upsert. Companies are processed serially within a
// source; each posting walks the state machine independently and a failure
// never aborts the sweep.
type Orchestrator struct {
	config    *common.Config
	fetchers  map[models.Source]fetchers.Fetcher
	filters   *fetchers.FilterTable
	employers *fetchers.EmployerMap
	store     *storage.Manager
	detector  *agency.Detector
	gateway   *classifier.Gateway
	mapper    *taxonomy.Mapper
	logger    arbor.ILogger
}

// NewOrchestrator wires the pipeline components together
func NewOrchestrator(
	config *common.Config,
	fetcherSet map[models.Source]fetchers.Fetcher,
	filters *fetchers.FilterTable,
	employers *fetchers.EmployerMap,
	store *storage.Manager,
	detector *agency.Detector,
	gateway *classifier.Gateway,
	mapper *taxonomy.Mapper,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		config:    config,
		fetchers:  fetcherSet,
		filters:   filters,
		employers: employers,
		store:     store,
		detector:  detector,
		gateway:   gateway,
		mapper:    mapper,
		logger:    logger,
	}
}

// Run sweeps the requested sources in order. Direct-ATS sources run before
// the aggregator; when both sides produced postings in the same sweep the
// streams are merged and dedup winners re-written.
func (o *Orchestrator) Run(ctx context.Context, opts SweepOptions) ([]models.SweepStats, error) {
	sources := o.resolveSources(opts.Sources)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled sources match the request")
	}
	if opts.MinDescriptionLength <= 0 {
		opts.MinDescriptionLength = o.config.Pipeline.MinDescriptionLength
	}

	var (
		allStats   []models.SweepStats
		direct     []Candidate
		aggregator []Candidate
	)

	for _, source := range sources {
		if ctx.Err() != nil {
			return allStats, ctx.Err()
		}

		stats, candidates, err := o.runSource(ctx, source, opts)
		allStats = append(allStats, stats)
		if err != nil {
			return allStats, err
		}

		if source == models.SourceAdzuna {
			aggregator = append(aggregator, candidates...)
		} else {
			direct = append(direct, candidates...)
		}
	}

	if len(direct) > 0 && len(aggregator) > 0 {
		o.mergeStreams(direct, aggregator, opts.SkipStorage)
	}

	return allStats, nil
}

// resolveSources intersects the requested sources with the enabled fetchers,
// preserving sweep order.
func (o *Orchestrator) resolveSources(requested []models.Source) []models.Source {
	wanted := make(map[models.Source]bool, len(requested))
	for _, s := range requested {
		wanted[s] = true
	}

	var sources []models.Source
	for _, s := range models.AllSources {
		if _, enabled := o.fetchers[s]; !enabled {
			continue
		}
		if len(requested) > 0 && !wanted[s] {
			continue
		}
		sources = append(sources, s)
	}
	return sources
}

// runSource sweeps one source's employer list
func (o *Orchestrator) runSource(ctx context.Context, source models.Source, opts SweepOptions) (models.SweepStats, []Candidate, error) {
	fetcher := o.fetchers[source]
	acc := NewStatsAccumulator(source, opts.CityCode, o.config.Pipeline.RecentErrorCap)

	refs := o.refsForSource(fetcher, source, opts)
	acc.SetCompaniesTotal(len(refs))

	skip := o.resumeSkipSet(source, opts)

	o.logger.Info().
		Str("source", string(source)).
		Int("companies", len(refs)).
		Int("resume_skips", len(skip)).
		Msg("Starting sweep")

	fetchOpts := fetchers.Options{
		Filters:  o.filters.ForSource(source),
		MaxJobs:  opts.MaxJobs,
		CityCode: opts.CityCode,
	}

	var candidates []Candidate
	processed := 0
	skipped := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return acc.Snapshot(len(refs) - processed - skipped), candidates, ctx.Err()
		}

		if skip[ref.Slug] || skip[ref.DisplayName] {
			skipped++
			acc.SkipCompany()
			o.logger.Debug().
				Str("company", ref.DisplayName).
				Msg("Recently processed, skipping")
			continue
		}

		companyCandidates := o.runCompany(ctx, fetcher, ref, fetchOpts, opts, acc)
		candidates = append(candidates, companyCandidates...)
		processed++

		if processed%progressInterval == 0 {
			remaining := len(refs) - processed
			snapshot := acc.Snapshot(remaining)
			o.logger.Info().
				Str("source", string(source)).
				Int("processed", processed).
				Int("remaining", remaining).
				Float64("eta_seconds", snapshot.ETASeconds).
				Float64("cost_usd", snapshot.CostClassification).
				Msg("Sweep progress")
		}
	}

	stats := acc.Snapshot(0)
	o.logger.Info().
		Str("source", string(source)).
		Str("sweep_id", stats.SweepID).
		Int("companies_processed", stats.CompaniesProcessed).
		Int("companies_skipped", stats.CompaniesSkipped).
		Int("jobs_kept", stats.JobsKept).
		Int("jobs_classified", stats.JobsClassified).
		Int("jobs_duplicate", stats.JobsDuplicate).
		Int("jobs_agency_filtered", stats.JobsAgencyFiltered).
		Float64("cost_usd", stats.CostClassification).
		Float64("cost_saved_usd", stats.CostSavedFiltering).
		Int("errors", stats.Errors).
		Msg("Sweep complete")

	return stats, candidates, nil
}

// refsForSource returns the employer list for a source. The aggregator has no
// employer list; its configured queries act as pseudo-employers.
func (o *Orchestrator) refsForSource(fetcher fetchers.Fetcher, source models.Source, opts SweepOptions) []models.EmployerRef {
	if adzuna, ok := fetcher.(*fetchers.AdzunaFetcher); ok {
		return adzuna.QueryRefs()
	}
	return o.employers.Restrict(source, opts.Companies)
}

// resumeSkipSet unions the two resume signals: companies with a raw row seen
// inside the window, and slugs with a checkpoint inside the window. Either is
// enough to bulk-skip the employer.
func (o *Orchestrator) resumeSkipSet(source models.Source, opts SweepOptions) map[string]bool {
	hours := opts.ResumeHours
	if hours <= 0 {
		hours = o.config.Pipeline.ResumeWindowHours
	}
	if hours <= 0 || opts.SkipStorage {
		return nil
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	skip := make(map[string]bool)

	companies, err := o.store.RawStorage().CompaniesSeenSince(source, since)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Resume lookup against raw store failed")
	} else {
		for name := range companies {
			skip[name] = true
		}
	}

	slugs, err := o.store.CheckpointStorage().SlugsProcessedSince(source, since)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Resume lookup against checkpoints failed")
	} else {
		for slug := range slugs {
			skip[slug] = true
		}
	}

	return skip
}

// runCompany fetches and processes one employer, folding the outcome into
// the accumulator and checkpointing on completion.
func (o *Orchestrator) runCompany(
	ctx context.Context,
	fetcher fetchers.Fetcher,
	ref models.EmployerRef,
	fetchOpts fetchers.Options,
	opts SweepOptions,
	acc *StatsAccumulator,
) []Candidate {
	start := time.Now()
	cs := models.CompanyStats{Company: ref.DisplayName}

	postings, fstats := fetcher.Fetch(ctx, ref, fetchOpts)
	cs.Scraped = fstats.Scraped
	cs.Kept = fstats.Kept
	if fstats.Error != "" {
		acc.RecordError(fmt.Sprintf("%s: fetch: %s", ref.DisplayName, fstats.Error))
		o.logger.Warn().
			Str("company", ref.DisplayName).
			Str("error", fstats.Error).
			Msg("Fetch failed")
	}

	var candidates []Candidate
	for i := range postings {
		if ctx.Err() != nil {
			break
		}
		candidate, err := o.processPosting(ctx, &postings[i], opts, &cs)
		if err != nil {
			if kind, ok := Terminal(err); ok {
				switch kind {
				case ClassifyError, TransportError, UpsertError:
					acc.RecordError(err.Error())
					o.logger.Warn().Err(err).Str("company", ref.DisplayName).Msg("Posting failed")
				}
			}
			continue
		}
		if candidate != nil {
			candidates = append(candidates, *candidate)
		}
	}

	if !opts.SkipStorage && ctx.Err() == nil {
		checkpoint := &models.CheckpointRecord{
			Source:      fetcher.Source(),
			Slug:        ref.Slug,
			ProcessedAt: time.Now().UTC(),
			JobCount:    cs.Kept,
		}
		if err := o.store.CheckpointStorage().Save(checkpoint); err != nil {
			acc.RecordError(fmt.Sprintf("%s: checkpoint: %v", ref.Slug, err))
		}
	}

	cs.Elapsed = time.Since(start).Seconds()
	acc.AddCompany(cs)
	acc.AddSavedCost(cs.AgencyFiltered, o.gateway.UnitCost())

	o.logger.Info().
		Str("company", ref.DisplayName).
		Int("scraped", cs.Scraped).
		Int("kept", cs.Kept).
		Int("duplicate", cs.Duplicate).
		Int("classified", cs.Classified).
		Int("agency_filtered", cs.AgencyFiltered).
		Float64("elapsed_seconds", cs.Elapsed).
		Msg("Company processed")

	return candidates
}

// processPosting walks one posting through the state machine. Counters are
// updated here; the returned error carries the terminal kind for anything
// short of a completed enrichment.
func (o *Orchestrator) processPosting(ctx context.Context, raw *models.RawPosting, opts SweepOptions, cs *models.CompanyStats) (*Candidate, error) {
	now := time.Now().UTC()

	rowID := common.NewJobID()
	if !opts.SkipStorage {
		result, err := o.store.RawStorage().Upsert(raw)
		if err != nil {
			return nil, &PostingError{Kind: UpsertError, PostingURL: raw.PostingURL, Err: err}
		}
		rowID = result.RowID

		// unchanged content keeps its existing classification; the upsert
		// only touched last_seen_date, so it does not count as a raw write
		if result.WasDuplicate {
			cs.Duplicate++
			return nil, &PostingError{Kind: SkippedDuplicate, PostingURL: raw.PostingURL}
		}
		cs.WrittenRaw++
	}

	// hard agency verdicts never reach the classifier; the enriched row is
	// still written so the posting stays visible with its agency label
	if o.detector.IsHardAgency(raw.Company) {
		cs.AgencyFiltered++
		enriched := &models.EnrichedPosting{
			RawJobID:         rowID,
			EmployerName:     raw.Company,
			TitleDisplay:     raw.Title,
			IsAgency:         true,
			AgencyConfidence: models.ConfidenceHigh,
			DataSource:       raw.Source,
			LastSeenDate:     now,
		}
		if !opts.SkipStorage {
			if err := o.store.EnrichedStorage().Upsert(enriched); err != nil {
				return nil, &PostingError{Kind: UpsertError, PostingURL: raw.PostingURL, Err: err}
			}
			cs.WrittenEnriched++
		}
		return nil, &PostingError{Kind: FilteredAgency, PostingURL: raw.PostingURL}
	}

	if opts.SkipClassification {
		return nil, nil
	}

	if opts.MinDescriptionLength > 0 && len(raw.RawText) < opts.MinDescriptionLength {
		cs.SkippedThin++
		return nil, &PostingError{Kind: SkippedThin, PostingURL: raw.PostingURL}
	}

	classification, err := o.gateway.Classify(ctx, raw)
	if err != nil {
		switch {
		case classifier.IsKind(err, classifier.KindContentTooShort):
			cs.SkippedThin++
			return nil, &PostingError{Kind: SkippedThin, PostingURL: raw.PostingURL, Err: err}
		case classifier.IsKind(err, classifier.KindRateLimited), classifier.IsKind(err, classifier.KindTransportError):
			cs.ClassifyErrors++
			return nil, &PostingError{Kind: TransportError, PostingURL: raw.PostingURL, Err: err}
		default:
			cs.ClassifyErrors++
			return nil, &PostingError{Kind: ClassifyError, PostingURL: raw.PostingURL, Err: err}
		}
	}
	cs.Classified++
	cs.CostUSD += classification.Cost.CostUSD

	o.mapper.Apply(classification, raw)

	verdict := o.detector.Validate(raw.Company, raw.RawText, models.AgencyVerdict{
		IsAgency:   classification.Employer.IsAgency,
		Confidence: classification.Employer.AgencyConfidence,
	})

	enriched := o.buildEnriched(rowID, raw, classification, verdict, now)

	if !opts.SkipStorage {
		if err := o.store.EnrichedStorage().Upsert(enriched); err != nil {
			return nil, &PostingError{Kind: UpsertError, PostingURL: raw.PostingURL, Err: err}
		}
		cs.WrittenEnriched++
	}

	return &Candidate{Raw: raw, Enriched: enriched}, nil
}

// buildEnriched assembles the enriched row from the corrected classification
func (o *Orchestrator) buildEnriched(
	rowID string,
	raw *models.RawPosting,
	c *models.Classification,
	verdict models.AgencyVerdict,
	now time.Time,
) *models.EnrichedPosting {
	enriched := &models.EnrichedPosting{
		RawJobID:           rowID,
		EmployerName:       raw.Company,
		TitleDisplay:       raw.Title,
		JobFamily:          c.Role.JobFamily,
		JobSubfamily:       c.Role.JobSubfamily,
		Seniority:          c.Role.Seniority,
		Track:              c.Role.Track,
		PositionType:       c.Role.PositionType,
		ExperienceRange:    c.Role.ExperienceRange,
		WorkingArrangement: c.Location.WorkingArrangement,
		Locations:          c.Location.Locations,
		EmployerDepartment: c.Employer.Department,
		EmployerSize:       c.Employer.Size,
		IsAgency:           verdict.IsAgency,
		AgencyConfidence:   verdict.Confidence,
		Currency:           c.Compensation.Currency,
		SalaryMin:          c.Compensation.SalaryMin,
		SalaryMax:          c.Compensation.SalaryMax,
		EquityEligible:     c.Compensation.EquityEligible,
		Skills:             c.Skills,
		DataSource:         raw.Source,
		LastSeenDate:       now,
		ClassifiedAt:       now,
	}

	// curated employer metadata backfills what the posting did not state
	if meta, err := o.store.EmployerStorage().Get(raw.Company); err == nil && meta != nil {
		if enriched.EmployerSize == "" {
			enriched.EmployerSize = meta.Size
		}
		if enriched.EmployerDepartment == "" {
			enriched.EmployerDepartment = meta.Department
		}
	}

	return enriched
}

// mergeStreams collapses the direct and aggregator candidate lists and
// re-writes the enriched rows the merge touched.
func (o *Orchestrator) mergeStreams(direct, aggregator []Candidate, skipStorage bool) {
	merged, stats := Merge(direct, aggregator)

	o.logger.Info().
		Int("direct_only", stats.DirectOnly).
		Int("aggregator_only", stats.AggregatorOnly).
		Int("deduplicated", stats.Deduplicated).
		Float64("dedup_rate", stats.DedupRate).
		Float64("avg_description_length", stats.AvgDescriptionLength).
		Msg("Cross-source merge complete")

	if skipStorage {
		return
	}
	for _, c := range merged {
		if !c.Enriched.Deduplicated {
			continue
		}
		if err := o.store.EnrichedStorage().Upsert(c.Enriched); err != nil {
			o.logger.Warn().
				Err(err).
				Str("posting_url", c.Raw.PostingURL).
				Msg("Dedup re-write failed")
		}
	}
}
