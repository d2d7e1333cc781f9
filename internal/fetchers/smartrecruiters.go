package fetchers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const (
	smartRecruitersBaseURL  = "https://api.smartrecruiters.com"
	smartRecruitersPageSize = 100
)

// SmartRecruitersFetcher reads the SmartRecruiters Postings API with the
// list-then-detail pattern: the listing carries identity and structured
// hints, the detail call carries the job ad sections. Detail fetches run
// under the source's concurrency cap.
type SmartRecruitersFetcher struct {
	client         *Client
	logger         arbor.ILogger
	baseURL        string
	maxConcurrency int
}

type smartRecruitersListItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location struct {
		City    string `json:"city"`
		Country string `json:"country"`
		Region  string `json:"region"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	TypeOfEmployment struct {
		Label string `json:"label"`
	} `json:"typeOfEmployment"`
	ExperienceLevel struct {
		ID string `json:"id"`
	} `json:"experienceLevel"`
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
}

type smartRecruitersList struct {
	TotalFound int                       `json:"totalFound"`
	Content    []smartRecruitersListItem `json:"content"`
}

type smartRecruitersSection struct {
	Text string `json:"text"`
}

type smartRecruitersDetail struct {
	ApplyURL string `json:"applyUrl"`
	JobAd    struct {
		Sections struct {
			JobDescription        smartRecruitersSection `json:"jobDescription"`
			Qualifications        smartRecruitersSection `json:"qualifications"`
			AdditionalInformation smartRecruitersSection `json:"additionalInformation"`
		} `json:"sections"`
	} `json:"jobAd"`
}

// NewSmartRecruitersFetcher creates a SmartRecruiters postings fetcher
func NewSmartRecruitersFetcher(cfg common.SourceConfig, logger arbor.ILogger) *SmartRecruitersFetcher {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &SmartRecruitersFetcher{
		client:         NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:         logger,
		baseURL:        smartRecruitersBaseURL,
		maxConcurrency: maxConcurrency,
	}
}

func (f *SmartRecruitersFetcher) Source() models.Source {
	return models.SourceSmartRecruiters
}

func (f *SmartRecruitersFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	items, err := f.listAll(ctx, ref.Slug)
	if err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("slug", ref.Slug).Str("error", stats.Error).Msg("SmartRecruiters list failed")
		return nil, stats
	}

	var kept []smartRecruitersListItem
	for _, item := range items {
		stats.Scraped++
		if !opts.Filters.Keep(item.Name, item.Location.City) {
			stats.Filtered++
			continue
		}
		kept = append(kept, item)
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, len(kept))
	ok := make([]bool, len(kept))

	// Detail fetches parallelize up to the source cap; the shared client
	// still serializes the actual requests behind the per-source delay.
	sem := make(chan struct{}, f.maxConcurrency)
	var wg sync.WaitGroup
	for i, item := range kept {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item smartRecruitersListItem) {
			defer wg.Done()
			defer func() { <-sem }()

			posting, err := f.fetchDetail(ctx, ref, item, now)
			if err != nil {
				f.logger.Debug().Err(err).Str("posting_id", item.ID).Msg("SmartRecruiters detail fetch failed")
				return
			}
			postings[i] = posting
			ok[i] = true
		}(i, item)
	}
	wg.Wait()

	result := make([]models.RawPosting, 0, len(kept))
	for i := range postings {
		if ok[i] {
			result = append(result, postings[i])
			stats.Kept++
		}
	}

	return result, stats
}

func (f *SmartRecruitersFetcher) listAll(ctx context.Context, slug string) ([]smartRecruitersListItem, error) {
	var items []smartRecruitersListItem
	offset := 0
	for {
		url := fmt.Sprintf("%s/v1/companies/%s/postings?limit=%d&offset=%d", f.baseURL, slug, smartRecruitersPageSize, offset)
		var page smartRecruitersList
		if err := f.client.GetJSON(ctx, url, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Content...)
		offset += len(page.Content)
		if len(page.Content) == 0 || offset >= page.TotalFound {
			return items, nil
		}
	}
}

func (f *SmartRecruitersFetcher) fetchDetail(ctx context.Context, ref models.EmployerRef, item smartRecruitersListItem, now time.Time) (models.RawPosting, error) {
	url := fmt.Sprintf("%s/v1/companies/%s/postings/%s", f.baseURL, ref.Slug, item.ID)
	var detail smartRecruitersDetail
	if err := f.client.GetJSON(ctx, url, nil, &detail); err != nil {
		return models.RawPosting{}, err
	}

	sections := detail.JobAd.Sections
	var text strings.Builder
	for _, html := range []string{sections.JobDescription.Text, sections.Qualifications.Text, sections.AdditionalInformation.Text} {
		if html == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(StripHTML(html))
	}

	metadata := map[string]string{}
	if item.ExperienceLevel.ID != "" {
		metadata[models.HintExperienceLevel] = item.ExperienceLevel.ID
	}
	if item.Location.Remote {
		metadata[models.HintLocationType] = "remote"
	}
	if item.Location.Country != "" {
		metadata[models.HintCountryCode] = item.Location.Country
	}
	if item.TypeOfEmployment.Label != "" {
		metadata[models.HintEmploymentType] = item.TypeOfEmployment.Label
	}

	company := ref.DisplayName
	if company == "" {
		company = item.Company.Name
	}

	postingURL := detail.ApplyURL
	if postingURL == "" {
		postingURL = fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", ref.Slug, item.ID)
	}

	p := models.RawPosting{
		Source:      models.SourceSmartRecruiters,
		PostingURL:  postingURL,
		SourceJobID: item.ID,
		Title:       item.Name,
		Company:     company,
		RawText:     text.String(),
		CityHint:    formatSmartRecruitersLocation(item),
		Metadata:    metadata,
	}
	finalizePosting(&p, now)
	return p, nil
}

func formatSmartRecruitersLocation(item smartRecruitersListItem) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{item.Location.City, item.Location.Region, strings.ToUpper(item.Location.Country)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	loc := strings.Join(parts, ", ")
	if item.Location.Remote {
		if loc == "" {
			return "Remote"
		}
		return loc + " / Remote"
	}
	return loc
}
