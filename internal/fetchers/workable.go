package fetchers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const workableBaseURL = "https://www.workable.com"

// WorkableFetcher reads the Workable Accounts API:
// GET /api/accounts/{slug}?details=true. Workplace type arrives either as
// the workplace_type enum or as the legacy telecommuting boolean.
type WorkableFetcher struct {
	client  *Client
	logger  arbor.ILogger
	baseURL string
}

type workableSalary struct {
	SalaryFrom     float64 `json:"salary_from"`
	SalaryTo       float64 `json:"salary_to"`
	SalaryCurrency string  `json:"salary_currency"`
}

type workableJob struct {
	Title          string          `json:"title"`
	Shortcode      string          `json:"shortcode"`
	URL            string          `json:"url"`
	Department     string          `json:"department"`
	City           string          `json:"city"`
	CountryCode    string          `json:"country_code"`
	Telecommuting  bool            `json:"telecommuting"`
	WorkplaceType  string          `json:"workplace_type"` // on_site|hybrid|remote
	EmploymentType string          `json:"employment_type"`
	Description    string          `json:"description"`
	Salary         *workableSalary `json:"salary"`
}

type workableResponse struct {
	Name string        `json:"name"`
	Jobs []workableJob `json:"jobs"`
}

// NewWorkableFetcher creates a Workable accounts fetcher
func NewWorkableFetcher(cfg common.SourceConfig, logger arbor.ILogger) *WorkableFetcher {
	return &WorkableFetcher{
		client:  NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:  logger,
		baseURL: workableBaseURL,
	}
}

func (f *WorkableFetcher) Source() models.Source {
	return models.SourceWorkable
}

func (f *WorkableFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	url := fmt.Sprintf("%s/api/accounts/%s?details=true", f.baseURL, ref.Slug)
	var resp workableResponse
	if err := f.client.GetJSON(ctx, url, nil, &resp); err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("slug", ref.Slug).Str("error", stats.Error).Msg("Workable fetch failed")
		return nil, stats
	}

	company := ref.DisplayName
	if company == "" {
		company = resp.Name
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		stats.Scraped++

		location := job.City
		if location == "" {
			location = job.CountryCode
		}
		if !opts.Filters.Keep(job.Title, location) {
			stats.Filtered++
			continue
		}

		metadata := map[string]string{}
		switch {
		case job.WorkplaceType != "":
			metadata[models.HintWorkplaceType] = normalizeWorkableArrangement(job.WorkplaceType)
		case job.Telecommuting:
			metadata[models.HintWorkplaceType] = "remote"
		}
		if job.Department != "" {
			metadata[models.HintDepartment] = job.Department
		}
		if job.EmploymentType != "" {
			metadata[models.HintEmploymentType] = job.EmploymentType
		}
		if job.CountryCode != "" {
			metadata[models.HintCountryCode] = job.CountryCode
		}
		if job.Salary != nil && job.Salary.SalaryTo > 0 {
			metadata[models.HintSalaryMin] = strconv.FormatFloat(job.Salary.SalaryFrom, 'f', 2, 64)
			metadata[models.HintSalaryMax] = strconv.FormatFloat(job.Salary.SalaryTo, 'f', 2, 64)
			metadata[models.HintSalaryCurrency] = job.Salary.SalaryCurrency
		}
		if md := MarkdownFromHTML(job.Description); md != "" {
			metadata[models.HintDescriptionMD] = md
		}

		p := models.RawPosting{
			Source:      models.SourceWorkable,
			PostingURL:  job.URL,
			SourceJobID: job.Shortcode,
			Title:       job.Title,
			Company:     company,
			RawText:     StripHTML(job.Description),
			CityHint:    job.City,
			Metadata:    metadata,
		}
		finalizePosting(&p, now)
		postings = append(postings, p)
		stats.Kept++
	}

	return postings, stats
}

// normalizeWorkableArrangement maps Workable's enum onto the shared hint values
func normalizeWorkableArrangement(wt string) string {
	switch wt {
	case "on_site":
		return "onsite"
	default:
		return wt
	}
}
