package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api"
	adzunaPageSize = 50
)

// AdzunaFetcher reads the Adzuna aggregator search API. Adzuna runs a
// stricter budget than the ATS boards, so requests go through a token
// bucket rather than the fixed-delay client. Each configured query string
// acts as a pseudo-employer: the slug is the query.
type AdzunaFetcher struct {
	client  *Client
	limiter *rate.Limiter
	logger  arbor.ILogger
	config  common.AdzunaConfig
	baseURL string
}

type adzunaResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
	SalaryMin         float64         `json:"salary_min"`
	SalaryMax         float64         `json:"salary_max"`
	SalaryIsPredicted json.RawMessage `json:"salary_is_predicted"` // "0"/"1", sometimes quoted
	ContractTime      string          `json:"contract_time"`
}

type adzunaResponse struct {
	Count   int            `json:"count"`
	Results []adzunaResult `json:"results"`
}

// NewAdzunaFetcher creates an aggregator fetcher with the configured
// requests-per-minute budget.
func NewAdzunaFetcher(cfg common.AdzunaConfig, logger arbor.ILogger) *AdzunaFetcher {
	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 24
	}
	return &AdzunaFetcher{
		client:  NewClient(0, timeout, logger),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:  logger,
		config:  cfg,
		baseURL: adzunaBaseURL,
	}
}

func (f *AdzunaFetcher) Source() models.Source {
	return models.SourceAdzuna
}

// QueryRefs exposes the configured query strings as pseudo-employer refs so
// the orchestrator can checkpoint and resume per query.
func (f *AdzunaFetcher) QueryRefs() []models.EmployerRef {
	refs := make([]models.EmployerRef, 0, len(f.config.Queries))
	for _, q := range f.config.Queries {
		refs = append(refs, models.EmployerRef{
			Source:      models.SourceAdzuna,
			DisplayName: q,
			Slug:        q,
		})
	}
	return refs
}

func (f *AdzunaFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	city, ok := f.config.Cities[opts.CityCode]
	if !ok {
		stats.Error = fmt.Sprintf("unknown city code %q", opts.CityCode)
		return nil, stats
	}

	maxJobs := opts.MaxJobs
	if maxJobs <= 0 {
		maxJobs = adzunaPageSize
	}

	now := time.Now().UTC()
	var postings []models.RawPosting

	for page := 1; len(postings) < maxJobs; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			stats.Error = FetchErrorLabel(err)
			return postings, stats
		}

		params := url.Values{}
		params.Set("app_id", f.config.AppID)
		params.Set("app_key", f.config.AppKey)
		params.Set("what", ref.Slug)
		params.Set("where", city.Location)
		params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
		params.Set("content-type", "application/json")

		reqURL := fmt.Sprintf("%s/jobs/%s/search/%d?%s", f.baseURL, city.Country, page, params.Encode())
		var resp adzunaResponse
		if err := f.client.GetJSON(ctx, reqURL, nil, &resp); err != nil {
			stats.Error = FetchErrorLabel(err)
			f.logger.Warn().Str("query", ref.Slug).Str("error", stats.Error).Msg("Adzuna fetch failed")
			return postings, stats
		}
		if len(resp.Results) == 0 {
			break
		}

		for _, r := range resp.Results {
			stats.Scraped++
			if len(postings) >= maxJobs {
				break
			}
			if !opts.Filters.Keep(r.Title, r.Location.DisplayName) {
				stats.Filtered++
				continue
			}

			metadata := map[string]string{
				models.HintCategory:        r.Category.Label,
				models.HintSalaryPredicted: strconv.FormatBool(adzunaPredicted(r.SalaryIsPredicted)),
			}
			if r.SalaryMax > 0 {
				metadata[models.HintSalaryMin] = strconv.FormatFloat(r.SalaryMin, 'f', 2, 64)
				metadata[models.HintSalaryMax] = strconv.FormatFloat(r.SalaryMax, 'f', 2, 64)
			}
			if r.ContractTime != "" {
				metadata[models.HintEmploymentType] = r.ContractTime
			}

			p := models.RawPosting{
				Source:      models.SourceAdzuna,
				PostingURL:  r.RedirectURL,
				SourceJobID: r.ID,
				Title:       r.Title,
				Company:     r.Company.DisplayName,
				RawText:     StripHTML(r.Description),
				CityHint:    r.Location.DisplayName,
				Metadata:    metadata,
			}
			finalizePosting(&p, now)
			postings = append(postings, p)
			stats.Kept++
		}

		if len(resp.Results) < adzunaPageSize {
			break
		}
	}

	return postings, stats
}

// adzunaPredicted decodes the salary_is_predicted flag, which the API
// returns as "1"/"0" strings or bare numbers depending on endpoint version.
func adzunaPredicted(raw json.RawMessage) bool {
	s := string(raw)
	return s == `"1"` || s == "1" || s == "true"
}
