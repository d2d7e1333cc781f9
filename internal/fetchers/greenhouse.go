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

const greenhouseBaseURL = "https://boards-api.greenhouse.io"

// GreenhouseFetcher reads the Greenhouse Job Board API:
// GET /v1/boards/{slug}/jobs?content=true. Pay ranges arrive as cents.
type GreenhouseFetcher struct {
	client  *Client
	logger  arbor.ILogger
	baseURL string
}

type greenhousePayRange struct {
	MinCents     int64  `json:"min_cents"`
	MaxCents     int64  `json:"max_cents"`
	CurrencyType string `json:"currency_type"`
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
	PayInputRanges []greenhousePayRange `json:"pay_input_ranges"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// NewGreenhouseFetcher creates a Greenhouse board fetcher
func NewGreenhouseFetcher(cfg common.SourceConfig, logger arbor.ILogger) *GreenhouseFetcher {
	return &GreenhouseFetcher{
		client:  NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:  logger,
		baseURL: greenhouseBaseURL,
	}
}

func (f *GreenhouseFetcher) Source() models.Source {
	return models.SourceGreenhouse
}

func (f *GreenhouseFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	url := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", f.baseURL, ref.Slug)
	var resp greenhouseResponse
	if err := f.client.GetJSON(ctx, url, nil, &resp); err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("slug", ref.Slug).Str("error", stats.Error).Msg("Greenhouse fetch failed")
		return nil, stats
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		stats.Scraped++

		if !opts.Filters.Keep(job.Title, job.Location.Name) {
			stats.Filtered++
			continue
		}

		metadata := map[string]string{}
		if len(job.Departments) > 0 && job.Departments[0].Name != "" {
			metadata[models.HintDepartment] = job.Departments[0].Name
		}
		if len(job.PayInputRanges) > 0 {
			r := job.PayInputRanges[0]
			if r.MaxCents > 0 {
				metadata[models.HintSalaryMin] = strconv.FormatFloat(float64(r.MinCents)/100, 'f', 2, 64)
				metadata[models.HintSalaryMax] = strconv.FormatFloat(float64(r.MaxCents)/100, 'f', 2, 64)
				metadata[models.HintSalaryCurrency] = r.CurrencyType
			}
		}
		if md := MarkdownFromHTML(job.Content); md != "" {
			metadata[models.HintDescriptionMD] = md
		}

		p := models.RawPosting{
			Source:      models.SourceGreenhouse,
			PostingURL:  job.AbsoluteURL,
			SourceJobID: strconv.FormatInt(job.ID, 10),
			Title:       job.Title,
			Company:     ref.DisplayName,
			RawText:     StripHTML(job.Content),
			CityHint:    job.Location.Name,
			Metadata:    metadata,
		}
		finalizePosting(&p, now)
		postings = append(postings, p)
		stats.Kept++
	}

	return postings, stats
}
