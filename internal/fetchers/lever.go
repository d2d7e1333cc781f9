package fetchers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const (
	leverBaseURL   = "https://api.lever.co"
	leverEUBaseURL = "https://api.eu.lever.co"
)

// LeverFetcher reads the Lever Postings API:
// GET /v0/postings/{slug}?mode=json on the global or EU base URL.
type LeverFetcher struct {
	client    *Client
	logger    arbor.ILogger
	baseURL   string
	euBaseURL string
}

type leverPosting struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	HostedURL     string `json:"hostedUrl"`
	WorkplaceType string `json:"workplaceType"` // onsite|hybrid|remote|unspecified
	Categories    struct {
		Team       string `json:"team"`
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
	Description      string `json:"description"`
}

// NewLeverFetcher creates a Lever postings fetcher
func NewLeverFetcher(cfg common.SourceConfig, logger arbor.ILogger) *LeverFetcher {
	return &LeverFetcher{
		client:    NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:    logger,
		baseURL:   leverBaseURL,
		euBaseURL: leverEUBaseURL,
	}
}

func (f *LeverFetcher) Source() models.Source {
	return models.SourceLever
}

func (f *LeverFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	base := f.baseURL
	if ref.Instance == "eu" {
		base = f.euBaseURL
	}
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", base, ref.Slug)

	var items []leverPosting
	if err := f.client.GetJSON(ctx, url, nil, &items); err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("slug", ref.Slug).Str("error", stats.Error).Msg("Lever fetch failed")
		return nil, stats
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, 0, len(items))
	for _, item := range items {
		stats.Scraped++

		if !opts.Filters.Keep(item.Text, item.Categories.Location) {
			stats.Filtered++
			continue
		}

		metadata := map[string]string{}
		if item.Categories.Team != "" {
			metadata[models.HintTeam] = item.Categories.Team
		}
		if item.Categories.Commitment != "" {
			metadata[models.HintCommitment] = item.Categories.Commitment
		}
		// "unspecified" is Lever's null; forwarding it would defeat the
		// classifier's working-arrangement fallback
		if item.WorkplaceType != "" && item.WorkplaceType != "unspecified" {
			metadata[models.HintWorkplaceType] = item.WorkplaceType
		}

		rawText := item.DescriptionPlain
		if rawText == "" {
			rawText = StripHTML(item.Description)
		}
		if md := MarkdownFromHTML(item.Description); md != "" {
			metadata[models.HintDescriptionMD] = md
		}

		p := models.RawPosting{
			Source:      models.SourceLever,
			PostingURL:  item.HostedURL,
			SourceJobID: item.ID,
			Title:       item.Text,
			Company:     ref.DisplayName,
			RawText:     rawText,
			CityHint:    item.Categories.Location,
			Metadata:    metadata,
		}
		finalizePosting(&p, now)
		postings = append(postings, p)
		stats.Kept++
	}

	return postings, stats
}
