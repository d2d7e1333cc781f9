package fetchers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const ashbyBaseURL = "https://api.ashbyhq.com"

// AshbyFetcher reads the Ashby Posting API:
// GET /posting-api/job-board/{slug}?includeCompensation=true.
// Compensation arrives in three API variants; extraction tries structured
// summary components, then tier components, then the tier summary string.
type AshbyFetcher struct {
	client  *Client
	logger  arbor.ILogger
	baseURL string
}

type ashbyCompComponent struct {
	CompensationType string  `json:"compensationType"`
	MinValue         float64 `json:"minValue"`
	MaxValue         float64 `json:"maxValue"`
	CurrencyCode     string  `json:"currencyCode"`
}

type ashbyCompensation struct {
	CompensationTierSummary string               `json:"compensationTierSummary"`
	SummaryComponents       []ashbyCompComponent `json:"summaryComponents"`
	CompensationTiers       []struct {
		Components []ashbyCompComponent `json:"components"`
	} `json:"compensationTiers"`
}

type ashbyJob struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Location        string `json:"location"`
	Department      string `json:"department"`
	Team            string `json:"team"`
	IsRemote        bool   `json:"isRemote"`
	DescriptionHTML string `json:"descriptionHtml"`
	JobURL          string `json:"jobUrl"`
	Address         struct {
		PostalAddress struct {
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
			AddressCountry  string `json:"addressCountry"`
		} `json:"postalAddress"`
	} `json:"address"`
	Compensation *ashbyCompensation `json:"compensation"`
}

type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// ashbyTierSummaryPattern parses strings like "£80K – £110K" or "$90,000 - $120,000"
var ashbyTierSummaryPattern = regexp.MustCompile(`([£$€])([\d,.]+)(K?)\s*[–-]\s*[£$€]?([\d,.]+)(K?)`)

var currencyBySymbol = map[string]string{"£": "GBP", "$": "USD", "€": "EUR"}

// NewAshbyFetcher creates an Ashby job-board fetcher
func NewAshbyFetcher(cfg common.SourceConfig, logger arbor.ILogger) *AshbyFetcher {
	return &AshbyFetcher{
		client:  NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:  logger,
		baseURL: ashbyBaseURL,
	}
}

func (f *AshbyFetcher) Source() models.Source {
	return models.SourceAshby
}

func (f *AshbyFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	url := fmt.Sprintf("%s/posting-api/job-board/%s?includeCompensation=true", f.baseURL, ref.Slug)
	var resp ashbyResponse
	if err := f.client.GetJSON(ctx, url, nil, &resp); err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("slug", ref.Slug).Str("error", stats.Error).Msg("Ashby fetch failed")
		return nil, stats
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		stats.Scraped++

		if !opts.Filters.Keep(job.Title, job.Location) {
			stats.Filtered++
			continue
		}

		metadata := map[string]string{
			models.HintIsRemote: strconv.FormatBool(job.IsRemote),
		}
		if job.Department != "" {
			metadata[models.HintDepartment] = job.Department
		}
		if job.Team != "" {
			metadata[models.HintTeam] = job.Team
		}
		addr := job.Address.PostalAddress
		if addr.AddressLocality != "" {
			metadata[models.HintCity] = addr.AddressLocality
		}
		if addr.AddressRegion != "" {
			metadata[models.HintRegion] = addr.AddressRegion
		}
		if addr.AddressCountry != "" {
			metadata[models.HintCountryCode] = addr.AddressCountry
		}
		applyAshbyCompensation(job.Compensation, metadata)
		if md := MarkdownFromHTML(job.DescriptionHTML); md != "" {
			metadata[models.HintDescriptionMD] = md
		}

		p := models.RawPosting{
			Source:      models.SourceAshby,
			PostingURL:  job.JobURL,
			SourceJobID: job.ID,
			Title:       job.Title,
			Company:     ref.DisplayName,
			RawText:     StripHTML(job.DescriptionHTML),
			CityHint:    job.Location,
			Metadata:    metadata,
		}
		finalizePosting(&p, now)
		postings = append(postings, p)
		stats.Kept++
	}

	return postings, stats
}

// applyAshbyCompensation tries the three extraction methods in order of
// reliability and writes the salary hints on first success.
func applyAshbyCompensation(comp *ashbyCompensation, metadata map[string]string) {
	if comp == nil {
		return
	}

	// Method 1: structured summary components
	if setSalaryFromComponents(comp.SummaryComponents, metadata) {
		return
	}

	// Method 2: first tier's components
	if len(comp.CompensationTiers) > 0 {
		if setSalaryFromComponents(comp.CompensationTiers[0].Components, metadata) {
			return
		}
	}

	// Method 3: parse the human-readable tier summary
	m := ashbyTierSummaryPattern.FindStringSubmatch(comp.CompensationTierSummary)
	if m == nil {
		return
	}
	min := parseAshbyAmount(m[2], m[3])
	max := parseAshbyAmount(m[4], m[5])
	if min <= 0 || max <= 0 {
		return
	}
	metadata[models.HintSalaryMin] = strconv.FormatFloat(min, 'f', 2, 64)
	metadata[models.HintSalaryMax] = strconv.FormatFloat(max, 'f', 2, 64)
	if code, ok := currencyBySymbol[m[1]]; ok {
		metadata[models.HintSalaryCurrency] = code
	}
}

func setSalaryFromComponents(components []ashbyCompComponent, metadata map[string]string) bool {
	for _, c := range components {
		if !strings.EqualFold(c.CompensationType, "Salary") || c.MaxValue <= 0 {
			continue
		}
		metadata[models.HintSalaryMin] = strconv.FormatFloat(c.MinValue, 'f', 2, 64)
		metadata[models.HintSalaryMax] = strconv.FormatFloat(c.MaxValue, 'f', 2, 64)
		if c.CurrencyCode != "" {
			metadata[models.HintSalaryCurrency] = c.CurrencyCode
		}
		return true
	}
	return false
}

func parseAshbyAmount(value, kSuffix string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0
	}
	if kSuffix != "" {
		v *= 1000
	}
	return v
}
