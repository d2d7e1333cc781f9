package fetchers

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

const googleFeedURL = "https://careers.google.com/jobs/feed.xml"

// GoogleFetcher reads the Google Careers XML feed: a single URL with a
// custom schema and nested <locations>. No structured salary field exists,
// so the band is regex-parsed from the description when present.
type GoogleFetcher struct {
	client  *Client
	logger  arbor.ILogger
	feedURL string
}

type googleLocation struct {
	City    string `xml:"city"`
	Country string `xml:"country"`
}

type googleJob struct {
	ID          string           `xml:"id"`
	Title       string           `xml:"title"`
	Description string           `xml:"description"`
	URL         string           `xml:"url"`
	Category    string           `xml:"category"`
	Locations   []googleLocation `xml:"locations>location"`
}

type googleFeed struct {
	XMLName xml.Name    `xml:"jobs"`
	Jobs    []googleJob `xml:"job"`
}

// googleSalaryPattern picks up bands like "$140,000-$210,000" or
// "£95,000 - £130,000" quoted in descriptions.
var googleSalaryPattern = regexp.MustCompile(`([£$€])([\d,]{4,})\s*[-–—]\s*[£$€]?([\d,]{4,})`)

// NewGoogleFetcher creates a Google Careers feed fetcher
func NewGoogleFetcher(cfg common.SourceConfig, logger arbor.ILogger) *GoogleFetcher {
	return &GoogleFetcher{
		client:  NewClient(cfg.RequestDelay, cfg.RequestTimeout, logger),
		logger:  logger,
		feedURL: googleFeedURL,
	}
}

func (f *GoogleFetcher) Source() models.Source {
	return models.SourceGoogle
}

func (f *GoogleFetcher) Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats) {
	var stats models.FetchStats

	body, err := f.client.GetBytes(ctx, f.feedURL, map[string]string{"Accept": "application/xml"})
	if err != nil {
		stats.Error = FetchErrorLabel(err)
		f.logger.Warn().Str("error", stats.Error).Msg("Google feed fetch failed")
		return nil, stats
	}

	var feed googleFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		stats.Error = ErrInvalidResponse
		f.logger.Warn().Err(err).Msg("Google feed parse failed")
		return nil, stats
	}

	now := time.Now().UTC()
	postings := make([]models.RawPosting, 0, len(feed.Jobs))
	for _, job := range feed.Jobs {
		stats.Scraped++

		location := formatGoogleLocations(job.Locations)
		if !opts.Filters.Keep(job.Title, location) {
			stats.Filtered++
			continue
		}

		rawText := StripHTML(job.Description)

		metadata := map[string]string{}
		if job.Category != "" {
			metadata[models.HintCategory] = job.Category
		}
		if len(job.Locations) > 0 {
			if job.Locations[0].City != "" {
				metadata[models.HintCity] = job.Locations[0].City
			}
			if job.Locations[0].Country != "" {
				metadata[models.HintCountryCode] = job.Locations[0].Country
			}
		}
		applyGoogleSalary(rawText, metadata)

		p := models.RawPosting{
			Source:      models.SourceGoogle,
			PostingURL:  job.URL,
			SourceJobID: job.ID,
			Title:       job.Title,
			Company:     ref.DisplayName,
			RawText:     rawText,
			CityHint:    location,
			Metadata:    metadata,
		}
		finalizePosting(&p, now)
		postings = append(postings, p)
		stats.Kept++
	}

	return postings, stats
}

func formatGoogleLocations(locations []googleLocation) string {
	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		switch {
		case loc.City != "" && loc.Country != "":
			parts = append(parts, fmt.Sprintf("%s, %s", loc.City, loc.Country))
		case loc.City != "":
			parts = append(parts, loc.City)
		case loc.Country != "":
			parts = append(parts, loc.Country)
		}
	}
	return strings.Join(parts, "; ")
}

func applyGoogleSalary(text string, metadata map[string]string) {
	m := googleSalaryPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	min, err1 := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	max, err2 := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", ""), 64)
	if err1 != nil || err2 != nil || min <= 0 || max < min {
		return
	}
	metadata[models.HintSalaryMin] = strconv.FormatFloat(min, 'f', 2, 64)
	metadata[models.HintSalaryMax] = strconv.FormatFloat(max, 'f', 2, 64)
	if code, ok := currencyBySymbol[m[1]]; ok {
		metadata[models.HintSalaryCurrency] = code
	}
}
