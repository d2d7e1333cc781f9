package fetchers

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// Options carries sweep-scoped fetch parameters. MaxJobs bounds the
// aggregator's per-query pagination; CityCode scopes its search location.
type Options struct {
	Filters  *Filters
	MaxJobs  int
	CityCode string
}

// Fetcher retrieves and normalizes postings for one employer. Fetchers are
// pure with respect to the stores: they never persist.
type Fetcher interface {
	Source() models.Source
	Fetch(ctx context.Context, ref models.EmployerRef, opts Options) ([]models.RawPosting, models.FetchStats)
}

// NewFetchers builds the fetcher set for the enabled sources
func NewFetchers(config *common.Config, logger arbor.ILogger) map[models.Source]Fetcher {
	set := make(map[models.Source]Fetcher)

	if config.Sources.Greenhouse.Enabled {
		set[models.SourceGreenhouse] = NewGreenhouseFetcher(config.Sources.Greenhouse, logger)
	}
	if config.Sources.Lever.Enabled {
		set[models.SourceLever] = NewLeverFetcher(config.Sources.Lever, logger)
	}
	if config.Sources.Ashby.Enabled {
		set[models.SourceAshby] = NewAshbyFetcher(config.Sources.Ashby, logger)
	}
	if config.Sources.Workable.Enabled {
		set[models.SourceWorkable] = NewWorkableFetcher(config.Sources.Workable, logger)
	}
	if config.Sources.SmartRecruiters.Enabled {
		set[models.SourceSmartRecruiters] = NewSmartRecruitersFetcher(config.Sources.SmartRecruiters, logger)
	}
	if config.Sources.Google.Enabled {
		set[models.SourceGoogle] = NewGoogleFetcher(config.Sources.Google, logger)
	}
	if config.Adzuna.AppID != "" && config.Adzuna.AppKey != "" {
		set[models.SourceAdzuna] = NewAdzunaFetcher(config.Adzuna, logger)
	}

	return set
}

// finalizePosting stamps liveness and the content hash on a normalized posting
func finalizePosting(p *models.RawPosting, now time.Time) {
	p.ContentHash = common.ContentHash(p.Title, p.RawText)
	p.FirstSeen = now
	p.LastSeen = now
}

func versionForUA() string {
	return common.GetVersion()
}
