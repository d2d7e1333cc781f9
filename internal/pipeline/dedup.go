package pipeline

import (
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// descriptionSwapRatio is how much longer the aggregator's description must
// be before it displaces a direct-ATS description.
const descriptionSwapRatio = 1.2

// Candidate pairs a raw posting with its enriched view while a sweep is
// still in memory.
type Candidate struct {
	Raw      *models.RawPosting
	Enriched *models.EnrichedPosting
}

func (c Candidate) dedupKey() string {
	location := c.Raw.CityHint
	return common.DedupKey(c.Raw.Company, c.Raw.Title, location)
}

// Merge collapses the direct-ATS and aggregator streams into one. Direct
// records win a collision by default; the aggregator only displaces the
// description when its variant is materially longer. The loser's description
// is retained on the winner for audit.
func Merge(direct, aggregator []Candidate) ([]Candidate, models.MergeStats) {
	stats := models.MergeStats{
		DescriptionBySource: make(map[models.Source]int),
	}

	byKey := make(map[string]int, len(direct))
	merged := make([]Candidate, 0, len(direct)+len(aggregator))

	for _, c := range direct {
		byKey[c.dedupKey()] = len(merged)
		merged = append(merged, c)
	}

	for _, agg := range aggregator {
		idx, collided := byKey[agg.dedupKey()]
		if !collided {
			merged = append(merged, agg)
			stats.AggregatorOnly++
			continue
		}

		winner := merged[idx]
		stats.Deduplicated++

		winner.Enriched.Deduplicated = true
		if float64(len(agg.Raw.RawText)) >= descriptionSwapRatio*float64(len(winner.Raw.RawText)) {
			winner.Enriched.AltDescription = winner.Raw.RawText
			winner.Enriched.DescriptionSource = agg.Raw.Source
			winner.Raw.RawText = agg.Raw.RawText
		} else {
			winner.Enriched.AltDescription = agg.Raw.RawText
			winner.Enriched.DescriptionSource = winner.Raw.Source
		}
		merged[idx] = winner
	}

	stats.DirectOnly = len(direct) - stats.Deduplicated

	var totalLength int
	for _, c := range merged {
		totalLength += len(c.Raw.RawText)
		source := c.Enriched.DescriptionSource
		if source == "" {
			source = c.Raw.Source
		}
		stats.DescriptionBySource[source]++
	}
	if len(merged) > 0 {
		stats.AvgDescriptionLength = float64(totalLength) / float64(len(merged))
	}
	if total := len(direct) + len(aggregator); total > 0 {
		stats.DedupRate = float64(stats.Deduplicated) / float64(total)
	}

	return merged, stats
}
