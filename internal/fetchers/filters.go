package fetchers

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

// locationDelimiters split multi-location values before substring matching
var locationDelimiters = regexp.MustCompile(`[;/|•\n]`)

// Filters holds the cheap pre-classification filters for one source:
// a title must match at least one pattern and a location must contain at
// least one target substring. Either set may be empty (disabled).
type Filters struct {
	titleRegexes    []*regexp.Regexp
	targetLocations []string
}

// NewFilters compiles title patterns and normalizes location substrings.
// Patterns that fail to compile are logged and skipped, matching the
// crawler's tolerance for operator-supplied config.
func NewFilters(titlePatterns, locationSubstrings []string, logger arbor.ILogger) *Filters {
	f := &Filters{
		titleRegexes:    make([]*regexp.Regexp, 0, len(titlePatterns)),
		targetLocations: make([]string, 0, len(locationSubstrings)),
	}

	for _, pattern := range titlePatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			if logger != nil {
				logger.Warn().Err(err).Str("pattern", pattern).Msg("Failed to compile title pattern")
			}
			continue
		}
		f.titleRegexes = append(f.titleRegexes, re)
	}

	for _, loc := range locationSubstrings {
		trimmed := strings.ToLower(strings.TrimSpace(loc))
		if trimmed != "" {
			f.targetLocations = append(f.targetLocations, trimmed)
		}
	}

	return f
}

// MatchTitle reports whether the title passes the pattern set.
// An empty pattern set passes everything.
func (f *Filters) MatchTitle(title string) bool {
	if f == nil || len(f.titleRegexes) == 0 {
		return true
	}
	for _, re := range f.titleRegexes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// MatchLocation reports whether the location passes the target set.
// Multi-location values are split on delimiters; a match on any token
// counts. An empty target set passes everything.
func (f *Filters) MatchLocation(location string) bool {
	if f == nil || len(f.targetLocations) == 0 {
		return true
	}

	tokens := locationDelimiters.Split(location, -1)
	for _, token := range tokens {
		lowered := strings.ToLower(strings.TrimSpace(token))
		if lowered == "" {
			continue
		}
		for _, target := range f.targetLocations {
			if strings.Contains(lowered, target) {
				return true
			}
		}
	}
	return false
}

// Keep applies both filters, the order cheap-first
func (f *Filters) Keep(title, location string) bool {
	return f.MatchTitle(title) && f.MatchLocation(location)
}
