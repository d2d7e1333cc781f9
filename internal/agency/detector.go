package agency

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// Detector classifies whether an employer is a recruitment agency.
// Stage A works on the company name alone and runs before classification as
// a hard filter. Stage B re-runs after classification, folding in description
// phrases and the classifier's own verdict, and only labels.
type Detector struct {
	tables *Tables
	logger arbor.ILogger

	allow map[string]struct{}
	hard  map[string]struct{}
}

// NewDetector creates a detector over the given tables
func NewDetector(tables *Tables, logger arbor.ILogger) *Detector {
	d := &Detector{
		tables: tables,
		logger: logger,
		allow:  make(map[string]struct{}, len(tables.AllowList)),
		hard:   make(map[string]struct{}, len(tables.HardList)),
	}
	for _, name := range tables.AllowList {
		d.allow[normalizeName(name)] = struct{}{}
	}
	for _, name := range tables.HardList {
		d.hard[normalizeName(name)] = struct{}{}
	}
	return d
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Detect runs stage A over the company name
func (d *Detector) Detect(companyName string) models.AgencyVerdict {
	name := normalizeName(companyName)
	if name == "" {
		return models.AgencyVerdict{IsAgency: false, Confidence: models.ConfidenceLow}
	}

	if _, ok := d.allow[name]; ok {
		return models.AgencyVerdict{IsAgency: false, Confidence: models.ConfidenceLow}
	}
	if _, ok := d.hard[name]; ok {
		return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceHigh}
	}

	highHits := countHits(name, d.tables.HighKeywords)
	if highHits >= 2 || hasSuffix(name, d.tables.HighSuffixes) {
		return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceHigh}
	}
	if highHits == 1 {
		return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceMedium}
	}
	if hasSuffix(name, d.tables.MediumSuffixes) && countHits(name, d.tables.ThemeKeywords) > 0 {
		return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceMedium}
	}
	if countHits(name, d.tables.MediumKeywords) >= 2 {
		return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceMedium}
	}

	return models.AgencyVerdict{IsAgency: false, Confidence: models.ConfidenceLow}
}

// IsHardAgency reports whether the posting should be dropped before the
// classifier is ever invoked.
func (d *Detector) IsHardAgency(companyName string) bool {
	verdict := d.Detect(companyName)
	return verdict.IsAgency && verdict.Confidence == models.ConfidenceHigh
}

// Validate runs stage B: the post-classification labeling pass. The name
// verdict can be upgraded by client-speak phrases in the description, then is
// combined with the classifier's opinion. A high name verdict beats
// everything; a medium one needs the classifier to agree; otherwise the
// classifier's verdict stands.
func (d *Detector) Validate(companyName, description string, classifier models.AgencyVerdict) models.AgencyVerdict {
	verdict := d.Detect(companyName)

	if !verdict.IsAgency || verdict.Confidence != models.ConfidenceHigh {
		if countHits(strings.ToLower(description), d.tables.DescriptionPhrases) >= 2 {
			if verdict.Confidence != models.ConfidenceHigh {
				verdict = models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceMedium}
			}
		}
	}

	switch {
	case verdict.IsAgency && verdict.Confidence == models.ConfidenceHigh:
		return verdict
	case verdict.IsAgency && verdict.Confidence == models.ConfidenceMedium:
		if classifier.IsAgency {
			return models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceHigh}
		}
		// the soft signal is too weak to stand alone
		return models.AgencyVerdict{IsAgency: false, Confidence: models.ConfidenceLow}
	default:
		return classifier
	}
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func hasSuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
