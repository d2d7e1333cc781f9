package taxonomy

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// directorPattern is the corpus of title tokens that justify a management
// track or director_plus seniority.
var directorPattern = regexp.MustCompile(`(?i)\b(director|head|vp|chief|svp|evp|avp|rvp|partner)\b`)

var (
	staffPattern  = regexp.MustCompile(`(?i)\b(staff|principal)\b`)
	seniorPattern = regexp.MustCompile(`(?i)\b(senior|sr|lead)\b`)
)

var locationDelimiters = regexp.MustCompile(`[;/|•\n]`)

// Mapper applies the deterministic corrections that run after the LLM
// returns: family overwrite, skill canonicalization, track and seniority
// validation, location extraction and compensation suppression.
type Mapper struct {
	tables      *Tables
	suppression *SuppressionTable
	logger      arbor.ILogger
}

// NewMapper creates a mapper over the loaded tables
func NewMapper(tables *Tables, suppression *SuppressionTable, logger arbor.ILogger) *Mapper {
	return &Mapper{
		tables:      tables,
		suppression: suppression,
		logger:      logger,
	}
}

// Apply mutates the classification in place. The raw posting supplies the
// title for track/seniority validation and the location hints.
func (m *Mapper) Apply(c *models.Classification, raw *models.RawPosting) {
	m.applyFamily(c)
	m.applySkills(c)
	m.applyTrack(c, raw.Title)
	m.applyLocations(c, raw)
	m.applyArrangement(c, raw)
	m.applyCompensation(c, raw)
}

// applyFamily overwrites job_family from the subfamily table. The LLM's own
// family is only kept when the subfamily is outside the table.
func (m *Mapper) applyFamily(c *models.Classification) {
	subfamily := strings.ToLower(strings.TrimSpace(c.Role.JobSubfamily))
	if subfamily == "out_of_scope" {
		c.Role.JobFamily = "out_of_scope"
		return
	}
	if family, ok := m.tables.FamilyFor(subfamily); ok {
		c.Role.JobFamily = family
	}
}

// applySkills canonicalizes skill names. Unknown skills keep their name with
// a null family code.
func (m *Mapper) applySkills(c *models.Classification) {
	for i := range c.Skills {
		name := strings.TrimSpace(c.Skills[i].Name)
		if entry, ok := m.tables.Skill(name); ok {
			family := entry.FamilyCode
			c.Skills[i].Name = entry.Name
			c.Skills[i].FamilyCode = &family
		} else {
			c.Skills[i].Name = name
			c.Skills[i].FamilyCode = nil
		}
	}
}

// applyTrack downgrades a management label the title cannot support, and
// re-infers seniority when director_plus lacks a director signal.
func (m *Mapper) applyTrack(c *models.Classification, title string) {
	hasDirectorSignal := directorPattern.MatchString(title)

	if c.Role.Track == "management" && !hasDirectorSignal {
		c.Role.Track = "ic"
	}
	if c.Role.Seniority == "director_plus" && !hasDirectorSignal {
		switch {
		case staffPattern.MatchString(title):
			c.Role.Seniority = "staff_principal"
		case seniorPattern.MatchString(title):
			c.Role.Seniority = "senior"
		default:
			c.Role.Seniority = "mid"
		}
	}
}

// applyLocations builds the structured location list when the classifier did
// not provide one, preferring fetcher hints over free-text parsing.
func (m *Mapper) applyLocations(c *models.Classification, raw *models.RawPosting) {
	if len(c.Location.Locations) > 0 {
		return
	}
	c.Location.Locations = ExtractLocations(raw)
}

// ExtractLocations turns the fetcher's location view into structured entries.
// Structured hints win; otherwise the free-form string is split on the usual
// multi-location delimiters.
func ExtractLocations(raw *models.RawPosting) []models.LocationEntry {
	if city, ok := raw.Hint(models.HintCity); ok && city != "" {
		entry := models.LocationEntry{Type: "city", City: city}
		if region, ok := raw.Hint(models.HintRegion); ok {
			entry.Region = region
		}
		if country, ok := raw.Hint(models.HintCountryCode); ok {
			entry.CountryCode = strings.ToUpper(country)
		}
		return []models.LocationEntry{entry}
	}

	var entries []models.LocationEntry
	for _, token := range locationDelimiters.Split(raw.CityHint, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.Contains(strings.ToLower(token), "remote") {
			entries = append(entries, models.LocationEntry{Type: "remote", Scope: "global"})
			continue
		}
		entry := models.LocationEntry{Type: "city"}
		// "City, Region" or "City, CC"
		if city, rest, found := strings.Cut(token, ","); found {
			entry.City = strings.TrimSpace(city)
			rest = strings.TrimSpace(rest)
			if len(rest) == 2 {
				entry.CountryCode = strings.ToUpper(rest)
			} else {
				entry.Region = rest
			}
		} else {
			entry.City = token
		}
		if country, ok := raw.Hint(models.HintCountryCode); ok && entry.CountryCode == "" {
			entry.CountryCode = strings.ToUpper(country)
		}
		entries = append(entries, entry)
	}
	return entries
}

// applyArrangement resolves an unknown working arrangement from hints, then
// from remote location entries, then defaults to onsite.
func (m *Mapper) applyArrangement(c *models.Classification, raw *models.RawPosting) {
	if c.Location.WorkingArrangement != "" && c.Location.WorkingArrangement != models.ArrangementUnknown {
		return
	}

	if wt, ok := raw.Hint(models.HintWorkplaceType); ok {
		switch strings.ToLower(wt) {
		case "onsite", "on_site":
			c.Location.WorkingArrangement = models.ArrangementOnsite
			return
		case "hybrid":
			c.Location.WorkingArrangement = models.ArrangementHybrid
			return
		case "remote":
			c.Location.WorkingArrangement = models.ArrangementRemote
			return
		}
	}
	if isRemote, ok := raw.Hint(models.HintIsRemote); ok && isRemote == "true" {
		c.Location.WorkingArrangement = models.ArrangementRemote
		return
	}
	if lt, ok := raw.Hint(models.HintLocationType); ok && strings.ToLower(lt) == "remote" {
		c.Location.WorkingArrangement = models.ArrangementRemote
		return
	}
	for _, entry := range c.Location.Locations {
		if entry.Type == "remote" {
			c.Location.WorkingArrangement = models.ArrangementRemote
			return
		}
	}
	c.Location.WorkingArrangement = models.ArrangementOnsite
}

// applyCompensation nulls the compensation triple for suppressed
// (city, source) combinations.
func (m *Mapper) applyCompensation(c *models.Classification, raw *models.RawPosting) {
	city := PrimaryCity(c.Location.Locations)
	if m.suppression.Suppress(city, raw.Source) {
		c.Compensation.Currency = ""
		c.Compensation.SalaryMin = nil
		c.Compensation.SalaryMax = nil
	}
}

// PrimaryCity is the display city: the first structured entry with one
func PrimaryCity(locations []models.LocationEntry) string {
	for _, entry := range locations {
		if entry.City != "" {
			return entry.City
		}
	}
	return ""
}
