package fetchers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// employerEntry is the on-disk shape of one employer mapping. Size and
// department are optional curated metadata seeded into the employer lookup
// table at startup.
type employerEntry struct {
	Slug       string `toml:"slug"`
	Instance   string `toml:"instance"`
	Size       string `toml:"size"`
	Department string `toml:"department"`
}

// EmployerMap holds the configured employers per source, read-only after load
type EmployerMap struct {
	bySource map[models.Source][]models.EmployerRef
	metadata []models.EmployerMetadata
}

// LoadEmployers reads employers.toml from the tables directory. The file
// maps display names to slugs per source; order of iteration is made
// deterministic by sorting on display name.
func LoadEmployers(dir string) (*EmployerMap, error) {
	path := filepath.Join(dir, "employers.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read employer mapping %s: %w", path, err)
	}

	var raw map[string]map[string]employerEntry
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse employer mapping %s: %w", path, err)
	}

	em := &EmployerMap{bySource: make(map[models.Source][]models.EmployerRef)}
	seenMetadata := make(map[string]bool)
	for sourceName, employers := range raw {
		source, ok := models.ParseSource(sourceName)
		if !ok {
			return nil, fmt.Errorf("employer mapping references unknown source %q", sourceName)
		}

		names := make([]string, 0, len(employers))
		for name := range employers {
			names = append(names, name)
		}
		sort.Strings(names)

		refs := make([]models.EmployerRef, 0, len(employers))
		for _, name := range names {
			entry := employers[name]
			if entry.Slug == "" {
				return nil, fmt.Errorf("employer %q (%s) has no slug", name, sourceName)
			}
			refs = append(refs, models.EmployerRef{
				Source:      source,
				DisplayName: name,
				Slug:        entry.Slug,
				Instance:    entry.Instance,
			})
			if (entry.Size != "" || entry.Department != "") && !seenMetadata[name] {
				seenMetadata[name] = true
				em.metadata = append(em.metadata, models.EmployerMetadata{
					Name:       name,
					Size:       entry.Size,
					Department: entry.Department,
				})
			}
		}
		em.bySource[source] = refs
	}
	sort.Slice(em.metadata, func(i, j int) bool { return em.metadata[i].Name < em.metadata[j].Name })

	return em, nil
}

// Metadata returns the curated employer rows carried alongside the mapping,
// in display-name order. The caller seeds these into the lookup table.
func (em *EmployerMap) Metadata() []models.EmployerMetadata {
	return em.metadata
}

// ForSource returns the configured employers for one source
func (em *EmployerMap) ForSource(source models.Source) []models.EmployerRef {
	return em.bySource[source]
}

// Restrict narrows a source's employers to the named slugs (CLI --companies)
func (em *EmployerMap) Restrict(source models.Source, slugs []string) []models.EmployerRef {
	if len(slugs) == 0 {
		return em.ForSource(source)
	}
	wanted := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		wanted[s] = true
	}
	var refs []models.EmployerRef
	for _, ref := range em.bySource[source] {
		if wanted[ref.Slug] {
			refs = append(refs, ref)
		}
	}
	return refs
}

// filterEntry is the on-disk shape of one source's filter sets
type filterEntry struct {
	Titles    []string `toml:"titles"`
	Locations []string `toml:"locations"`
}

// FilterTable holds compiled per-source filters
type FilterTable struct {
	bySource map[models.Source]*Filters
}

// LoadFilters reads filters.toml from the tables directory and compiles
// the per-source title patterns and location substrings.
func LoadFilters(dir string, logger arbor.ILogger) (*FilterTable, error) {
	path := filepath.Join(dir, "filters.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter config %s: %w", path, err)
	}

	var raw map[string]filterEntry
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse filter config %s: %w", path, err)
	}

	ft := &FilterTable{bySource: make(map[models.Source]*Filters)}
	for sourceName, entry := range raw {
		source, ok := models.ParseSource(sourceName)
		if !ok {
			return nil, fmt.Errorf("filter config references unknown source %q", sourceName)
		}
		ft.bySource[source] = NewFilters(entry.Titles, entry.Locations, logger)
	}

	return ft, nil
}

// ForSource returns the filters for one source, nil when none configured
func (ft *FilterTable) ForSource(source models.Source) *Filters {
	if ft == nil {
		return nil
	}
	return ft.bySource[source]
}
