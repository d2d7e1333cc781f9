package agency

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Tables holds the keyword lists driving agency detection. Loaded once at
// startup from agency.toml and treated as read-only afterwards.
type Tables struct {
	AllowList          []string `toml:"allow_list"`
	HardList           []string `toml:"hard_list"`
	HighKeywords       []string `toml:"high_keywords"`
	MediumKeywords     []string `toml:"medium_keywords"`
	HighSuffixes       []string `toml:"high_suffixes"`
	MediumSuffixes     []string `toml:"medium_suffixes"`
	ThemeKeywords      []string `toml:"theme_keywords"`
	DescriptionPhrases []string `toml:"description_phrases"`
}

// DefaultTables returns the built-in lists used when no agency.toml exists
func DefaultTables() *Tables {
	return &Tables{
		HardList: []string{
			"hays",
			"hays recruitment",
			"michael page",
			"robert half",
			"randstad",
			"adecco",
			"manpower",
			"reed",
			"morgan mckinley",
		},
		HighKeywords: []string{
			"staffing",
			"recruitment",
			"recruiting",
			"headhunt",
			"executive search",
			"talent acquisition agency",
		},
		MediumKeywords: []string{
			"talent",
			"resourcing",
			"personnel",
			"placement",
		},
		HighSuffixes: []string{
			" staffing",
			" recruitment",
			" recruiting",
			" resourcing",
		},
		MediumSuffixes: []string{
			" solutions",
			" search",
			" partners",
			" consulting",
		},
		ThemeKeywords: []string{
			"talent",
			"staffing",
			"recruit",
			"search",
		},
		DescriptionPhrases: []string{
			"our client is seeking",
			"our client is looking",
			"on behalf of our client",
			"my client is",
			"this is an exciting opportunity with our client",
			"we are recruiting on behalf",
			"acting as an employment agency",
			"acting as an employment business",
		},
	}
}

// LoadTables reads agency.toml from the tables directory, falling back to the
// built-in lists when the file is absent.
func LoadTables(dir string) (*Tables, error) {
	path := filepath.Join(dir, "agency.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultTables(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	tables := DefaultTables()
	if err := toml.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return tables, nil
}
