package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SkillEntry is the canonical form of one skill
type SkillEntry struct {
	Name       string // canonical casing
	FamilyCode string
}

// DuplicateSkill records a skill name mapped more than once in the config.
// Last write wins, but the evidence is returned so an audit can surface it.
type DuplicateSkill struct {
	Name          string
	KeptFamily    string
	DroppedFamily string
}

// Tables holds the subfamily and skill lookups, loaded once at startup
type Tables struct {
	subfamilyToFamily map[string]string
	skills            map[string]SkillEntry // keyed by lowercase name
}

type tablesFile struct {
	Subfamilies map[string]string `toml:"subfamilies"`
	Skills      []struct {
		Name   string `toml:"name"`
		Family string `toml:"family"`
	} `toml:"skills"`
}

// NewTables builds tables directly from in-memory lookups
func NewTables(subfamilies map[string]string, skills []SkillEntry) *Tables {
	t := &Tables{
		subfamilyToFamily: make(map[string]string, len(subfamilies)),
		skills:            make(map[string]SkillEntry, len(skills)),
	}
	for subfamily, family := range subfamilies {
		t.subfamilyToFamily[strings.ToLower(subfamily)] = family
	}
	for _, s := range skills {
		t.skills[strings.ToLower(strings.TrimSpace(s.Name))] = s
	}
	return t
}

// LoadTables reads taxonomy.toml from the tables directory. Duplicate skill
// names follow last-write-wins; the dropped entries are returned alongside.
func LoadTables(dir string) (*Tables, []DuplicateSkill, error) {
	path := filepath.Join(dir, "taxonomy.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file tablesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tables := &Tables{
		subfamilyToFamily: make(map[string]string, len(file.Subfamilies)),
		skills:            make(map[string]SkillEntry, len(file.Skills)),
	}
	for subfamily, family := range file.Subfamilies {
		tables.subfamilyToFamily[strings.ToLower(subfamily)] = family
	}

	var duplicates []DuplicateSkill
	for _, s := range file.Skills {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" {
			continue
		}
		if prev, ok := tables.skills[key]; ok {
			duplicates = append(duplicates, DuplicateSkill{
				Name:          s.Name,
				KeptFamily:    s.Family,
				DroppedFamily: prev.FamilyCode,
			})
		}
		tables.skills[key] = SkillEntry{
			Name:       strings.TrimSpace(s.Name),
			FamilyCode: s.Family,
		}
	}

	return tables, duplicates, nil
}

// FamilyFor resolves a subfamily to its family. The second return reports
// whether the subfamily was in the table.
func (t *Tables) FamilyFor(subfamily string) (string, bool) {
	family, ok := t.subfamilyToFamily[strings.ToLower(subfamily)]
	return family, ok
}

// Skill resolves a raw skill name to its canonical entry
func (t *Tables) Skill(name string) (SkillEntry, bool) {
	entry, ok := t.skills[strings.ToLower(strings.TrimSpace(name))]
	return entry, ok
}
