package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/laboro/internal/models"
)

// SuppressionTable lists (city, source) pairs whose compensation must be
// nulled on write. Either side may be "*". Salary data from these
// combinations has proven unreliable enough to poison averages.
type SuppressionTable struct {
	rules []suppressionRule
}

type suppressionRule struct {
	City   string
	Source string
}

type suppressionFile struct {
	Rules []struct {
		City   string `toml:"city"`
		Source string `toml:"source"`
	} `toml:"rules"`
}

// DefaultSuppression covers London and Singapore from any source plus
// everything Adzuna reports (largely model-predicted values).
func DefaultSuppression() *SuppressionTable {
	return &SuppressionTable{rules: []suppressionRule{
		{City: "london", Source: "*"},
		{City: "singapore", Source: "*"},
		{City: "*", Source: string(models.SourceAdzuna)},
	}}
}

// LoadSuppression reads suppression.toml, falling back to the default rules
// when the file is absent.
func LoadSuppression(dir string) (*SuppressionTable, error) {
	path := filepath.Join(dir, "suppression.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSuppression(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file suppressionFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	table := &SuppressionTable{}
	for _, r := range file.Rules {
		table.rules = append(table.rules, suppressionRule{
			City:   strings.ToLower(strings.TrimSpace(r.City)),
			Source: strings.ToLower(strings.TrimSpace(r.Source)),
		})
	}
	return table, nil
}

// Suppress reports whether compensation for this city/source pair must be
// dropped on write.
func (t *SuppressionTable) Suppress(city string, source models.Source) bool {
	if t == nil {
		return false
	}
	city = strings.ToLower(strings.TrimSpace(city))
	src := strings.ToLower(string(source))
	for _, r := range t.rules {
		cityMatch := r.City == "*" || r.City == city
		sourceMatch := r.Source == "*" || r.Source == src
		if cityMatch && sourceMatch {
			return true
		}
	}
	return false
}
