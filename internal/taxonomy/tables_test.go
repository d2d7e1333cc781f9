package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[subfamilies]
ai_ml_pm = "product"
ml_engineer = "data"

[[skills]]
name = "Python"
family = "languages"

[[skills]]
name = "Spark"
family = "data_tools"

[[skills]]
name = "python"
family = "tooling"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxonomy.toml"), []byte(content), 0644))

	tables, duplicates, err := LoadTables(dir)
	require.NoError(t, err)

	family, ok := tables.FamilyFor("AI_ML_PM")
	assert.True(t, ok)
	assert.Equal(t, "product", family)

	_, ok = tables.FamilyFor("unknown")
	assert.False(t, ok)

	// last write wins, evidence surfaced
	entry, ok := tables.Skill("Python")
	require.True(t, ok)
	assert.Equal(t, "tooling", entry.FamilyCode)

	require.Len(t, duplicates, 1)
	assert.Equal(t, "python", duplicates[0].Name)
	assert.Equal(t, "tooling", duplicates[0].KeptFamily)
	assert.Equal(t, "languages", duplicates[0].DroppedFamily)
}

func TestShippedTaxonomyConfig(t *testing.T) {
	tables, duplicates, err := LoadTables("../../config")
	require.NoError(t, err)
	assert.Empty(t, duplicates)

	for subfamily, want := range map[string]string{
		"data_engineer":    "data",
		"ml_engineer":      "data",
		"data_platform":    "data",
		"data_scientist":   "data",
		"ai_ml_pm":         "product",
		"core_pm":          "product",
		"delivery_manager": "delivery",
		"out_of_scope":     "out_of_scope",
	} {
		family, ok := tables.FamilyFor(subfamily)
		require.True(t, ok, subfamily)
		assert.Equal(t, want, family, subfamily)
	}

	// every shipped subfamily resolves inside the closed family set
	for subfamily, family := range tables.subfamilyToFamily {
		assert.Contains(t, []string{"data", "product", "delivery", "out_of_scope"}, family, subfamily)
	}

	entry, ok := tables.Skill("python")
	require.True(t, ok)
	assert.Equal(t, "Python", entry.Name)
	assert.Equal(t, "programming", entry.FamilyCode)
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, _, err := LoadTables(t.TempDir())
	assert.Error(t, err)
}

func TestSuppressionWildcard(t *testing.T) {
	table := DefaultSuppression()
	assert.True(t, table.Suppress("london", "greenhouse"))
	assert.True(t, table.Suppress("LONDON", "lever"))
	assert.True(t, table.Suppress("Denver", "adzuna"))
	assert.False(t, table.Suppress("Denver", "greenhouse"))
	assert.False(t, table.Suppress("", "greenhouse"))

	var nilTable *SuppressionTable
	assert.False(t, nilTable.Suppress("london", "greenhouse"))
}
