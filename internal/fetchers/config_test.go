package fetchers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/laboro/internal/models"
)

func writeEmployers(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "employers.toml"), []byte(content), 0644))
	return dir
}

func TestLoadEmployers(t *testing.T) {
	dir := writeEmployers(t, `
[greenhouse."Monzo"]
slug = "monzo"
size = "1001-5000"

[greenhouse."Acme Corp"]
slug = "acme"

[lever."Zalando"]
slug = "zalando"
instance = "eu"
department = "Engineering"
`)

	employers, err := LoadEmployers(dir)
	require.NoError(t, err)

	refs := employers.ForSource(models.SourceGreenhouse)
	require.Len(t, refs, 2)
	// sorted on display name
	assert.Equal(t, "Acme Corp", refs[0].DisplayName)
	assert.Equal(t, "acme", refs[0].Slug)
	assert.Equal(t, "Monzo", refs[1].DisplayName)

	lever := employers.ForSource(models.SourceLever)
	require.Len(t, lever, 1)
	assert.Equal(t, "eu", lever[0].Instance)

	// only entries carrying curated fields surface as metadata
	meta := employers.Metadata()
	require.Len(t, meta, 2)
	assert.Equal(t, models.EmployerMetadata{Name: "Monzo", Size: "1001-5000"}, meta[0])
	assert.Equal(t, models.EmployerMetadata{Name: "Zalando", Department: "Engineering"}, meta[1])
}

func TestLoadEmployersRestrict(t *testing.T) {
	dir := writeEmployers(t, `
[greenhouse."Monzo"]
slug = "monzo"

[greenhouse."Stripe"]
slug = "stripe"
`)

	employers, err := LoadEmployers(dir)
	require.NoError(t, err)

	refs := employers.Restrict(models.SourceGreenhouse, []string{"stripe"})
	require.Len(t, refs, 1)
	assert.Equal(t, "stripe", refs[0].Slug)

	// no restriction keeps the full set
	assert.Len(t, employers.Restrict(models.SourceGreenhouse, nil), 2)
}

func TestLoadEmployersRejectsBadConfig(t *testing.T) {
	_, err := LoadEmployers(writeEmployers(t, `
[megacorp."Acme"]
slug = "acme"
`))
	assert.Error(t, err)

	_, err = LoadEmployers(writeEmployers(t, `
[greenhouse."Acme"]
instance = "eu"
`))
	assert.Error(t, err)
}
