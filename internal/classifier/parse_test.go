package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
  "employer": {"department": "Engineering", "size": null, "is_agency": false, "agency_confidence": "low"},
  "role": {"job_family": "engineering", "job_subfamily": "data_platform", "seniority": "senior", "track": "ic", "position_type": "full_time", "experience_range": "5-8"},
  "location": {"working_arrangement": "hybrid", "locations": [{"type": "city", "city": "London", "country_code": "GB"}]},
  "compensation": {"currency": "GBP", "salary_min": 80000, "salary_max": 110000, "equity_eligible": true},
  "skills": [{"name": "Python"}, {"name": "Spark"}],
  "summary": "Senior data engineer building the analytics platform."
}`

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(validResponse)
	require.NoError(t, err)

	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
	assert.Equal(t, "senior", c.Role.Seniority)
	assert.False(t, c.Employer.IsAgency)
	require.NotNil(t, c.Compensation.SalaryMin)
	assert.Equal(t, 80000.0, *c.Compensation.SalaryMin)
	assert.Len(t, c.Skills, 2)
	require.Len(t, c.Location.Locations, 1)
	assert.Equal(t, "London", c.Location.Locations[0].City)
}

func TestParseClassificationStripsFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	c, err := ParseClassification(fenced)
	require.NoError(t, err)
	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
}

func TestParseClassificationBareListTakesFirst(t *testing.T) {
	c, err := ParseClassification("[" + validResponse + "]")
	require.NoError(t, err)
	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
}

func TestParseClassificationLeadingProse(t *testing.T) {
	c, err := ParseClassification("Here is the classification:\n" + validResponse)
	require.NoError(t, err)
	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
}

func TestParseClassificationNullStrings(t *testing.T) {
	response := `{
  "employer": {"department": "null", "is_agency": false, "agency_confidence": "low"},
  "role": {"job_family": "product", "job_subfamily": "ai_ml_pm", "seniority": "mid", "track": "ic", "position_type": "full_time", "experience_range": "null"},
  "location": {"working_arrangement": "unknown", "locations": []},
  "compensation": {"currency": "null", "equity_eligible": false},
  "skills": [{"name": "null"}, {"name": "Python"}],
  "summary": "A product role."
}`
	c, err := ParseClassification(response)
	require.NoError(t, err)

	assert.Empty(t, c.Employer.Department)
	assert.Empty(t, c.Role.ExperienceRange)
	assert.Empty(t, c.Compensation.Currency)
	require.Len(t, c.Skills, 1)
	assert.Equal(t, "Python", c.Skills[0].Name)
}

func TestParseClassificationRecoversSubfamilyFromPartialJSON(t *testing.T) {
	truncated := `{"employer": {"is_agency": false}, "role": {"job_family": "data", "job_subfamily": "ml_engineer", "senior`
	c, err := ParseClassification(truncated)
	require.NoError(t, err)
	assert.Equal(t, "ml_engineer", c.Role.JobSubfamily)
}

func TestParseClassificationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ErrorKind
	}{
		{"empty", "", KindInvalidJSON},
		{"prose only", "I could not classify this posting.", KindInvalidJSON},
		{"missing subfamily", `{"role": {"job_family": "data"}}`, KindSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClassification(tt.text)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}
