package fetchers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

func TestAshbyFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posting-api/job-board/acme", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeCompensation"))
		w.Write([]byte(`{"jobs":[{
			"id": "ash-1",
			"title": "Senior Data Engineer",
			"location": "London, UK",
			"department": "Engineering",
			"isRemote": false,
			"descriptionHtml": "<p>Build pipelines in Python and Spark.</p>",
			"jobUrl": "https://jobs.ashbyhq.com/acme/ash-1",
			"address": {"postalAddress": {"addressLocality": "London", "addressCountry": "GB"}},
			"compensation": {"summaryComponents": [
				{"compensationType": "Salary", "minValue": 80000, "maxValue": 110000, "currencyCode": "GBP"}
			]}
		}]}`))
	}))
	defer server.Close()

	f := NewAshbyFetcher(newTestSourceConfig(), common.GetLogger())
	f.baseURL = server.URL

	ref := models.EmployerRef{Source: models.SourceAshby, DisplayName: "Acme", Slug: "acme"}
	postings, stats := f.Fetch(context.Background(), ref, Options{})

	require.Empty(t, stats.Error)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "ash-1", p.SourceJobID)
	assert.Equal(t, "false", p.Metadata[models.HintIsRemote])
	assert.Equal(t, "London", p.Metadata[models.HintCity])
	assert.Equal(t, "GB", p.Metadata[models.HintCountryCode])
	assert.Equal(t, "80000.00", p.Metadata[models.HintSalaryMin])
	assert.Equal(t, "110000.00", p.Metadata[models.HintSalaryMax])
	assert.Equal(t, "GBP", p.Metadata[models.HintSalaryCurrency])
}

func TestApplyAshbyCompensationVariants(t *testing.T) {
	tests := []struct {
		name    string
		comp    *ashbyCompensation
		wantMin string
		wantMax string
		wantCur string
	}{
		{
			name: "summary components win",
			comp: &ashbyCompensation{
				SummaryComponents: []ashbyCompComponent{
					{CompensationType: "Salary", MinValue: 90000, MaxValue: 120000, CurrencyCode: "USD"},
				},
				CompensationTierSummary: "£1K – £2K",
			},
			wantMin: "90000.00",
			wantMax: "120000.00",
			wantCur: "USD",
		},
		{
			name: "tier components fallback",
			comp: &ashbyCompensation{
				CompensationTiers: []struct {
					Components []ashbyCompComponent `json:"components"`
				}{
					{Components: []ashbyCompComponent{
						{CompensationType: "Salary", MinValue: 70000, MaxValue: 95000, CurrencyCode: "EUR"},
					}},
				},
			},
			wantMin: "70000.00",
			wantMax: "95000.00",
			wantCur: "EUR",
		},
		{
			name: "tier summary string parse",
			comp: &ashbyCompensation{
				CompensationTierSummary: "£80K – £110K",
			},
			wantMin: "80000.00",
			wantMax: "110000.00",
			wantCur: "GBP",
		},
		{
			name: "equity-only components yield nothing",
			comp: &ashbyCompensation{
				SummaryComponents: []ashbyCompComponent{
					{CompensationType: "EquityPercentage", MinValue: 0.1, MaxValue: 0.5},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string]string{}
			applyAshbyCompensation(tt.comp, metadata)
			assert.Equal(t, tt.wantMin, metadata[models.HintSalaryMin])
			assert.Equal(t, tt.wantMax, metadata[models.HintSalaryMax])
			assert.Equal(t, tt.wantCur, metadata[models.HintSalaryCurrency])
		})
	}
}
