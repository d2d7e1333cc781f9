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

func TestGoogleFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<jobs>
  <job>
    <id>g-1</id>
    <title>Software Engineer, Data Infrastructure</title>
    <description>&lt;p&gt;The US base salary range is $140,000-$210,000.&lt;/p&gt;</description>
    <url>https://careers.google.com/jobs/g-1</url>
    <category>Engineering</category>
    <locations>
      <location><city>London</city><country>GB</country></location>
      <location><city>Dublin</city><country>IE</country></location>
    </locations>
  </job>
</jobs>`))
	}))
	defer server.Close()

	f := NewGoogleFetcher(newTestSourceConfig(), common.GetLogger())
	f.feedURL = server.URL

	ref := models.EmployerRef{Source: models.SourceGoogle, DisplayName: "Google", Slug: "google"}
	postings, stats := f.Fetch(context.Background(), ref, Options{})

	require.Empty(t, stats.Error)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "g-1", p.SourceJobID)
	assert.Equal(t, "Google", p.Company)
	assert.Equal(t, "London, GB; Dublin, IE", p.CityHint)
	assert.Equal(t, "Engineering", p.Metadata[models.HintCategory])
	assert.Equal(t, "London", p.Metadata[models.HintCity])
	assert.Equal(t, "GB", p.Metadata[models.HintCountryCode])
	assert.Equal(t, "140000.00", p.Metadata[models.HintSalaryMin])
	assert.Equal(t, "210000.00", p.Metadata[models.HintSalaryMax])
	assert.Equal(t, "USD", p.Metadata[models.HintSalaryCurrency])
}

func TestGoogleFetchBadXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not xml at all`))
	}))
	defer server.Close()

	f := NewGoogleFetcher(newTestSourceConfig(), common.GetLogger())
	f.feedURL = server.URL

	ref := models.EmployerRef{Source: models.SourceGoogle, Slug: "google"}
	postings, stats := f.Fetch(context.Background(), ref, Options{})
	assert.Empty(t, postings)
	assert.Equal(t, ErrInvalidResponse, stats.Error)
}

func TestApplyGoogleSalary(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMin string
		wantCur string
	}{
		{
			name:    "dollar band",
			text:    "base salary range is $140,000-$210,000 plus bonus",
			wantMin: "140000.00",
			wantCur: "USD",
		},
		{
			name:    "pound band with spaces",
			text:    "we pay £95,000 - £130,000",
			wantMin: "95000.00",
			wantCur: "GBP",
		},
		{
			name: "no band",
			text: "competitive salary",
		},
		{
			name: "inverted range ignored",
			text: "$210,000-$140,000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string]string{}
			applyGoogleSalary(tt.text, metadata)
			assert.Equal(t, tt.wantMin, metadata[models.HintSalaryMin])
			assert.Equal(t, tt.wantCur, metadata[models.HintSalaryCurrency])
		})
	}
}
