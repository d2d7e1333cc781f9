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

func TestLeverFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/postings/acme", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		w.Write([]byte(`[
			{
				"id": "lv-1",
				"text": "Staff Product Manager",
				"hostedUrl": "https://jobs.lever.co/acme/lv-1",
				"workplaceType": "remote",
				"categories": {"team": "Product", "location": "London, UK", "commitment": "Full-time"},
				"descriptionPlain": "Own the roadmap.",
				"description": "<p>Own the roadmap.</p>"
			},
			{
				"id": "lv-2",
				"text": "Data Engineer",
				"hostedUrl": "https://jobs.lever.co/acme/lv-2",
				"workplaceType": "unspecified",
				"categories": {"location": "London, UK"},
				"description": "<p>Build pipelines.</p>"
			}
		]`))
	}))
	defer server.Close()

	f := NewLeverFetcher(newTestSourceConfig(), common.GetLogger())
	f.baseURL = server.URL

	ref := models.EmployerRef{Source: models.SourceLever, DisplayName: "Acme", Slug: "acme"}
	postings, stats := f.Fetch(context.Background(), ref, Options{})

	require.Empty(t, stats.Error)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "remote", first.Metadata[models.HintWorkplaceType])
	assert.Equal(t, "Product", first.Metadata[models.HintTeam])
	assert.Equal(t, "Full-time", first.Metadata[models.HintCommitment])
	assert.Equal(t, "Own the roadmap.", first.RawText)

	// "unspecified" must not be forwarded as a workplace type
	second := postings[1]
	_, hasType := second.Metadata[models.HintWorkplaceType]
	assert.False(t, hasType)
	assert.Contains(t, second.RawText, "Build pipelines.")
}

func TestLeverFetchEUInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	f := NewLeverFetcher(newTestSourceConfig(), common.GetLogger())
	f.euBaseURL = server.URL
	f.baseURL = "http://127.0.0.1:1" // must not be hit

	ref := models.EmployerRef{Source: models.SourceLever, Slug: "acme", Instance: "eu"}
	_, stats := f.Fetch(context.Background(), ref, Options{})
	assert.Empty(t, stats.Error)
}
