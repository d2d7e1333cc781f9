package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

type fakeProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
	lastUser  string
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(ctx context.Context, system, user string) (*Completion, error) {
	i := f.calls
	f.calls++
	f.lastUser = user
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := f.responses[0]
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &Completion{Text: text, InputTokens: 1200, OutputTokens: 300}, nil
}

func hintedPosting(text string) *models.RawPosting {
	return &models.RawPosting{
		Source:   models.SourceGreenhouse,
		Title:    "Senior Data Engineer",
		Company:  "Acme",
		RawText:  text,
		CityHint: "London, UK",
		Metadata: map[string]string{models.HintDepartment: "Data"},
	}
}

func TestClassify(t *testing.T) {
	provider := &fakeProvider{name: "claude", responses: []string{validResponse}}
	g := NewGateway(provider, arbor.NewLogger())

	c, err := g.Classify(context.Background(), hintedPosting("We are hiring a senior data engineer to build pipelines."))
	require.NoError(t, err)

	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
	assert.Equal(t, int64(1200), c.Cost.InputTokens)
	assert.Equal(t, "claude", c.Cost.Provider)
	assert.Equal(t, "fake-model", c.Cost.Model)
	assert.Greater(t, c.Cost.CostUSD, 0.0)

	// structured fields reach the prompt
	assert.True(t, strings.Contains(provider.lastUser, "Senior Data Engineer"))
	assert.True(t, strings.Contains(provider.lastUser, "Acme"))
}

func TestClassifyDescriptionGate(t *testing.T) {
	provider := &fakeProvider{name: "claude", responses: []string{validResponse}}
	g := NewGateway(provider, arbor.NewLogger())

	t.Run("hinted posting passes at 20 chars", func(t *testing.T) {
		p := hintedPosting(strings.Repeat("x", 20))
		_, err := g.Classify(context.Background(), p)
		assert.NoError(t, err)
	})

	t.Run("hinted posting fails below 20", func(t *testing.T) {
		p := hintedPosting(strings.Repeat("x", 19))
		_, err := g.Classify(context.Background(), p)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindContentTooShort))
	})

	t.Run("bare posting needs 50", func(t *testing.T) {
		p := &models.RawPosting{Source: models.SourceGoogle, RawText: strings.Repeat("x", 49)}
		_, err := g.Classify(context.Background(), p)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindContentTooShort))

		p.RawText = strings.Repeat("x", 50)
		_, err = g.Classify(context.Background(), p)
		assert.NoError(t, err)
	})

	t.Run("threshold counts characters not bytes", func(t *testing.T) {
		// 20 runes, 40 bytes
		p := hintedPosting(strings.Repeat("é", 20))
		_, err := g.Classify(context.Background(), p)
		assert.NoError(t, err)

		p = hintedPosting(strings.Repeat("é", 19))
		_, err = g.Classify(context.Background(), p)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindContentTooShort))
	})

	t.Run("no RPC on gate failure", func(t *testing.T) {
		counted := &fakeProvider{name: "claude", responses: []string{validResponse}}
		gated := NewGateway(counted, arbor.NewLogger())
		_, err := gated.Classify(context.Background(), hintedPosting("short"))
		require.Error(t, err)
		assert.Equal(t, 0, counted.calls)
	})
}

func TestClassifyRetriesTransportError(t *testing.T) {
	provider := &fakeProvider{
		name:      "claude",
		errs:      []error{errors.New("connection reset")},
		responses: []string{validResponse, validResponse},
	}
	g := NewGateway(provider, arbor.NewLogger())

	c, err := g.Classify(context.Background(), hintedPosting("We are hiring a senior data engineer."))
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, "data_platform", c.Role.JobSubfamily)
}

func TestClassifyRateLimitedNotRetried(t *testing.T) {
	provider := &fakeProvider{
		name: "claude",
		errs: []error{errors.New("status 429: rate limit exceeded"), errors.New("status 429")},
	}
	g := NewGateway(provider, arbor.NewLogger())

	_, err := g.Classify(context.Background(), hintedPosting("We are hiring a senior data engineer."))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRateLimited))
	assert.Equal(t, 1, provider.calls)
}

func TestClassifyTransportErrorExhausted(t *testing.T) {
	provider := &fakeProvider{
		name: "claude",
		errs: []error{errors.New("connection reset"), errors.New("connection reset")},
	}
	g := NewGateway(provider, arbor.NewLogger())

	_, err := g.Classify(context.Background(), hintedPosting("We are hiring a senior data engineer."))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransportError))
	assert.Equal(t, 2, provider.calls)
}

func TestClassifySourceProviderOverride(t *testing.T) {
	defaultProvider := &fakeProvider{name: "claude", responses: []string{validResponse}}
	adzunaProvider := &fakeProvider{name: "gemini", responses: []string{validResponse}}

	g := NewGateway(defaultProvider, arbor.NewLogger())
	g.SetSourceProvider(models.SourceAdzuna, adzunaProvider)

	p := hintedPosting("We are hiring a senior data engineer.")
	p.Source = models.SourceAdzuna
	c, err := g.Classify(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "gemini", c.Cost.Provider)
	assert.Equal(t, 0, defaultProvider.calls)
	assert.Equal(t, 1, adzunaProvider.calls)
}

func TestUnitCost(t *testing.T) {
	g := NewGateway(&fakeProvider{name: "claude"}, arbor.NewLogger())
	assert.Greater(t, g.UnitCost(), 0.0)
}
