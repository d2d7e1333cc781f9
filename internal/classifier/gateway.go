package classifier

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

const (
	// Description gate. With structured hints the model can work from very
	// little text; without them short bodies are noise.
	minLengthWithHints    = 20
	minLengthWithoutHints = 50

	// Transient transport failures get one retry. Rate limits and schema
	// violations never do.
	maxAttempts = 2
)

// USD per million tokens. Unknown models fall back to a conservative rate.
var modelPricing = map[string]struct{ input, output float64 }{
	"claude-haiku-3-5-20241022": {0.80, 4.00},
	"claude-sonnet-4-20250514":  {3.00, 15.00},
	"gemini-3-flash-preview":    {0.30, 2.50},
	"gemini-2.5-flash":          {0.30, 2.50},
}

var defaultPricing = struct{ input, output float64 }{1.00, 5.00}

// Gateway turns raw postings into classifications. It is pure with respect
// to external state: no database writes, so retrying a call is always safe.
type Gateway struct {
	defaultProvider Provider
	bySource        map[models.Source]Provider
	logger          arbor.ILogger
}

// NewGateway creates a gateway over the default provider
func NewGateway(defaultProvider Provider, logger arbor.ILogger) *Gateway {
	return &Gateway{
		defaultProvider: defaultProvider,
		bySource:        make(map[models.Source]Provider),
		logger:          logger,
	}
}

// SetSourceProvider pins a provider to one source for A/B comparison
func (g *Gateway) SetSourceProvider(source models.Source, provider Provider) {
	g.bySource[source] = provider
}

func (g *Gateway) providerFor(source models.Source) Provider {
	if p, ok := g.bySource[source]; ok {
		return p
	}
	return g.defaultProvider
}

// Classify runs one posting through the LLM and parses the result. The
// source tag selects the provider; cost accounting is attached to the
// returned classification.
func (g *Gateway) Classify(ctx context.Context, raw *models.RawPosting) (*models.Classification, error) {
	text := strings.TrimSpace(raw.RawText)
	minLength := minLengthWithoutHints
	if raw.HasStructuredHints() {
		minLength = minLengthWithHints
	}
	if utf8.RuneCountInString(text) < minLength {
		return nil, &Error{Kind: KindContentTooShort, Message: "description below minimum length"}
	}

	provider := g.providerFor(raw.Source)
	user, err := BuildUserPrompt(raw)
	if err != nil {
		return nil, &Error{Kind: KindTransportError, Message: "failed to build prompt", Err: err}
	}

	start := time.Now()
	var completion *Completion
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		completion, err = provider.Complete(ctx, systemPrompt, user)
		if err == nil {
			break
		}
		if isRateLimited(err) {
			return nil, &Error{Kind: KindRateLimited, Message: "provider rate limited", Err: err}
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			return nil, &Error{Kind: KindTransportError, Message: "provider call failed", Err: err}
		}
		g.logger.Warn().
			Err(err).
			Str("provider", provider.Name()).
			Int("attempt", attempt).
			Msg("Classification call failed, retrying")
	}

	classification, err := ParseClassification(completion.Text)
	if err != nil {
		return nil, err
	}

	classification.Cost = models.CostMeta{
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		CostUSD:      costUSD(provider.Model(), completion.InputTokens, completion.OutputTokens),
		LatencyMS:    time.Since(start).Milliseconds(),
		Provider:     provider.Name(),
		Model:        provider.Model(),
	}
	return classification, nil
}

// UnitCost estimates the cost of one classification on the default provider.
// Used to value the savings from pre-classification filtering.
func (g *Gateway) UnitCost() float64 {
	// nominal posting: ~1500 input tokens, ~400 output tokens
	return costUSD(g.defaultProvider.Model(), 1500, 400)
}

func costUSD(model string, inputTokens, outputTokens int64) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		pricing = defaultPricing
	}
	return float64(inputTokens)/1e6*pricing.input + float64(outputTokens)/1e6*pricing.output
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit")
}
