package classifier

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// BuildGateway wires the configured providers into a gateway. Providers are
// constructed lazily: a backend is only initialized when the default or a
// per-source override names it.
func BuildGateway(ctx context.Context, config *common.Config, logger arbor.ILogger) (*Gateway, error) {
	providers := make(map[common.LLMProvider]Provider)

	build := func(kind common.LLMProvider) (Provider, error) {
		if p, ok := providers[kind]; ok {
			return p, nil
		}
		var (
			p   Provider
			err error
		)
		switch kind {
		case common.LLMProviderClaude:
			p, err = NewClaudeProvider(&config.Claude, logger)
		case common.LLMProviderGemini:
			p, err = NewGeminiProvider(ctx, &config.Gemini, logger)
		default:
			return nil, fmt.Errorf("unknown LLM provider: %s", kind)
		}
		if err != nil {
			return nil, err
		}
		providers[kind] = p
		return p, nil
	}

	defaultKind := config.LLM.DefaultProvider
	if defaultKind == "" {
		defaultKind = common.LLMProviderClaude
	}
	defaultProvider, err := build(defaultKind)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize default provider: %w", err)
	}

	gateway := NewGateway(defaultProvider, logger)
	for sourceName, kind := range config.LLM.SourceProviders {
		source, ok := models.ParseSource(sourceName)
		if !ok {
			return nil, fmt.Errorf("unknown source in llm.source_providers: %s", sourceName)
		}
		provider, err := build(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize provider for %s: %w", sourceName, err)
		}
		gateway.SetSourceProvider(source, provider)
	}

	return gateway, nil
}
