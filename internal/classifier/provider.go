package classifier

import (
	"context"
)

// Completion is one raw LLM response with its token accounting
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Provider abstracts one LLM backend. Implementations are pure RPC wrappers;
// parsing and retry policy live in the gateway.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, user string) (*Completion, error)
}
