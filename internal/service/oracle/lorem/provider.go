package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainoracle "promptforge/internal/domain/services/oracle"
)

// Provider is a mock oracle that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
// Its output never parses as candidate phrases, so it also exercises the
// assembler's deterministic fallback path end to end.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{generator: loremgen.New()}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Complete generates a lorem ipsum completion after a simulated delay.
func (p *Provider) Complete(ctx context.Context, req *domainoracle.CompletionRequest) (*domainoracle.CompletionResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	select {
	case <-time.After(delayFor(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	// Estimate: 1 token ≈ 4 characters
	text := p.generateText(maxTokens * 4)

	return &domainoracle.CompletionResponse{
		Text:         text,
		Model:        req.Model,
		InputTokens:  estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)),
	}, nil
}

// delayFor scales the simulated latency with the model name.
func delayFor(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 2 * time.Second
	}
	return 50 * time.Millisecond
}

// generateText generates lorem ipsum with approximately targetChars characters.
func (p *Provider) generateText(targetChars int) string {
	var sb strings.Builder
	for sb.Len() < targetChars {
		sb.WriteString(p.generator.Sentence(5, 12))
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

func estimateTokens(messages []domainoracle.Message) int {
	chars := 0
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	return chars / 4
}
