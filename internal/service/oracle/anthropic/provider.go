package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"promptforge/internal/domain"
	domainoracle "promptforge/internal/domain/services/oracle"
)

// Provider implements the Oracle interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{client: &client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete requests a single text completion from Claude.
func (p *Provider) Complete(ctx context.Context, req *domainoracle.CompletionRequest) (*domainoracle.CompletionResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	messages, system, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("convert messages: %w", err)
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*req.Temperature)
	}
	if system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{Type: "text", Text: system},
		}
	}

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, classifyError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &domainoracle.CompletionResponse{
		Text:         text.String(),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

// convertMessages converts role-tagged messages to the Anthropic SDK format.
// System messages are folded into the request-level system prompt.
func convertMessages(messages []domainoracle.Message) ([]anthropic.MessageParam, string, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	var system []string

	for i, msg := range messages {
		switch msg.Role {
		case domainoracle.RoleSystem:
			system = append(system, msg.Content)
		case domainoracle.RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case domainoracle.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return nil, "", fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return result, strings.Join(system, "\n\n"), nil
}

// classifyError maps SDK failures onto the domain's oracle error taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.OracleError{Kind: domain.OracleTimeout, Message: "anthropic request timed out", Err: err}
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 401 || apierr.StatusCode == 403:
			return &domain.OracleError{Kind: domain.OracleAuthError, Message: "anthropic authentication failed", Err: err}
		case apierr.StatusCode == 429:
			return &domain.OracleError{
				Kind:       domain.OracleRateLimited,
				Message:    "anthropic rate limit exceeded",
				RetryAfter: retryAfterHint(apierr),
				Err:        err,
			}
		case apierr.StatusCode == 408:
			return &domain.OracleError{Kind: domain.OracleTimeout, Message: "anthropic request timed out", Err: err}
		default:
			return &domain.OracleError{Kind: domain.OracleServerError, Message: fmt.Sprintf("anthropic error (status %d)", apierr.StatusCode), Err: err}
		}
	}

	return &domain.OracleError{Kind: domain.OracleServerError, Message: "anthropic request failed", Err: err}
}

// retryAfterHint extracts the Retry-After header as a duration, if present.
func retryAfterHint(apierr *anthropic.Error) time.Duration {
	if apierr.Response == nil {
		return 0
	}
	header := apierr.Response.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
