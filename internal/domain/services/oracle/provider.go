package oracle

import "context"

// Role tags a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged message in the conversation sent to the oracle.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest contains the parameters for a single text completion.
type CompletionRequest struct {
	// Messages is the ordered list of role-tagged messages
	Messages []Message `json:"messages"`

	// Model is the model identifier (e.g. "claude-haiku-4-5", "lorem-fast")
	Model string `json:"model"`

	// Temperature controls sampling randomness; nil uses the provider default
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens caps output length; 0 uses the provider default
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse is the oracle's single text completion.
type CompletionResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Oracle is the external natural-language completion provider. It is
// unreliable remote I/O: callers must be prepared for any of the
// domain.OracleError kinds and keep a deterministic fallback where one exists.
type Oracle interface {
	// Complete requests a single text completion
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g. "anthropic", "lorem")
	Name() string

	// SupportsModel returns true if the provider serves the given model
	SupportsModel(model string) bool
}
