package domain

import "time"

// Message roles accepted by every provider adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a unified LLM request. It is treated as
// immutable once handed to a client: adapters copy what they need and
// never write back into it.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Tools       []ToolDeclaration `json:"tools,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Message represents a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ToolDeclaration describes a function the model may call. Parameters is a
// JSON-schema object passed through to the provider untouched.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// CompletionResult represents a unified LLM response. At most one result
// exists per request; a failed call produces a *Error instead.
type CompletionResult struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"` // model actually used, as reported by the provider
	Provider     string    `json:"provider"`
	Content      string    `json:"content"`
	ToolCall     *ToolCall `json:"tool_call,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        Usage     `json:"usage"`
	FinishTime   time.Time `json:"finish_time"`
}

// ToolCall carries a function invocation requested by the model.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage tracks token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
