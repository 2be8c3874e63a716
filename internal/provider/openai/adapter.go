// Package openai provides an adapter for the OpenAI API using the official
// SDK. It implements the domain.Provider interface, converting between
// domain types and SDK types and normalizing SDK errors into the closed
// taxonomy before they reach shared retry logic.
package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/observability"
)

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client openai.Client
	name   string
}

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// Retries belong to the shared client, not the SDK.
		option.WithMaxRetries(0),
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		name:   "openai",
	}, nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	params := p.toSDKParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		normalized := normalizeError(err)
		logger.Debug("OpenAI API call failed",
			observability.String("kind", string(normalized.Kind)))
		return nil, normalized
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return p.toDomainResult(resp), nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// SupportedModels returns the models this provider is known to serve.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-4",
		"gpt-3.5-turbo",
	}
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(ctx context.Context, model string) bool {
	for _, m := range p.SupportedModels(ctx) {
		if m == model {
			return true
		}
	}
	// Accept unknown gpt-* variants so new model releases work without a
	// code change.
	return strings.HasPrefix(model, "gpt-")
}

// normalizeError maps SDK error shapes into the closed taxonomy.
func normalizeError(err error) *domain.Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "OpenAI request failed"
		}
		normalized := domain.FromStatusCode(apiErr.StatusCode, message)
		normalized.Err = err
		return normalized
	}
	return domain.Normalize(err)
}

// toSDKParams converts a domain request to SDK ChatCompletionNewParams.
func (p *Provider) toSDKParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleUser:
			messages[i] = openai.UserMessage(msg.Content)
		case domain.RoleAssistant:
			messages[i] = openai.AssistantMessage(msg.Content)
		case domain.RoleSystem:
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			// Fallback to user message if role is unknown
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  openai.FunctionParameters(tool.Parameters),
				},
			}
		}
		params.Tools = tools
	}

	return params
}

// toDomainResult converts an SDK response to a domain result.
func (p *Provider) toDomainResult(resp *openai.ChatCompletion) *domain.CompletionResult {
	result := &domain.CompletionResult{
		ID:         resp.ID,
		Model:      string(resp.Model),
		Provider:   p.name,
		FinishTime: time.Now(),
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		result.Content = choice.Message.Content
		result.FinishReason = string(choice.FinishReason)
		if len(choice.Message.ToolCalls) > 0 {
			call := choice.Message.ToolCalls[0]
			result.ToolCall = &domain.ToolCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			}
		}
	}

	return result
}
