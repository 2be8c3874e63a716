// Package gemini provides an adapter for the Gemini API using the
// google.golang.org/genai SDK. It implements the domain.Provider interface
// and normalizes SDK errors into the closed taxonomy before they reach
// shared retry logic.
package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/observability"
)

// Provider implements the domain.Provider interface for Gemini.
type Provider struct {
	client *genai.Client
	name   string
}

// NewProvider creates a new Gemini provider.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		name:   "gemini",
	}, nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini API")

	contents, config := p.toSDKParams(req)

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		normalized := normalizeError(err)
		logger.Debug("Gemini API call failed",
			observability.String("kind", string(normalized.Kind)))
		return nil, normalized
	}

	result := p.toDomainResult(req.Model, resp)
	logger.Debug("Gemini API call succeeded",
		observability.Int("prompt_tokens", result.Usage.PromptTokens),
		observability.Int("completion_tokens", result.Usage.CompletionTokens),
	)

	return result, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// SupportedModels returns the models this provider is known to serve.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	}
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(ctx context.Context, model string) bool {
	for _, m := range p.SupportedModels(ctx) {
		if m == model {
			return true
		}
	}
	return strings.HasPrefix(model, "gemini-")
}

// normalizeError maps SDK error shapes into the closed taxonomy.
func normalizeError(err error) *domain.Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "Gemini request failed"
		}
		normalized := domain.FromStatusCode(apiErr.Code, message)
		normalized.Err = err
		return normalized
	}
	return domain.Normalize(err)
}

// toSDKParams converts a domain request to genai contents and config.
// Gemini carries the system prompt in a dedicated system instruction, so
// system messages are split out of the turn list.
func (p *Provider) toSDKParams(req *domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}

	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	var systemParts []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case domain.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	if len(systemParts) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}

	if len(req.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tool := range req.Tools {
			declarations[i] = &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.Parameters,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return contents, config
}

// toDomainResult converts an SDK response to a domain result.
func (p *Provider) toDomainResult(requestedModel string, resp *genai.GenerateContentResponse) *domain.CompletionResult {
	result := &domain.CompletionResult{
		Model:      requestedModel,
		Provider:   p.name,
		Content:    resp.Text(),
		FinishTime: time.Now(),
	}

	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}

	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = domain.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		result.FinishReason = strings.ToLower(string(candidate.FinishReason))
		for _, call := range resp.FunctionCalls() {
			if call != nil {
				args, _ := jsonMarshal(call.Args)
				result.ToolCall = &domain.ToolCall{Name: call.Name, Arguments: args}
				break
			}
		}
	}

	return result
}
