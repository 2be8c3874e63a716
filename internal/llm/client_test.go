package llm_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/llm"
	"github.com/qasrlabs/propsight/internal/observability"
	"github.com/qasrlabs/propsight/internal/ratelimit"
	"github.com/qasrlabs/propsight/internal/telemetry"
)

// scriptedProvider returns a scripted sequence of outcomes: a nil entry
// succeeds, an error entry fails. Calls beyond the script succeed.
type scriptedProvider struct {
	mu           sync.Mutex
	script       []error
	calls        int
	onCall       func(call int)
	content      string
	seenProvider string
}

func (p *scriptedProvider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	p.mu.Lock()
	call := p.calls
	p.calls++
	p.seenProvider = observability.GetProvider(ctx)
	var scripted error
	if call < len(p.script) {
		scripted = p.script[call]
	}
	onCall := p.onCall
	p.mu.Unlock()

	if onCall != nil {
		onCall(call)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scripted != nil {
		return nil, scripted
	}

	content := p.content
	if content == "" {
		content = "analysis text"
	}
	return &domain.CompletionResult{
		ID:       fmt.Sprintf("cmpl-%d", call),
		Model:    req.Model,
		Provider: p.Name(),
		Content:  content,
		Usage:    domain.Usage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46},
	}, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) SupportedModels(_ context.Context) []string {
	return []string{"gpt-4o-mini"}
}

func (p *scriptedProvider) IsModelSupported(_ context.Context, model string) bool {
	return model == "gpt-4o-mini"
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// singleRegistry serves one provider for its supported models.
type singleRegistry struct {
	provider domain.Provider
}

func (r *singleRegistry) Register(_ context.Context, _ domain.Provider) error { return nil }

func (r *singleRegistry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if !r.provider.IsModelSupported(ctx, model) {
		return nil, fmt.Errorf("no provider found for model: %s", model)
	}
	return r.provider, nil
}

func fastConfig(maxRetries int) *llm.Config {
	return &llm.Config{
		MaxRetries:       maxRetries,
		InitialBackoffMS: 1,
		MaxBackoffMS:     2,
		TimeoutSeconds:   10,
	}
}

func validRequest() *domain.CompletionRequest {
	return &domain.CompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "you are an analyst"},
			{Role: domain.RoleUser, Content: "analyze Dubai Marina"},
		},
	}
}

func TestClientComplete(t *testing.T) {
	t.Run("should return result on first success", func(t *testing.T) {
		provider := &scriptedProvider{}
		recorder := telemetry.NewRecorder(&telemetry.Config{}, nil)
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, recorder)

		res, err := client.Complete(context.Background(), validRequest())

		require.NoError(t, err)
		require.Equal(t, "analysis text", res.Content)
		require.Equal(t, 1, provider.callCount())

		records := recorder.Snapshot()
		require.Len(t, records, 1)
		require.True(t, records[0].Success)
		require.Equal(t, 0, records[0].Retries)
		require.Equal(t, 12, records[0].PromptTokens)
	})

	t.Run("should tag the call context with the provider name", func(t *testing.T) {
		provider := &scriptedProvider{}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		_, err := client.Complete(context.Background(), validRequest())

		require.NoError(t, err)
		require.Equal(t, "scripted", provider.seenProvider)
	})

	t.Run("should retry transient 429s and succeed", func(t *testing.T) {
		provider := &scriptedProvider{script: []error{
			domain.FromStatusCode(http.StatusTooManyRequests, "rate limited"),
			domain.FromStatusCode(http.StatusTooManyRequests, "rate limited"),
			nil,
		}}
		recorder := telemetry.NewRecorder(&telemetry.Config{}, nil)
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, recorder)

		res, err := client.Complete(context.Background(), validRequest())

		require.NoError(t, err)
		require.NotNil(t, res)
		require.Equal(t, 3, provider.callCount())

		records := recorder.Snapshot()
		require.Len(t, records, 1)
		require.True(t, records[0].Success)
		require.Equal(t, 2, records[0].Retries)
	})

	t.Run("should perform at most maxRetries+1 attempts", func(t *testing.T) {
		provider := &scriptedProvider{script: []error{
			domain.FromStatusCode(http.StatusServiceUnavailable, "down"),
			domain.FromStatusCode(http.StatusServiceUnavailable, "down"),
			domain.FromStatusCode(http.StatusServiceUnavailable, "down"),
			domain.FromStatusCode(http.StatusServiceUnavailable, "down"),
			domain.FromStatusCode(http.StatusServiceUnavailable, "down"),
		}}
		recorder := telemetry.NewRecorder(&telemetry.Config{}, nil)
		client := llm.NewClient(fastConfig(2), &singleRegistry{provider}, nil, recorder)

		_, err := client.Complete(context.Background(), validRequest())

		require.Error(t, err)
		require.Equal(t, domain.KindServiceUnavailable, domain.KindOf(err))
		require.Equal(t, 3, provider.callCount())

		records := recorder.Snapshot()
		require.Len(t, records, 1)
		require.False(t, records[0].Success)
		require.NotEmpty(t, records[0].ErrorText)
	})

	t.Run("should not retry auth errors", func(t *testing.T) {
		provider := &scriptedProvider{script: []error{
			domain.FromStatusCode(http.StatusUnauthorized, "invalid api key"),
		}}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		_, err := client.Complete(context.Background(), validRequest())

		require.Equal(t, domain.KindAuth, domain.KindOf(err))
		require.Equal(t, 1, provider.callCount())
	})

	t.Run("should reject empty messages without any network call", func(t *testing.T) {
		provider := &scriptedProvider{}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		req := validRequest()
		req.Messages = nil
		_, err := client.Complete(context.Background(), req)

		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("should reject missing model without any network call", func(t *testing.T) {
		provider := &scriptedProvider{}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		req := validRequest()
		req.Model = ""
		_, err := client.Complete(context.Background(), req)

		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("should abort before first attempt when already cancelled", func(t *testing.T) {
		provider := &scriptedProvider{}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Complete(ctx, validRequest())

		require.Equal(t, domain.KindAborted, domain.KindOf(err))
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("should abort during backoff without further attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		provider := &scriptedProvider{
			script: []error{domain.FromStatusCode(http.StatusTooManyRequests, "rate limited")},
		}
		// Cancel while the first attempt is in flight; the client must
		// notice at the backoff sleep and stop.
		provider.onCall = func(int) { cancel() }

		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		_, err := client.Complete(ctx, validRequest())

		require.Equal(t, domain.KindAborted, domain.KindOf(err))
		require.Equal(t, 1, provider.callCount())
	})

	t.Run("should surface admission gate rejection without attempts", func(t *testing.T) {
		provider := &scriptedProvider{}
		limiter := ratelimit.New(&ratelimit.Config{MaxRequestsPerMinute: 1, MaxRequestsPerDay: 100})
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, limiter, nil)

		_, err := client.Complete(context.Background(), validRequest())
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), validRequest())
		require.Equal(t, domain.KindRateLimited, domain.KindOf(err))
		require.Equal(t, 1, provider.callCount())
	})

	t.Run("should fail with not found for unknown model", func(t *testing.T) {
		provider := &scriptedProvider{}
		client := llm.NewClient(fastConfig(3), &singleRegistry{provider}, nil, nil)

		req := validRequest()
		req.Model = "claude-3-opus"
		_, err := client.Complete(context.Background(), req)

		require.Equal(t, domain.KindNotFound, domain.KindOf(err))
		require.Equal(t, 0, provider.callCount())
	})
}
