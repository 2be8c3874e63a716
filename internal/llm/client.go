// Package llm implements the resilient completion client: one retry /
// backoff / timeout / telemetry loop written once against the provider
// interface, shared by every call site.
package llm

import (
	"context"
	"time"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/observability"
	"github.com/qasrlabs/propsight/internal/ratelimit"
	"github.com/qasrlabs/propsight/internal/telemetry"
)

const defaultTimeout = 90 * time.Second

// Client executes completion requests against a provider registry with
// bounded retries, a wall-clock ceiling and per-outcome telemetry. All
// mutable call state lives on the stack of one Complete invocation;
// concurrent calls share only the limiter and the recorder, both of which
// guard themselves.
type Client struct {
	registry domain.ProviderRegistry
	policy   RetryPolicy
	timeout  time.Duration
	limiter  *ratelimit.Limiter
	recorder *telemetry.Recorder
}

// NewClient creates a completion client. Limiter and recorder are
// optional; pass nil to disable admission gating or telemetry.
func NewClient(
	cfg *Config,
	registry domain.ProviderRegistry,
	limiter *ratelimit.Limiter,
	recorder *telemetry.Recorder,
) *Client {
	timeout := defaultTimeout
	if cfg != nil && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		registry: registry,
		policy:   policyFromConfig(cfg),
		timeout:  timeout,
		limiter:  limiter,
		recorder: recorder,
	}
}

// Complete executes the request. It returns a result only on provider
// success; every failure surfaces as a *domain.Error from the closed
// taxonomy. Attempts are bounded by MaxRetries+1 and the whole call by
// the configured timeout, measured from the first attempt and not reset
// on retry.
func (c *Client) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Admit(); err != nil {
			return nil, err
		}
	}

	provider, err := c.registry.GetByModel(ctx, req.Model)
	if err != nil {
		return nil, domain.NewError(domain.KindNotFound, "no provider serves model %q", req.Model)
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	logger := observability.FromContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr *domain.Error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = domain.WrapError(domain.KindAborted, ctxErr, "call aborted")
			c.record(ctx, req, provider.Name(), start, attempt, nil, lastErr)
			return nil, lastErr
		}

		res, callErr := provider.Complete(ctx, req)
		if callErr == nil {
			c.record(ctx, req, provider.Name(), start, attempt, res, nil)
			return res, nil
		}

		lastErr = domain.Normalize(callErr)
		if !lastErr.Retryable() || attempt >= c.policy.MaxRetries {
			logger.Warn("completion failed",
				observability.String("kind", string(lastErr.Kind)),
				observability.Int("attempts", attempt+1),
				observability.Error(lastErr))
			c.record(ctx, req, provider.Name(), start, attempt, nil, lastErr)
			return nil, lastErr
		}

		delay := c.policy.Delay(attempt + 1)
		logger.Warn("transient provider failure, backing off",
			observability.String("kind", string(lastErr.Kind)),
			observability.Int("attempt", attempt+1),
			observability.Duration("backoff", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = domain.WrapError(domain.KindAborted, ctx.Err(), "call aborted during backoff")
			c.record(ctx, req, provider.Name(), start, attempt, nil, lastErr)
			return nil, lastErr
		case <-timer.C:
		}
	}
}

// validate rejects malformed requests before any admission or network work.
func validate(req *domain.CompletionRequest) *domain.Error {
	if req == nil {
		return domain.NewError(domain.KindInvalidRequest, "request is nil")
	}
	if req.Model == "" {
		return domain.NewError(domain.KindInvalidRequest, "model is required")
	}
	if len(req.Messages) == 0 {
		return domain.NewError(domain.KindInvalidRequest, "at least one message is required")
	}
	for i, msg := range req.Messages {
		if msg.Content == "" {
			return domain.NewError(domain.KindInvalidRequest, "message %d has empty content", i)
		}
	}
	return nil
}

// record appends one terminal outcome when telemetry is enabled.
func (c *Client) record(
	ctx context.Context,
	req *domain.CompletionRequest,
	providerName string,
	start time.Time,
	retries int,
	res *domain.CompletionResult,
	callErr *domain.Error,
) {
	if c.recorder == nil {
		return
	}

	now := time.Now()
	rec := telemetry.Record{
		RequestID:  observability.GetRequestID(ctx),
		Endpoint:   observability.GetEndpoint(ctx),
		Provider:   providerName,
		Model:      req.Model,
		StartedAt:  start,
		FinishedAt: now,
		Latency:    now.Sub(start),
		Retries:    retries,
		Success:    callErr == nil,
	}
	if res != nil {
		rec.Model = res.Model
		rec.PromptTokens = res.Usage.PromptTokens
		rec.CompletionTokens = res.Usage.CompletionTokens
	}
	if callErr != nil {
		rec.ErrorText = callErr.Error()
	}
	c.recorder.Record(rec)
}
