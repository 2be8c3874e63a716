// Package analysis implements the investor-facing operations: each one
// builds a prompt from search criteria, runs it through the shared
// completion client and returns the model's text. Every operation degrades
// to locally generated placeholder data when the provider is unavailable.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/ingest"
	"github.com/qasrlabs/propsight/internal/observability"
)

// Completer executes one completion request. Implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error)
}

const defaultTemperature = 0.4

// Service owns prompt construction and the fallback policy for all
// analysis endpoints.
type Service struct {
	completer Completer
	cache     domain.CompletionCache
	chunker   *ingest.Chunker
	cfg       Config
}

// NewService creates the analysis service. Cache may be nil.
func NewService(cfg *Config, completer Completer, cache domain.CompletionCache) *Service {
	service := &Service{completer: completer, cache: cache}
	if cfg != nil {
		service.cfg = *cfg
	}
	if service.cfg.DefaultModel == "" {
		service.cfg.DefaultModel = "gpt-4o-mini"
	}
	if service.cfg.CacheTTLMinutes <= 0 {
		service.cfg.CacheTTLMinutes = 60
	}
	if service.cfg.TranslateChunkTokens <= 0 {
		service.cfg.TranslateChunkTokens = 1500
	}
	if chunker, err := ingest.NewChunker(service.cfg.DefaultModel, service.cfg.TranslateChunkTokens, 0); err == nil {
		service.chunker = chunker
	}
	return service
}

// MarketAnalysis produces a market report for the given search criteria.
func (s *Service) MarketAnalysis(ctx context.Context, q MarketQuery) (*Report, error) {
	if q.Location == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "location is required")
	}
	if q.PropertyType == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "propertyType is required")
	}
	return s.run(ctx, "market", q.Model, marketPrompt(q), func() string {
		return fallbackMarket(q)
	})
}

// InvestmentAdvice produces investment guidance for the given criteria.
func (s *Service) InvestmentAdvice(ctx context.Context, q InvestmentQuery) (*Report, error) {
	if q.Location == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "location is required")
	}
	if q.Goal == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "goal is required")
	}
	return s.run(ctx, "investment", q.Model, investmentPrompt(q), func() string {
		return fallbackInvestment(q)
	})
}

// TrendReport produces a trend narrative for an area.
func (s *Service) TrendReport(ctx context.Context, q TrendQuery) (*Report, error) {
	if q.Area == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "area is required")
	}
	return s.run(ctx, "trends", q.Model, trendPrompt(q), func() string {
		return fallbackTrend(q)
	})
}

// Translate relays a translation request to the model. Input text is
// sanitized first, and documents past the chunk budget are translated
// chunk by chunk. There is no local translation engine, so failures have
// no meaningful fallback and are surfaced as-is.
func (s *Service) Translate(ctx context.Context, q TranslateQuery) (*Report, error) {
	q.Text = ingest.Sanitize(q.Text)
	if q.Text == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "text is required")
	}
	if q.TargetLanguage == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "targetLanguage is required")
	}

	chunks := s.splitForTranslation(q.Text)
	if len(chunks) <= 1 {
		return s.run(ctx, "translate", q.Model, translatePrompt(q), nil)
	}

	parts := make([]string, 0, len(chunks))
	var report *Report
	for _, chunk := range chunks {
		cq := q
		cq.Text = chunk.Text
		rep, err := s.run(ctx, "translate", q.Model, translatePrompt(cq), nil)
		if err != nil {
			return nil, err
		}
		parts = append(parts, rep.Content)
		report = rep
	}
	report.Content = strings.Join(parts, "\n\n")
	return report, nil
}

// splitForTranslation cuts sanitized text into token-bounded chunks.
func (s *Service) splitForTranslation(text string) []ingest.Chunk {
	if s.chunker == nil {
		return []ingest.Chunk{{Text: text}}
	}
	return s.chunker.Split(text)
}

// run executes one prompt with cache lookup and the fallback policy.
// fallback may be nil when an operation has no placeholder representation.
func (s *Service) run(
	ctx context.Context,
	endpoint string,
	modelOverride string,
	prompt string,
	fallback func() string,
) (*Report, error) {
	model := s.cfg.DefaultModel
	if modelOverride != "" {
		model = modelOverride
	}

	ctx = observability.WithEndpoint(ctx, endpoint)
	ctx = observability.WithModel(ctx, model)
	logger := observability.FromContext(ctx)

	req := &domain.CompletionRequest{
		Model: model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: prompt},
		},
		Temperature: defaultTemperature,
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, req)
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("cache get failed, continuing without cache", observability.Error(err))
		}
		if cached != nil {
			logger.Info("returning cached analysis")
			return s.report(endpoint, cached, false), nil
		}
	}

	res, err := s.completer.Complete(ctx, req)
	if err != nil {
		// Invalid input is the user's to fix; everything else triggers
		// the fallback path when one exists.
		if domain.KindOf(err) == domain.KindInvalidRequest || fallback == nil || !s.cfg.FallbackEnabled {
			return nil, err
		}
		logger.Warn("provider call failed, serving fallback data",
			observability.String("kind", string(domain.KindOf(err))),
			observability.Error(err))
		return &Report{
			Endpoint:    endpoint,
			Content:     fallback(),
			Fallback:    true,
			GeneratedAt: time.Now(),
		}, nil
	}

	if s.cache != nil {
		ttl := time.Duration(s.cfg.CacheTTLMinutes) * time.Minute
		if setErr := s.cache.Set(ctx, req, res, ttl); setErr != nil {
			logger.Warn("failed to store analysis in cache", observability.Error(setErr))
		}
	}

	return s.report(endpoint, res, false), nil
}

func (s *Service) report(endpoint string, res *domain.CompletionResult, fallback bool) *Report {
	return &Report{
		Endpoint:    endpoint,
		Content:     res.Content,
		Model:       res.Model,
		Provider:    res.Provider,
		Fallback:    fallback,
		GeneratedAt: time.Now(),
	}
}
