package analysis_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qasrlabs/propsight/internal/analysis"
	"github.com/qasrlabs/propsight/internal/domain"
)

// stubCompleter echoes the prompt or fails with a scripted error.
type stubCompleter struct {
	err      error
	lastReq  *domain.CompletionRequest
	response string
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	s.lastReq = req
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	content := s.response
	if content == "" {
		content = "model analysis"
	}
	return &domain.CompletionResult{
		ID:       "cmpl-1",
		Model:    req.Model,
		Provider: "openai",
		Content:  content,
	}, nil
}

// memoryCache is an in-memory CompletionCache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*domain.CompletionResult
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*domain.CompletionResult)}
}

func (c *memoryCache) key(req *domain.CompletionRequest) string {
	return req.Model + "|" + req.Messages[len(req.Messages)-1].Content
}

func (c *memoryCache) Get(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if res, ok := c.entries[c.key(req)]; ok {
		return res, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *memoryCache) Set(_ context.Context, req *domain.CompletionRequest, res *domain.CompletionResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[c.key(req)] = res
	return nil
}

func testConfig() *analysis.Config {
	return &analysis.Config{
		DefaultModel:    "gpt-4o-mini",
		CacheTTLMinutes: 60,
		FallbackEnabled: true,
	}
}

func TestMarketAnalysis(t *testing.T) {
	ctx := context.Background()

	t.Run("should require location and propertyType", func(t *testing.T) {
		service := analysis.NewService(testConfig(), &stubCompleter{}, nil)

		_, err := service.MarketAnalysis(ctx, analysis.MarketQuery{PropertyType: "apartment"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

		_, err = service.MarketAnalysis(ctx, analysis.MarketQuery{Location: "Dubai Marina"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should return the model response", func(t *testing.T) {
		completer := &stubCompleter{response: "marina looks strong"}
		service := analysis.NewService(testConfig(), completer, nil)

		report, err := service.MarketAnalysis(ctx, analysis.MarketQuery{
			Location:     "Dubai Marina",
			PropertyType: "apartment",
			Bedrooms:     2,
		})

		require.NoError(t, err)
		require.Equal(t, "marina looks strong", report.Content)
		require.Equal(t, "market", report.Endpoint)
		require.False(t, report.Fallback)

		// Prompt carries the criteria; request carries the default model.
		require.Equal(t, "gpt-4o-mini", completer.lastReq.Model)
		require.Contains(t, completer.lastReq.Messages[1].Content, "Dubai Marina")
		require.Contains(t, completer.lastReq.Messages[1].Content, "2-bedroom")
		require.Equal(t, domain.RoleSystem, completer.lastReq.Messages[0].Role)
	})

	t.Run("should honor the model override", func(t *testing.T) {
		completer := &stubCompleter{}
		service := analysis.NewService(testConfig(), completer, nil)

		_, err := service.MarketAnalysis(ctx, analysis.MarketQuery{
			Location:     "JVC",
			PropertyType: "studio",
			Model:        "gemini-2.0-flash",
		})

		require.NoError(t, err)
		require.Equal(t, "gemini-2.0-flash", completer.lastReq.Model)
	})

	t.Run("should fall back on provider failure", func(t *testing.T) {
		completer := &stubCompleter{err: domain.NewError(domain.KindServiceUnavailable, "upstream down")}
		service := analysis.NewService(testConfig(), completer, nil)

		report, err := service.MarketAnalysis(ctx, analysis.MarketQuery{
			Location:     "Business Bay",
			PropertyType: "apartment",
		})

		require.NoError(t, err)
		require.True(t, report.Fallback)
		require.Contains(t, report.Content, "Business Bay")
		require.Contains(t, report.Content, "temporarily unavailable")
	})

	t.Run("fallback content should be deterministic per query", func(t *testing.T) {
		completer := &stubCompleter{err: domain.NewError(domain.KindNetwork, "reset")}
		service := analysis.NewService(testConfig(), completer, nil)

		q := analysis.MarketQuery{Location: "Downtown", PropertyType: "penthouse"}
		first, err := service.MarketAnalysis(ctx, q)
		require.NoError(t, err)
		second, err := service.MarketAnalysis(ctx, q)
		require.NoError(t, err)

		require.Equal(t, first.Content, second.Content)
	})

	t.Run("should surface invalid request instead of falling back", func(t *testing.T) {
		completer := &stubCompleter{err: domain.NewError(domain.KindInvalidRequest, "bad prompt")}
		service := analysis.NewService(testConfig(), completer, nil)

		_, err := service.MarketAnalysis(ctx, analysis.MarketQuery{
			Location:     "JLT",
			PropertyType: "apartment",
		})

		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should not fall back when disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.FallbackEnabled = false
		completer := &stubCompleter{err: domain.NewError(domain.KindServiceUnavailable, "down")}
		service := analysis.NewService(cfg, completer, nil)

		_, err := service.MarketAnalysis(ctx, analysis.MarketQuery{
			Location:     "JLT",
			PropertyType: "apartment",
		})

		require.Equal(t, domain.KindServiceUnavailable, domain.KindOf(err))
	})

	t.Run("should serve repeated queries from cache", func(t *testing.T) {
		completer := &stubCompleter{response: "cached body"}
		cache := newMemoryCache()
		service := analysis.NewService(testConfig(), completer, cache)

		q := analysis.MarketQuery{Location: "Palm Jumeirah", PropertyType: "villa"}

		first, err := service.MarketAnalysis(ctx, q)
		require.NoError(t, err)
		require.Equal(t, 1, cache.sets)

		completer.err = domain.NewError(domain.KindServiceUnavailable, "down")
		second, err := service.MarketAnalysis(ctx, q)
		require.NoError(t, err)
		require.Equal(t, first.Content, second.Content)
		require.False(t, second.Fallback)
	})
}

func TestInvestmentAdvice(t *testing.T) {
	ctx := context.Background()

	t.Run("should require location and goal", func(t *testing.T) {
		service := analysis.NewService(testConfig(), &stubCompleter{}, nil)

		_, err := service.InvestmentAdvice(ctx, analysis.InvestmentQuery{Goal: "rental-income"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

		_, err = service.InvestmentAdvice(ctx, analysis.InvestmentQuery{Location: "DIFC"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should fall back on failure", func(t *testing.T) {
		completer := &stubCompleter{err: domain.NewError(domain.KindRateLimited, "quota")}
		service := analysis.NewService(testConfig(), completer, nil)

		report, err := service.InvestmentAdvice(ctx, analysis.InvestmentQuery{
			Location: "DIFC",
			Goal:     "capital-growth",
		})

		require.NoError(t, err)
		require.True(t, report.Fallback)
		require.Equal(t, "investment", report.Endpoint)
	})
}

func TestTrendReport(t *testing.T) {
	ctx := context.Background()

	t.Run("should require area", func(t *testing.T) {
		service := analysis.NewService(testConfig(), &stubCompleter{}, nil)
		_, err := service.TrendReport(ctx, analysis.TrendQuery{})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should default the period in the prompt", func(t *testing.T) {
		completer := &stubCompleter{}
		service := analysis.NewService(testConfig(), completer, nil)

		_, err := service.TrendReport(ctx, analysis.TrendQuery{Area: "Jumeirah"})
		require.NoError(t, err)
		require.Contains(t, completer.lastReq.Messages[1].Content, "last 12 months")
	})
}

func TestTranslate(t *testing.T) {
	ctx := context.Background()

	t.Run("should require text and target language", func(t *testing.T) {
		service := analysis.NewService(testConfig(), &stubCompleter{}, nil)

		_, err := service.Translate(ctx, analysis.TranslateQuery{TargetLanguage: "Arabic"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

		_, err = service.Translate(ctx, analysis.TranslateQuery{Text: "hello"})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should surface provider failure without fallback", func(t *testing.T) {
		completer := &stubCompleter{err: domain.NewError(domain.KindServiceUnavailable, "down")}
		service := analysis.NewService(testConfig(), completer, nil)

		_, err := service.Translate(ctx, analysis.TranslateQuery{
			Text:           "Two bedroom apartment",
			TargetLanguage: "Arabic",
		})

		require.Equal(t, domain.KindServiceUnavailable, domain.KindOf(err))
	})

	t.Run("should sanitize the text before prompting", func(t *testing.T) {
		completer := &stubCompleter{}
		service := analysis.NewService(testConfig(), completer, nil)

		_, err := service.Translate(ctx, analysis.TranslateQuery{
			Text:           "Palm​  Jumeirah listing\x00",
			TargetLanguage: "Arabic",
		})

		require.NoError(t, err)
		prompt := completer.lastReq.Messages[1].Content
		require.Contains(t, prompt, "Palm Jumeirah")
		require.NotContains(t, prompt, "​")
		require.NotContains(t, prompt, "\x00")
	})

	t.Run("should reject text that sanitizes to nothing", func(t *testing.T) {
		service := analysis.NewService(testConfig(), &stubCompleter{}, nil)

		_, err := service.Translate(ctx, analysis.TranslateQuery{
			Text:           "​ ‌\n",
			TargetLanguage: "Arabic",
		})
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should translate long documents chunk by chunk", func(t *testing.T) {
		cfg := testConfig()
		cfg.TranslateChunkTokens = 25
		completer := &stubCompleter{response: "translated part"}
		service := analysis.NewService(cfg, completer, nil)

		long := strings.Repeat("Spacious two bedroom apartment with full marina view. ", 30)
		report, err := service.Translate(ctx, analysis.TranslateQuery{
			Text:           long,
			TargetLanguage: "Arabic",
		})

		require.NoError(t, err)
		require.Greater(t, completer.calls, 1)
		require.Equal(t, completer.calls, strings.Count(report.Content, "translated part"))
	})
}
