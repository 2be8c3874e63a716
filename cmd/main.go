package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/qasrlabs/propsight/internal/analysis"
	cacheredis "github.com/qasrlabs/propsight/internal/cache/redis"
	"github.com/qasrlabs/propsight/internal/config"
	"github.com/qasrlabs/propsight/internal/credentials"
	"github.com/qasrlabs/propsight/internal/domain"
	httpserver "github.com/qasrlabs/propsight/internal/http"
	"github.com/qasrlabs/propsight/internal/http/middleware"
	"github.com/qasrlabs/propsight/internal/llm"
	"github.com/qasrlabs/propsight/internal/observability"
	"github.com/qasrlabs/propsight/internal/provider/gemini"
	"github.com/qasrlabs/propsight/internal/provider/openai"
	"github.com/qasrlabs/propsight/internal/provider/registry"
	"github.com/qasrlabs/propsight/internal/ratelimit"
	"github.com/qasrlabs/propsight/internal/telemetry"
)

const shutdownGrace = 15 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server, logger *zap.Logger) {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				logger.Fatal("server failed", zap.Error(err))
			}
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Error("shutdown failed", zap.Error(err))
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	provide := func(constructor any) {
		if err := container.Provide(constructor); err != nil {
			log.Fatalf("Failed to build container: %v", err)
		}
	}

	// Configuration
	provide(config.Load)
	provide(config.ParseDependenciesConfig)

	// Observability
	provide(observability.InitLogger)

	// Redis is optional; the cache and credential store degrade to
	// pass-through / in-memory when it is disabled.
	provide(func(cfg *config.RedisConfig) *redis.Client {
		if !cfg.Enabled {
			return nil
		}
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	})
	provide(func(client *redis.Client) domain.CompletionCache {
		if client == nil {
			return nil
		}
		return cacheredis.NewCache(client)
	})
	provide(func(cfg *credentials.Config, client *redis.Client) *credentials.Manager {
		var store credentials.Store = credentials.NewMemoryStore()
		if client != nil {
			store = credentials.NewRedisStore(client)
		}
		return credentials.NewManager(cfg, store)
	})

	// Provider Registry
	provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	})

	// Admission gate and telemetry
	provide(ratelimit.New)
	provide(func(logger *zap.Logger) telemetry.Sink {
		return telemetry.NewLogSink(logger)
	})
	provide(telemetry.NewRecorder)

	// Completion client
	provide(llm.NewClient)
	provide(func(client *llm.Client) analysis.Completer {
		return client
	})

	// Domain Services
	provide(analysis.NewService)

	// HTTP Layer
	provide(httpserver.NewHandler)
	provide(func(corsCfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(corsCfg)
	})
	provide(httpserver.NewServer)

	if err := container.Invoke(func(
		reg domain.ProviderRegistry,
		openaiCfg *openai.Config,
		geminiCfg *gemini.Config,
		creds *credentials.Manager,
		logger *zap.Logger,
	) error {
		return registerProviders(context.Background(), reg, openaiCfg, geminiCfg, creds, logger)
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	return container
}

// registerProviders registers whichever providers have a key available.
// The env key wins; when it is absent the OpenAI key is read from the
// server-side credential store, so a key configured through /v1/keys
// takes effect on the next restart.
func registerProviders(
	ctx context.Context,
	reg domain.ProviderRegistry,
	openaiCfg *openai.Config,
	geminiCfg *gemini.Config,
	creds *credentials.Manager,
	logger *zap.Logger,
) error {
	cfg := *openaiCfg
	if cfg.APIKey == "" && creds != nil {
		key, err := creds.APIKey(ctx)
		if err != nil && !errors.Is(err, credentials.ErrNotConfigured) {
			return err
		}
		cfg.APIKey = key
	}

	if cfg.APIKey != "" {
		p, err := openai.NewProvider(cfg)
		if err != nil {
			return err
		}
		if err := reg.Register(ctx, p); err != nil {
			return err
		}
		logger.Info("registered provider", zap.String("provider", p.Name()))
	}

	if geminiCfg.APIKey != "" {
		p, err := gemini.NewProvider(ctx, *geminiCfg)
		if err != nil {
			return err
		}
		if err := reg.Register(ctx, p); err != nil {
			return err
		}
		logger.Info("registered provider", zap.String("provider", p.Name()))
	}

	return nil
}
