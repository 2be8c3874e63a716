package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/qasrlabs/propsight/internal/analysis"
	"github.com/qasrlabs/propsight/internal/credentials"
	"github.com/qasrlabs/propsight/internal/llm"
	"github.com/qasrlabs/propsight/internal/provider/gemini"
	"github.com/qasrlabs/propsight/internal/provider/openai"
	"github.com/qasrlabs/propsight/internal/ratelimit"
	"github.com/qasrlabs/propsight/internal/telemetry"
)

// Config represents the service configuration.
type Config struct {
	Server      ServerConfig
	CORS        CORSConfig
	Redis       RedisConfig
	OpenAI      openai.Config
	Gemini      gemini.Config
	Client      llm.Config
	RateLimit   ratelimit.Config
	Telemetry   telemetry.Config
	Analysis    analysis.Config
	Credentials credentials.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RedisConfig contains settings for the response cache and credential store.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED"  envDefault:"false"`
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*RedisConfig
	OpenAI      *openai.Config
	Gemini      *gemini.Config
	Client      *llm.Config
	RateLimit   *ratelimit.Config
	Telemetry   *telemetry.Config
	Analysis    *analysis.Config
	Credentials *credentials.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Redis,
		&cfg.OpenAI,
		&cfg.Gemini,
		&cfg.Client,
		&cfg.RateLimit,
		&cfg.Telemetry,
		&cfg.Analysis,
		&cfg.Credentials,
	}
}
