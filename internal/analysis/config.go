package analysis

// Config contains analysis service settings. TranslateChunkTokens bounds
// how much text goes into a single translation call; longer documents are
// split and translated chunk by chunk.
type Config struct {
	DefaultModel         string `env:"ANALYSIS_MODEL"                  envDefault:"gpt-4o-mini"`
	CacheTTLMinutes      int    `env:"ANALYSIS_CACHE_TTL_MINUTES"      envDefault:"60"`
	FallbackEnabled      bool   `env:"ANALYSIS_FALLBACK_ENABLED"       envDefault:"true"`
	TranslateChunkTokens int    `env:"ANALYSIS_TRANSLATE_CHUNK_TOKENS" envDefault:"1500"`
}
