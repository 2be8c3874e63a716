package llm

// Config contains settings for the resilient completion client.
// Backoff grows exponentially from InitialBackoffMS, capped at MaxBackoffMS,
// with up to 30% random jitter on top. Timeout bounds the whole call
// including retries, measured from the start of the first attempt.
type Config struct {
	MaxRetries       int `env:"LLM_MAX_RETRIES"        envDefault:"3"`
	InitialBackoffMS int `env:"LLM_INITIAL_BACKOFF_MS" envDefault:"500"`
	MaxBackoffMS     int `env:"LLM_MAX_BACKOFF_MS"     envDefault:"8000"`
	TimeoutSeconds   int `env:"LLM_TIMEOUT"            envDefault:"90"`
}
