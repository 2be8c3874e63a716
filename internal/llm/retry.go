package llm

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultJitterFraction is the ceiling on random jitter added to each
// backoff delay, as a fraction of the base delay.
const DefaultJitterFraction = 0.30

// RetryPolicy controls how transient failures are retried with exponential
// backoff. A call performs at most MaxRetries+1 attempts.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 3 retries, 500ms initial backoff, 8s cap, 30% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		JitterFraction: DefaultJitterFraction,
	}
}

// policyFromConfig builds a RetryPolicy from client configuration.
func policyFromConfig(cfg *Config) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg == nil {
		return policy
	}
	if cfg.MaxRetries >= 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.InitialBackoffMS > 0 {
		policy.InitialBackoff = time.Duration(cfg.InitialBackoffMS) * time.Millisecond
	}
	if cfg.MaxBackoffMS > 0 {
		policy.MaxBackoff = time.Duration(cfg.MaxBackoffMS) * time.Millisecond
	}
	return policy
}

// BaseDelay returns the deterministic backoff for the given attempt
// (1-indexed): min(InitialBackoff * 2^(attempt-1), MaxBackoff).
func (p RetryPolicy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.InitialBackoff) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(delay)
}

// Delay returns the backoff for the given attempt with random jitter
// applied: BaseDelay(attempt) <= Delay(attempt) <= BaseDelay(attempt)*(1+JitterFraction).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := p.BaseDelay(attempt)
	if p.JitterFraction <= 0 {
		return base
	}
	jitter := time.Duration(rand.Float64() * p.JitterFraction * float64(base))
	return base + jitter
}
