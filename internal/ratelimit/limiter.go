// Package ratelimit implements a client-side admission gate: a sliding
// per-minute window plus a calendar-day budget checked before any network
// attempt. It is advisory self-throttling only and does not coordinate
// across processes.
package ratelimit

import (
	"sync"
	"time"

	"github.com/qasrlabs/propsight/internal/domain"
)

const window = time.Minute

// Config contains admission gate budgets. Zero disables the corresponding
// check.
type Config struct {
	MaxRequestsPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	MaxRequestsPerDay    int `env:"RATE_LIMIT_PER_DAY"    envDefault:"500"`
}

// Limiter guards call admission with a sliding 60-second window and a
// daily counter that resets when the calendar date changes in the
// reference timezone (Gulf Standard Time, UTC+4).
type Limiter struct {
	mu sync.Mutex

	perMinute int
	perDay    int

	admitted []time.Time // admissions within the sliding window, oldest first
	dayCount int
	dayStamp string

	now func() time.Time
	loc *time.Location
}

// New creates a Limiter using the wall clock.
func New(cfg *Config) *Limiter {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock creates a Limiter with an injectable clock for tests.
func NewWithClock(cfg *Config, now func() time.Time) *Limiter {
	l := &Limiter{
		now: now,
		loc: referenceZone(),
	}
	if cfg != nil {
		l.perMinute = cfg.MaxRequestsPerMinute
		l.perDay = cfg.MaxRequestsPerDay
	}
	return l
}

// referenceZone returns the fixed timezone used for daily resets. The
// tzdata name is preferred; a fixed UTC+4 zone keeps behavior identical
// when tzdata is unavailable.
func referenceZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Dubai"); err == nil {
		return loc
	}
	return time.FixedZone("GST", 4*60*60)
}

// Admit checks both budgets and, when the call is allowed, records the
// admission. Rejections surface immediately as KindRateLimited with a
// human-readable wait hint; they are never retried automatically.
func (l *Limiter) Admit() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	today := now.In(l.loc).Format(time.DateOnly)
	if today != l.dayStamp {
		l.dayStamp = today
		l.dayCount = 0
	}

	if l.perDay > 0 && l.dayCount >= l.perDay {
		return domain.NewError(domain.KindRateLimited,
			"daily limit of %d requests reached, quota resets at midnight GST", l.perDay)
	}

	l.evict(now)
	if l.perMinute > 0 && len(l.admitted) >= l.perMinute {
		wait := window - now.Sub(l.admitted[0])
		return domain.NewError(domain.KindRateLimited,
			"limit of %d requests per minute reached, retry in %s", l.perMinute, wait.Round(time.Second))
	}

	l.admitted = append(l.admitted, now)
	l.dayCount++
	return nil
}

// InFlight returns the number of admissions currently inside the sliding
// window. Diagnostics only.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.admitted)
}

// evict drops admissions older than the sliding window. Caller holds the lock.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
