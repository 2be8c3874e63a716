// Package telemetry keeps a bounded in-memory log of terminal call
// outcomes. One Record is appended per completed call, successful or not;
// the buffer holds the most recent 100 and evicts oldest-first. Nothing
// here is durable: the buffer resets on restart.
package telemetry

import (
	"sync"
	"time"
)

// Capacity is the fixed ring buffer size.
const Capacity = 100

// ModeProduction enables forwarding of every record to the configured sink.
const ModeProduction = "production"

// Config contains telemetry settings.
type Config struct {
	Mode string `env:"TELEMETRY_MODE" envDefault:"development"`
}

// Record captures one terminal call outcome.
type Record struct {
	RequestID        string        `json:"request_id"`
	Endpoint         string        `json:"endpoint,omitempty"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	Latency          time.Duration `json:"latency"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Retries          int           `json:"retries"`
	Success          bool          `json:"success"`
	ErrorText        string        `json:"error,omitempty"`
}

// Sink receives records in production mode. Forward must not block for
// long; the recorder calls it synchronously.
type Sink interface {
	Forward(rec Record)
}

// Recorder is a mutex-guarded FIFO ring buffer of Records.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	forward bool
	sink    Sink
}

// NewRecorder creates a Recorder. The sink is only consulted in
// production mode and may be nil otherwise.
func NewRecorder(cfg *Config, sink Sink) *Recorder {
	r := &Recorder{
		records: make([]Record, 0, Capacity),
		sink:    sink,
	}
	if cfg != nil && cfg.Mode == ModeProduction && sink != nil {
		r.forward = true
	}
	return r
}

// Record appends one terminal outcome, evicting the oldest entry once the
// buffer is full.
func (r *Recorder) Record(rec Record) {
	r.mu.Lock()
	if len(r.records) == Capacity {
		copy(r.records, r.records[1:])
		r.records[Capacity-1] = rec
	} else {
		r.records = append(r.records, rec)
	}
	forward := r.forward
	sink := r.sink
	r.mu.Unlock()

	if forward {
		sink.Forward(rec)
	}
}

// Snapshot returns a copy of the buffered records, oldest first.
func (r *Recorder) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of buffered records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
