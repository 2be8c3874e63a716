// Package credentials implements the server-side API key store. Keys are
// configured through the HTTP surface, persisted server-side only, and
// never written back into a response. A rotation record flags keys older
// than the rotation window; staleness is advisory and nothing is revoked
// automatically.
package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/qasrlabs/propsight/internal/domain"
)

// ErrNotConfigured is returned when no key has been stored yet.
var ErrNotConfigured = errors.New("api key not configured")

const (
	keyPrefix    = "sk-"
	minKeyLength = 20
)

// Config contains credential store settings.
type Config struct {
	RotationDays int `env:"CREDENTIAL_ROTATION_DAYS" envDefault:"30"`
}

// Rotation is the metadata kept alongside a stored key. Only the hash of
// the key is ever exposed.
type Rotation struct {
	LastRotated time.Time `json:"last_rotated"`
	ExpiresAt   time.Time `json:"expires_at"`
	KeyHash     string    `json:"key_hash"`
}

// Record is the stored credential. It never crosses the HTTP boundary.
type Record struct {
	APIKey   string   `json:"api_key"`
	OrgID    string   `json:"org_id,omitempty"`
	Rotation Rotation `json:"rotation"`
}

// Status is the externally visible view of the store.
type Status struct {
	Configured  bool      `json:"configured"`
	OrgID       string    `json:"org_id,omitempty"`
	LastRotated time.Time `json:"last_rotated,omitzero"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	Stale       bool      `json:"stale"`
}

// Store persists credential records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
}

// Manager validates, stores and reports on the service API key.
type Manager struct {
	store        Store
	rotationDays int
	now          func() time.Time
}

// NewManager creates a Manager over the given store.
func NewManager(cfg *Config, store Store) *Manager {
	rotationDays := 30
	if cfg != nil && cfg.RotationDays > 0 {
		rotationDays = cfg.RotationDays
	}
	return &Manager{
		store:        store,
		rotationDays: rotationDays,
		now:          time.Now,
	}
}

// Configure validates and stores a new key, resetting rotation metadata.
// The returned Rotation contains only the hash, never the key.
func (m *Manager) Configure(ctx context.Context, apiKey, orgID string) (Rotation, error) {
	if err := validateKeyFormat(apiKey); err != nil {
		return Rotation{}, err
	}

	now := m.now()
	sum := sha256.Sum256([]byte(apiKey))
	rotation := Rotation{
		LastRotated: now,
		ExpiresAt:   now.AddDate(0, 0, m.rotationDays),
		KeyHash:     hex.EncodeToString(sum[:]),
	}

	rec := Record{APIKey: apiKey, OrgID: orgID, Rotation: rotation}
	if err := m.store.Save(ctx, rec); err != nil {
		return Rotation{}, err
	}

	return rotation, nil
}

// Status reports whether a key is configured and whether it is past the
// rotation window.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	rec, err := m.store.Load(ctx)
	if errors.Is(err, ErrNotConfigured) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}

	return Status{
		Configured:  true,
		OrgID:       rec.OrgID,
		LastRotated: rec.Rotation.LastRotated,
		ExpiresAt:   rec.Rotation.ExpiresAt,
		Stale:       m.now().After(rec.Rotation.ExpiresAt),
	}, nil
}

// APIKey returns the stored key for server-side provider construction.
func (m *Manager) APIKey(ctx context.Context) (string, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return rec.APIKey, nil
}

// validateKeyFormat enforces the expected sk- shape before anything is
// persisted.
func validateKeyFormat(apiKey string) error {
	if apiKey == "" {
		return domain.NewError(domain.KindInvalidRequest, "api key is required")
	}
	if !strings.HasPrefix(apiKey, keyPrefix) {
		return domain.NewError(domain.KindInvalidRequest, "api key must start with %q", keyPrefix)
	}
	if len(apiKey) < minKeyLength {
		return domain.NewError(domain.KindInvalidRequest, "api key is too short")
	}
	if strings.ContainsAny(apiKey, " \t\r\n") {
		return domain.NewError(domain.KindInvalidRequest, "api key must not contain whitespace")
	}
	return nil
}
