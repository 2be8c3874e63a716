package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qasrlabs/propsight/internal/domain"
)

const testKey = "sk-proj-abcdef1234567890abcdef"

func newTestManager(now time.Time) *Manager {
	m := NewManager(&Config{RotationDays: 30}, NewMemoryStore())
	m.now = func() time.Time { return now }
	return m
}

func TestConfigure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("should store a valid key with rotation metadata", func(t *testing.T) {
		m := newTestManager(now)

		rotation, err := m.Configure(ctx, testKey, "org-123")
		require.NoError(t, err)
		require.Equal(t, now, rotation.LastRotated)
		require.Equal(t, now.AddDate(0, 0, 30), rotation.ExpiresAt)
		require.Len(t, rotation.KeyHash, 64) // sha256 hex
		require.NotContains(t, rotation.KeyHash, testKey)

		key, err := m.APIKey(ctx)
		require.NoError(t, err)
		require.Equal(t, testKey, key)
	})

	t.Run("should reject keys without the sk- prefix", func(t *testing.T) {
		m := newTestManager(now)

		_, err := m.Configure(ctx, "pk-wrong-prefix-1234567890", "")
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should reject empty and short keys", func(t *testing.T) {
		m := newTestManager(now)

		_, err := m.Configure(ctx, "", "")
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

		_, err = m.Configure(ctx, "sk-short", "")
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("should reject keys containing whitespace", func(t *testing.T) {
		m := newTestManager(now)

		_, err := m.Configure(ctx, "sk-proj abcdef1234567890", "")
		require.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("should report unconfigured on an empty store", func(t *testing.T) {
		m := newTestManager(now)

		status, err := m.Status(ctx)
		require.NoError(t, err)
		require.False(t, status.Configured)
	})

	t.Run("should report fresh inside the rotation window", func(t *testing.T) {
		m := newTestManager(now)
		_, err := m.Configure(ctx, testKey, "org-123")
		require.NoError(t, err)

		m.now = func() time.Time { return now.AddDate(0, 0, 29) }
		status, err := m.Status(ctx)
		require.NoError(t, err)
		require.True(t, status.Configured)
		require.False(t, status.Stale)
		require.Equal(t, "org-123", status.OrgID)
	})

	t.Run("should flag stale after 30 days", func(t *testing.T) {
		m := newTestManager(now)
		_, err := m.Configure(ctx, testKey, "")
		require.NoError(t, err)

		m.now = func() time.Time { return now.AddDate(0, 0, 31) }
		status, err := m.Status(ctx)
		require.NoError(t, err)
		require.True(t, status.Configured)
		require.True(t, status.Stale)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotConfigured)

	rec := Record{APIKey: testKey, OrgID: "org-1"}
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, rec, loaded)
}
