package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qasrlabs/propsight/internal/ingest"
)

func TestNewChunker(t *testing.T) {
	t.Run("should reject a non-positive token budget", func(t *testing.T) {
		_, err := ingest.NewChunker("gpt-4", 0, 0)
		require.Error(t, err)
	})

	t.Run("should reject overlap at or above the budget", func(t *testing.T) {
		_, err := ingest.NewChunker("gpt-4", 10, 10)
		require.Error(t, err)
	})

	t.Run("should fall back to cl100k_base for unknown models", func(t *testing.T) {
		c, err := ingest.NewChunker("not-a-real-model", 100, 10)
		require.NoError(t, err)
		require.NotNil(t, c)
	})
}

func TestChunkerSplit(t *testing.T) {
	chunker, err := ingest.NewChunker("gpt-4", 50, 10)
	require.NoError(t, err)

	t.Run("should return a single chunk for short text", func(t *testing.T) {
		chunks := chunker.Split("Two bedroom apartment in Downtown Dubai with Burj views.")
		require.Len(t, chunks, 1)
		require.Equal(t, 0, chunks[0].Index)
		require.LessOrEqual(t, chunks[0].Tokens, 50)
	})

	t.Run("should return no chunks for empty input", func(t *testing.T) {
		require.Empty(t, chunker.Split("   \n "))
	})

	t.Run("should bound every chunk by the token budget", func(t *testing.T) {
		long := strings.Repeat("Spacious apartment with marina view and modern finishes. ", 60)
		chunks := chunker.Split(long)

		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			require.LessOrEqual(t, chunk.Tokens, 50)
			require.Positive(t, chunk.Tokens)
			require.NotEmpty(t, chunk.Text)
		}
	})

	t.Run("should index chunks sequentially", func(t *testing.T) {
		long := strings.Repeat("Dubai property listing text for chunking tests. ", 80)
		chunks := chunker.Split(long)

		for i, chunk := range chunks {
			require.Equal(t, i, chunk.Index)
		}
	})
}
