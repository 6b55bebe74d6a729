package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comprendre/internal/domain"
)

func TestChunkWindowing(t *testing.T) {
	c := NewWindowChunker(1000, 100, 10)
	content := strings.Repeat("a", 2500)
	chunks := c.Chunk(domain.Document{Source: "fiche.txt", Content: content})

	require.Len(t, chunks, 3)

	t.Run("stride is block minus overlap", func(t *testing.T) {
		for i := 1; i < len(chunks); i++ {
			assert.Equal(t, 900, chunks[i].Offset-chunks[i-1].Offset)
		}
	})

	t.Run("windows cover every character", func(t *testing.T) {
		covered := make([]bool, len(content))
		for _, ch := range chunks {
			window := rawWindow(t, ch)
			for j := 0; j < len(window); j++ {
				covered[ch.Offset+j] = true
			}
		}
		for i, ok := range covered {
			require.True(t, ok, "character %d not covered", i)
		}
	})

	t.Run("all windows but the last are full size", func(t *testing.T) {
		for _, ch := range chunks[:len(chunks)-1] {
			assert.Len(t, rawWindow(t, ch), 1000)
		}
		assert.Len(t, rawWindow(t, chunks[len(chunks)-1]), 700)
	})

	t.Run("sequence indexes are consecutive", func(t *testing.T) {
		for i, ch := range chunks {
			assert.Equal(t, i, ch.Index)
		}
	})
}

func TestChunkProvenance(t *testing.T) {
	c := NewWindowChunker(1000, 100, 10)
	chunks := c.Chunk(domain.Document{Source: "rsa.txt", Content: "Le RSA pour une personne seule est de 635,71€."})
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "Source [rsa.txt] : "))
	assert.Contains(t, chunks[0].Text, "635,71€")
	assert.Equal(t, "rsa.txt", chunks[0].Source)
}

func TestChunkNoiseFilter(t *testing.T) {
	c := NewWindowChunker(1000, 100, 10)

	t.Run("empty document", func(t *testing.T) {
		assert.Empty(t, c.Chunk(domain.Document{Source: "a.txt"}))
	})

	t.Run("whitespace only", func(t *testing.T) {
		assert.Empty(t, c.Chunk(domain.Document{Source: "a.txt", Content: "   \n\t  \n   "}))
	})

	t.Run("short fragment", func(t *testing.T) {
		assert.Empty(t, c.Chunk(domain.Document{Source: "a.txt", Content: "petit"}))
	})

	t.Run("whitespace tail dropped", func(t *testing.T) {
		content := strings.Repeat("b", 1000) + strings.Repeat(" ", 1000)
		chunks := c.Chunk(domain.Document{Source: "a.txt", Content: content})
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].Offset)
		assert.Equal(t, 900, chunks[1].Offset)
	})
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	c := NewWindowChunker(10, 2, 3)
	content := strings.Repeat("é", 25)
	chunks := c.Chunk(domain.Document{Source: "accents.txt", Content: content})
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		window := rawWindow(t, ch)
		assert.NotContains(t, window, "�", "chunk %d split inside a rune", i)
		assert.LessOrEqual(t, len([]rune(window)), 10)
	}
}

func TestChunkDeterminism(t *testing.T) {
	c := NewWindowChunker(100, 20, 10)
	doc := domain.Document{Source: "fiche.txt", Content: strings.Repeat("Le barème 2025 s'applique. ", 40)}
	first := c.Chunk(doc)
	second := c.Chunk(doc)
	assert.Equal(t, first, second)
}

func rawWindow(t *testing.T, ch domain.Chunk) string {
	t.Helper()
	prefix := fmt.Sprintf("Source [%s] : ", ch.Source)
	window, ok := strings.CutPrefix(ch.Text, prefix)
	require.True(t, ok, "chunk text misses provenance prefix")
	return window
}
