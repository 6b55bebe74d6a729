package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "paie", cfg.Domain)
	assert.Equal(t, "docs", cfg.DocsRoot)
	assert.Equal(t, 1000, cfg.Chunker.BlockSize)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, 10, cfg.Chunker.MinChars)
	assert.Equal(t, "gemini", cfg.Embedder.Type)
	assert.Equal(t, "models/text-embedding-004", cfg.Embedder.Model)
	assert.Equal(t, 50, cfg.Embedder.RequestDelayMS)
	assert.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, uint(3), cfg.Retry.Attempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: caf\nretrieval:\n  top_k: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "caf", cfg.Domain)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 1000, cfg.Chunker.BlockSize, "unset fields keep their defaults")
	assert.Equal(t, "gemini", cfg.Embedder.Type)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	orig, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	orig.Domain = "logement"
	orig.Embedder.Type = "tfidf"

	require.NoError(t, Save(path, orig))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "clé-de-test")
	s, err := LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "clé-de-test", s.GoogleAPIKey)
}
