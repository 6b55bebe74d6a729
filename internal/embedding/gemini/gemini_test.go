package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comprendre/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		BaseURL:  srv.URL,
		APIKey:   "test-key",
		Attempts: 3,
		Delay:    time.Millisecond,
		MaxDelay: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestEmbedSendsIntentAsTaskType(t *testing.T) {
	var gotTask atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotTask.Store(req.TaskType)
		require.Len(t, req.Content.Parts, 1)
		json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{"values": []float64{0.1, 0.2}}})
	})

	vec, err := c.Embed(context.Background(), "Le RSA socle", domain.IntentDocument)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vec)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", gotTask.Load())

	_, err = c.Embed(context.Background(), "Quel montant ?", domain.IntentQuery)
	require.NoError(t, err)
	assert.Equal(t, "RETRIEVAL_QUERY", gotTask.Load())
}

func TestEmbedRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{"values": []float64{1}}})
	})

	vec, err := c.Embed(context.Background(), "texte", domain.IntentDocument)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := c.Embed(context.Background(), "texte", domain.IntentDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedEmptyVector(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{"values": []float64{}}})
	})

	_, err := c.Embed(context.Background(), "texte", domain.IntentDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedUnreachableHost(t *testing.T) {
	c, err := NewClient(Config{
		BaseURL:  "http://127.0.0.1:1",
		APIKey:   "test-key",
		Attempts: 1,
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "texte", domain.IntentDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestProbe(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{"values": []float64{1}}})
	})
	require.NoError(t, c.Probe(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}
