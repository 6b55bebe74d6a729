package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"comprendre/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "models/text-embedding-004"
	probeText      = "ping"

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Client embeds text through the Gemini embedContent endpoint. The document
// and query task types are asymmetric; callers must pass the intent matching
// their side of the retrieval.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

// Config configures the embedding client.
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// NewClient creates an embedding client. The API key must already be
// resolved; an empty key is a hard configuration error.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingCredential
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = 100 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		maxDelay: cfg.MaxDelay,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "gemini" }

// Probe embeds a trivial string so a systemic outage is detected before a
// bulk indexing run burns time on a large batch.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.Embed(ctx, probeText, domain.IntentDocument)
	return err
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string, intent domain.Intent) ([]float64, error) {
	vec, err := retry.DoWithData(
		func() ([]float64, error) { return c.embedOnce(ctx, text, intent) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return vec, nil
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

func (c *Client) embedOnce(ctx context.Context, text string, intent domain.Intent) ([]float64, error) {
	taskType := taskRetrievalDocument
	if intent == domain.IntentQuery {
		taskType = taskRetrievalQuery
	}
	body := embedRequest{
		Model:    c.model,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskType,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	url := fmt.Sprintf("%s/%s:embedContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("embedContent: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, retry.Unrecoverable(fmt.Errorf("embedContent: %s", resp.Status))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out embedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedContent: no embedding returned")
	}
	return out.Embedding.Values, nil
}
