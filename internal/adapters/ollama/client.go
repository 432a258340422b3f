// Package ollama provides an embedder backed by a local Ollama instance.
// It sends batches of texts to /api/embed and returns one vector per text.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmatch/internal/adapters/upstream"
	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "all-minilm"
	defaultTimeout = 30 * time.Second
)

// Config configures the Ollama client.
type Config struct {
	BaseURL      string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type Client struct {
	http    *upstream.Client
	baseURL string
	model   string
}

var _ ports.Embedder = (*Client)(nil)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewClient constructs an Ollama client. A nil httpClient gets cfg.Timeout.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http: upstream.New(httpClient, upstream.Config{
			Name:        "ollama",
			MaxRetries:  cfg.MaxRetries,
			BaseBackoff: cfg.RetryBackoff,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("ollama: request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.UpstreamError("ollama: read response", err)
	}

	var parsed embedResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && parsed.Error != "" {
			return nil, domain.UpstreamError("ollama", fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error))
		}
		return nil, domain.UpstreamError("ollama", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, domain.UpstreamError("ollama: decode response", decodeErr)
	}
	if parsed.Error != "" {
		return nil, domain.UpstreamError("ollama", fmt.Errorf("%s", parsed.Error))
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, domain.UpstreamError("ollama", fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Embeddings), len(texts)))
	}

	return parsed.Embeddings, nil
}
