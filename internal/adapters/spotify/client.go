// Package spotify adapts the Spotify Web API into the catalog track source.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/moodmatch/internal/adapters/upstream"
	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

const (
	DefaultBaseURL  = "https://api.spotify.com/v1"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultMarket   = "US"
)

// Config configures the Spotify client.
type Config struct {
	ClientID          string
	ClientSecret      string
	BaseURL           string
	TokenURL          string
	Market            string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64
}

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	http    *upstream.Client
	baseURL string
	market  string
}

// compile-time interface assertion
var _ ports.TrackSource = (*Client)(nil)

// NewClient constructs a Spotify client. When httpClient is nil the client
// authenticates with the client-credentials flow using cfg's credentials.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Market == "" {
		cfg.Market = defaultMarket
	}
	if httpClient == nil {
		httpClient = newCredentialsClient(cfg)
	}

	return &Client{
		http: upstream.New(httpClient, upstream.Config{
			Name:              "spotify",
			MaxRetries:        cfg.MaxRetries,
			BaseBackoff:       cfg.RetryBackoff,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Permanent:         isTokenError,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		market:  cfg.Market,
	}
}

func newCredentialsClient(cfg Config) *http.Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = cfg.Timeout
	return hc
}

// isTokenError reports a failed client-credentials exchange.
func isTokenError(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re)
}

// getJSON performs a GET and decodes a 200 response into out. It returns
// errNotFound for 404 so callers can treat missing resources as empty.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTokenError(err) {
			return domain.AuthError("spotify adapter: token", err)
		}
		return domain.UpstreamError("spotify adapter", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.AuthError("spotify adapter", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.UpstreamError("spotify adapter", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.UpstreamError("spotify adapter: decode", err)
	}
	return nil
}

var errNotFound = errors.New("spotify adapter: not found")
