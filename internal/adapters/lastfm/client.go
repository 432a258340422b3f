// Package lastfm adapts the Last.fm artist.gettoptags method into a tag source.
package lastfm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmatch/internal/adapters/upstream"
	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

const DefaultBaseURL = "http://ws.audioscrobbler.com/2.0/"

// Last.fm API error codes the adapter distinguishes.
const (
	codeInvalidAPIKey   = 10
	codeNotFound        = 6
	codeSuspendedAPIKey = 26
)

// Config configures the Last.fm client.
type Config struct {
	APIKey            string
	BaseURL           string
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64
	// MinTagCount drops tags whose Last.fm weight (0-100) is below it.
	MinTagCount int
}

// Client fetches artist tags from Last.fm.
type Client struct {
	http     *upstream.Client
	baseURL  string
	apiKey   string
	minCount int
}

var _ ports.TagSource = (*Client)(nil)

// NewClient constructs a Last.fm client.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		http: upstream.New(httpClient, upstream.Config{
			Name:              "lastfm",
			MaxRetries:        cfg.MaxRetries,
			BaseBackoff:       cfg.RetryBackoff,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		minCount: cfg.MinTagCount,
	}
}

type topTagsResponse struct {
	TopTags *struct {
		Tag tagList `json:"tag"`
	} `json:"toptags"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// tagList accepts both an array and the single object Last.fm sends for one tag.
type tagList []tag

func (l *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var single tag
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = tagList{single}
		return nil
	}
	var many []tag
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// GetTopTags returns the artist's top tag names in Last.fm's order. Unknown
// artists and artists without tags yield an empty slice.
func (c *Client) GetTopTags(ctx context.Context, artistName string) ([]string, error) {
	if strings.TrimSpace(artistName) == "" {
		return []string{}, nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("lastfm adapter: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("method", "artist.gettoptags")
	q.Set("artist", artistName)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("autocorrect", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lastfm adapter: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("lastfm adapter", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.UpstreamError("lastfm adapter: read body", err)
	}

	var body topTagsResponse
	decodeErr := json.Unmarshal(raw, &body)

	if decodeErr == nil && body.Error != 0 {
		switch body.Error {
		case codeNotFound:
			return []string{}, nil
		case codeInvalidAPIKey, codeSuspendedAPIKey:
			return nil, domain.AuthError("lastfm adapter", fmt.Errorf("error %d: %s", body.Error, body.Message))
		default:
			return nil, domain.UpstreamError("lastfm adapter", fmt.Errorf("error %d: %s", body.Error, body.Message))
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.UpstreamError("lastfm adapter", fmt.Errorf("status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, domain.UpstreamError("lastfm adapter: decode", decodeErr)
	}
	if body.TopTags == nil {
		return []string{}, nil
	}

	tags := make([]string, 0, len(body.TopTags.Tag))
	for _, t := range body.TopTags.Tag {
		if strings.TrimSpace(t.Name) == "" || t.Count < c.minCount {
			continue
		}
		tags = append(tags, t.Name)
	}
	return tags, nil
}
