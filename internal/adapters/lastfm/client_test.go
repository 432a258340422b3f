package lastfm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodmatch/internal/adapters/lastfm"
	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
)

func TestGetTopTags(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		minCount int
		want     []string
		wantErr  error
	}{
		{
			name:   "returns tags in order",
			status: http.StatusOK,
			body:   `{"toptags":{"tag":[{"name":"britpop","count":100},{"name":"rock","count":80},{"name":"Mellow","count":5}],"@attr":{"artist":"Coldplay"}}}`,
			want:   []string{"britpop", "rock", "Mellow"},
		},
		{
			name:     "drops tags below min count",
			status:   http.StatusOK,
			body:     `{"toptags":{"tag":[{"name":"britpop","count":100},{"name":"seen live","count":3}]}}`,
			minCount: 10,
			want:     []string{"britpop"},
		},
		{
			name:   "single tag object",
			status: http.StatusOK,
			body:   `{"toptags":{"tag":{"name":"jazz","count":100}}}`,
			want:   []string{"jazz"},
		},
		{
			name:   "no toptags",
			status: http.StatusOK,
			body:   `{}`,
			want:   []string{},
		},
		{
			name:   "empty tag list",
			status: http.StatusOK,
			body:   `{"toptags":{"tag":[]}}`,
			want:   []string{},
		},
		{
			name:   "unknown artist",
			status: http.StatusNotFound,
			body:   `{"error":6,"message":"The artist you supplied could not be found"}`,
			want:   []string{},
		},
		{
			name:    "invalid api key",
			status:  http.StatusForbidden,
			body:    `{"error":10,"message":"Invalid API key"}`,
			wantErr: domain.ErrAuthFailure,
		},
		{
			name:    "other api error",
			status:  http.StatusOK,
			body:    `{"error":29,"message":"Rate limit exceeded"}`,
			wantErr: domain.ErrUpstreamUnavailable,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: domain.ErrUpstreamUnavailable,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"toptags":`,
			wantErr: domain.ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "artist.gettoptags", q.Get("method"))
				assert.Equal(t, "Coldplay", q.Get("artist"))
				assert.Equal(t, "test-key", q.Get("api_key"))
				assert.Equal(t, "json", q.Get("format"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := lastfm.NewClient(ts.Client(), lastfm.Config{
				APIKey:       "test-key",
				BaseURL:      ts.URL + "/2.0/",
				MaxRetries:   1,
				RetryBackoff: time.Millisecond,
				MinTagCount:  tt.minCount,
			})

			got, err := client.GetTopTags(context.Background(), "Coldplay")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetTopTags_BlankArtistSkipsRequest(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	got, err := lastfm.NewClient(ts.Client(), lastfm.Config{BaseURL: ts.URL}).GetTopTags(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, called)
}
