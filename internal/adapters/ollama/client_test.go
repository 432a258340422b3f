package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(nil, Config{
		BaseURL:      baseURL,
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		wantErr      bool
	}{
		{
			name:         "Success",
			status:       http.StatusOK,
			responseBody: `{"model":"all-minilm","embeddings":[[0.1,0.2],[0.3,0.4]]}`,
		},
		{
			name:         "Server error",
			status:       http.StatusInternalServerError,
			responseBody: `{"error":"model not loaded"}`,
			wantErr:      true,
		},
		{
			name:         "Bad request with message",
			status:       http.StatusBadRequest,
			responseBody: `{"error":"model \"nope\" not found"}`,
			wantErr:      true,
		},
		{
			name:         "Count mismatch",
			status:       http.StatusOK,
			responseBody: `{"embeddings":[[0.1,0.2]]}`,
			wantErr:      true,
		},
		{
			name:         "Malformed body",
			status:       http.StatusOK,
			responseBody: `{"embeddings":`,
			wantErr:      true,
		},
		{
			name:         "Error field on 200",
			status:       http.StatusOK,
			responseBody: `{"error":"input too long"}`,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRequest embedRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/embed" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if r.Method != http.MethodPost {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			vectors, err := newTestClient(srv.URL).Embed(context.Background(), []string{"calm evening", "sad"})

			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUpstreamUnavailable) {
					t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
				}
				return
			}
			if gotRequest.Model != DefaultModel {
				t.Fatalf("expected model %s, got %q", DefaultModel, gotRequest.Model)
			}
			if len(gotRequest.Input) != 2 || gotRequest.Input[0] != "calm evening" {
				t.Fatalf("input mismatch: %v", gotRequest.Input)
			}
			if len(vectors) != 2 || vectors[1][1] != 0.4 {
				t.Fatalf("unexpected vectors: %v", vectors)
			}
		})
	}
}

func TestClient_EmbedRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Input) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer srv.Close()

	vectors, err := newTestClient(srv.URL).Embed(context.Background(), []string{"calm"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if len(vectors) != 1 || vectors[0][0] != 1 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestClient_EmbedUnreachable(t *testing.T) {
	client := NewClient(nil, Config{
		BaseURL:      "http://127.0.0.1:1",
		Timeout:      200 * time.Millisecond,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	_, err := client.Embed(context.Background(), []string{"x"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_EmbedEmptyInput(t *testing.T) {
	vectors, err := newTestClient("http://127.0.0.1:1").Embed(context.Background(), nil)
	if err != nil || len(vectors) != 0 {
		t.Fatalf("expected empty result without a request, got %v, %v", vectors, err)
	}
}
