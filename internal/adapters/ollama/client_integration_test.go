package ollama

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/core/services"
)

// TestClient_Embed_Integration runs against a live Ollama instance.
// This test is skipped unless RUN_AI_TESTS=true is set.
func TestClient_Embed_Integration(t *testing.T) {
	if os.Getenv("RUN_AI_TESTS") != "true" {
		t.Skip("Skipping AI-dependent test (set RUN_AI_TESTS=true to enable)")
	}

	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}

	client := NewClient(nil, Config{BaseURL: ollamaHost, Model: DefaultModel, Timeout: time.Minute})

	texts := []string{"calm and mellow music", "relaxing", "heavy metal"}
	vectors, err := client.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			t.Errorf("vector %d is empty", i)
		}
	}
	t.Logf("dimension: %d", len(vectors[0]))

	related := services.CosineSimilarity(vectors[0], vectors[1])
	unrelated := services.CosineSimilarity(vectors[0], vectors[2])
	if related <= unrelated {
		t.Errorf("expected %q closer to %q than %q: %.3f <= %.3f", texts[0], texts[1], texts[2], related, unrelated)
	}
}
