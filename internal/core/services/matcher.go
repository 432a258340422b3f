package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
)

// ScoredTag is a vocabulary entry with its similarity to a description.
type ScoredTag struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// Matcher ranks tags by semantic similarity using an embedder.
type Matcher struct {
	embedder ports.Embedder
}

// NewMatcher constructs a Matcher.
func NewMatcher(embedder ports.Embedder) *Matcher {
	return &Matcher{embedder: embedder}
}

// RankTags returns the topN vocabulary entries most similar to description,
// best first. Ties keep vocabulary order. Duplicate vocabulary entries count once.
func (m *Matcher) RankTags(ctx context.Context, description string, vocabulary []string, topN int) ([]string, error) {
	if topN <= 0 {
		return nil, domain.InvalidInputError("top_n must be positive, got %d", topN)
	}
	scored, err := m.Score(ctx, description, vocabulary)
	if err != nil {
		return nil, err
	}
	if topN > len(scored) {
		topN = len(scored)
	}
	out := make([]string, topN)
	for i := range out {
		out[i] = scored[i].Tag
	}
	return out, nil
}

// Score embeds description and the distinct vocabulary in a single batch and
// returns every entry with its cosine similarity, highest first.
func (m *Matcher) Score(ctx context.Context, description string, vocabulary []string) ([]ScoredTag, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.InvalidInputError("description is empty")
	}
	distinct := distinctStrings(vocabulary)
	if len(distinct) == 0 {
		return nil, domain.InvalidInputError("tag vocabulary is empty")
	}

	texts := make([]string, 0, len(distinct)+1)
	texts = append(texts, description)
	texts = append(texts, distinct...)

	vectors, err := m.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	query := vectors[0]
	scored := make([]ScoredTag, len(distinct))
	for i, tag := range distinct {
		scored[i] = ScoredTag{Tag: tag, Score: CosineSimilarity(query, vectors[i+1])}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

// MatchAny reports whether any tag is more similar to target than threshold.
// Hyphens in tags are read as spaces. No tags never match.
func (m *Matcher) MatchAny(ctx context.Context, tags []string, target string, threshold float64) (bool, error) {
	if strings.TrimSpace(target) == "" {
		return false, domain.InvalidInputError("match target is empty")
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned = append(cleaned, strings.ReplaceAll(tag, "-", " "))
	}
	cleaned = distinctStrings(cleaned)
	if len(cleaned) == 0 {
		return false, nil
	}

	texts := append([]string{target}, cleaned...)
	vectors, err := m.embed(ctx, texts)
	if err != nil {
		return false, err
	}
	for i := range cleaned {
		if CosineSimilarity(vectors[0], vectors[i+1]) > threshold {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) embed(ctx context.Context, texts []string) ([][]float64, error) {
	metrics.EmbeddingBatchSize.Observe(float64(len(texts)))

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("matcher: %w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(texts))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("matcher: %w: vector %d has dimension %d, want %d", domain.ErrEmbedding, i, len(v), dim)
		}
	}
	return vectors, nil
}

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector or mismatched lengths give 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func distinctStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
