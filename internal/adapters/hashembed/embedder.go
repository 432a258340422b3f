// Package hashembed is a deterministic, offline embedder. It hashes word
// tokens and character trigrams into a fixed number of buckets, so texts that
// share words or spelling land close together. It needs no model and no
// network. It is lexical only: synonyms such as "calm" and "soothing" do not
// score as related.
package hashembed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

const (
	DefaultDimensions = 256

	wordWeight    = 1.0
	trigramWeight = 0.5
)

type Embedder struct {
	dims int
}

var _ ports.Embedder = (*Embedder)(nil)

func New(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Dimensions is the length of every vector Embed returns.
func (e *Embedder) Dimensions() int {
	return e.dims
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float64 {
	vec := make([]float64, e.dims)
	for _, word := range tokenize(text) {
		e.add(vec, "w:"+word, wordWeight)
		padded := "^" + word + "$"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vec, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}
	normalize(vec)
	return vec
}

// add folds feature into a bucket. The high bit of the hash picks the sign so
// unrelated features tend to cancel rather than pile up.
func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
