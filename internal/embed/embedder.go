package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Vector is a dense embedding produced by a text encoder.
type Vector = []float32

// Embedder maps raw text to a fixed-dimension vector. Implementations must
// be stateless after construction and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dim() int
}

// Config controls embedder construction.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Dim      int
}

var ErrEmptyText = errors.New("cannot embed empty text")

// NewEmbedder builds the configured embedding provider.
func NewEmbedder(cfg Config) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dim), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dim), nil
	case "mock":
		return NewMockEmbedder(cfg.Dim), nil
	default:
		return nil, fmt.Errorf("unsupported embed provider %q", cfg.Provider)
	}
}

// CosineSimilarity computes cosine similarity between two vectors.
// Symmetric in its arguments; returns 0 for mismatched or zero vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v Vector) Vector {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := 1 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
