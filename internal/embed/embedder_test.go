package embed

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := Vector{0.2, 0.5, 0.1, 0.9}
	b := Vector{0.7, 0.1, 0.4, 0.3}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("cosine(a,b) = %v, cosine(b,a) = %v, want equal", ab, ba)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	a := Vector{0.3, 0.4, 0.5}
	if sim := CosineSimilarity(a, a); math.Abs(sim-1) > 1e-6 {
		t.Fatalf("cosine(a,a) = %v, want 1", sim)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if sim := CosineSimilarity(Vector{1, 2}, Vector{1, 2, 3}); sim != 0 {
		t.Fatalf("mismatched dims: sim = %v, want 0", sim)
	}
	if sim := CosineSimilarity(Vector{0, 0}, Vector{1, 1}); sim != 0 {
		t.Fatalf("zero vector: sim = %v, want 0", sim)
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize(Vector{3, 4})
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("norm^2 = %v, want 1", norm)
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(64)

	a, err := e.Embed(context.Background(), "I feel sad today")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := e.Embed(context.Background(), "I feel sad today")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if sim := CosineSimilarity(a, b); math.Abs(sim-1) > 1e-6 {
		t.Fatalf("same text similarity = %v, want 1", sim)
	}
}

func TestMockEmbedderSeparatesTopics(t *testing.T) {
	e := NewMockEmbedder(256)

	a, _ := e.Embed(context.Background(), "I feel sad and lonely")
	b, _ := e.Embed(context.Background(), "what time does the train depart")

	if sim := CosineSimilarity(a, b); sim > 0.5 {
		t.Fatalf("unrelated texts similarity = %v, want < 0.5", sim)
	}
}

func TestMockEmbedderRejectsEmpty(t *testing.T) {
	e := NewMockEmbedder(16)
	if _, err := e.Embed(context.Background(), "   "); err == nil {
		t.Fatalf("Embed() should reject blank text")
	}
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	if _, err := NewEmbedder(Config{Provider: "sentencepiece"}); err == nil {
		t.Fatalf("NewEmbedder() should reject unknown provider")
	}
}
