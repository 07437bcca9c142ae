package fingerprint

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/timmy/mediafind/internal/domain"
)

// cosineEpsilon guards the cosine denominator against exactly-zero
// vectors. Similarity with a zero vector degrades to ~0, never NaN.
const cosineEpsilon = 1e-8

// HammingDistance counts the differing bit positions between two
// equal-width bit patterns.
// Parameters:
//   - a, b: bit patterns of the same width.
// Returns:
//   - int: number of differing bits.
//   - error: wraps domain.ErrDimensionMismatch if the widths differ.
func HammingDistance(a, b HashFingerprint) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hash widths %d and %d: %w",
			a.BitWidth(), b.BitWidth(), domain.ErrDimensionMismatch)
	}
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b| + eps) between two
// vectors of equal dimension. The result lies in [-1, 1] for non-zero
// vectors; a vector with itself scores 1 within floating tolerance.
// Parameters:
//   - a, b: vectors of the same dimension.
// Returns:
//   - float64: cosine similarity.
//   - error: wraps domain.ErrDimensionMismatch if the dimensions differ.
func CosineSimilarity(a, b EmbeddingFingerprint) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions %d and %d: %w",
			len(a), len(b), domain.ErrDimensionMismatch)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon), nil
}

// CosineDistance converts cosine similarity to the distance measure used
// for ranking: d = 1 - similarity.
func CosineDistance(a, b EmbeddingFingerprint) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}
