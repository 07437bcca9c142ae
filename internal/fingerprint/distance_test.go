package fingerprint

import (
	"errors"
	"math"
	"testing"

	"github.com/timmy/mediafind/internal/domain"
)

func TestHammingDistance(t *testing.T) {
	testCases := []struct {
		name string
		a    HashFingerprint
		b    HashFingerprint
		want int
	}{
		{
			name: "identical patterns",
			a:    HashFingerprint{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x11, 0x22, 0x33},
			b:    HashFingerprint{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x11, 0x22, 0x33},
			want: 0,
		},
		{
			name: "single bit flipped",
			a:    HashFingerprint{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			b:    HashFingerprint{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			want: 1,
		},
		{
			name: "all bits differ",
			a:    HashFingerprint{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			b:    HashFingerprint{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			want: 64,
		},
		{
			name: "spread across bytes",
			a:    HashFingerprint{0x0F, 0xF0},
			b:    HashFingerprint{0x00, 0x00},
			want: 8,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := HammingDistance(tc.a, tc.b)
			if err != nil {
				t.Fatalf("HammingDistance returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("HammingDistance = %d, want %d", got, tc.want)
			}

			// Distance is symmetric
			rev, err := HammingDistance(tc.b, tc.a)
			if err != nil {
				t.Fatalf("HammingDistance (reversed) returned error: %v", err)
			}
			if rev != got {
				t.Errorf("asymmetric distance: %d vs %d", got, rev)
			}
		})
	}
}

func TestHammingDistanceWidthMismatch(t *testing.T) {
	a := HashFingerprint{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	b := HashFingerprint{0x00, 0x00}

	_, err := HammingDistance(a, b)
	if err == nil {
		t.Fatal("expected error for mismatched widths, got nil")
	}
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	testCases := []struct {
		name string
		a    EmbeddingFingerprint
		b    EmbeddingFingerprint
		want float64
	}{
		{
			name: "identical vectors",
			a:    EmbeddingFingerprint{0.5, -0.25, 0.75, 1.0},
			b:    EmbeddingFingerprint{0.5, -0.25, 0.75, 1.0},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    EmbeddingFingerprint{1, 0},
			b:    EmbeddingFingerprint{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    EmbeddingFingerprint{1, 2, 3},
			b:    EmbeddingFingerprint{-1, -2, -3},
			want: -1.0,
		},
		{
			name: "scaled copy keeps similarity 1",
			a:    EmbeddingFingerprint{0.1, 0.2, 0.3},
			b:    EmbeddingFingerprint{1, 2, 3},
			want: 1.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("CosineSimilarity returned error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	a := EmbeddingFingerprint{0, 0, 0}
	b := EmbeddingFingerprint{1, 2, 3}

	got, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity returned error: %v", err)
	}
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("zero vector produced non-finite similarity: %f", got)
	}
	if got != 0 {
		t.Errorf("similarity with zero vector = %f, want 0", got)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity(EmbeddingFingerprint{1, 2}, EmbeddingFingerprint{1, 2, 3})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestCosineDistance(t *testing.T) {
	a := EmbeddingFingerprint{1, 0}

	self, err := CosineDistance(a, a)
	if err != nil {
		t.Fatalf("CosineDistance returned error: %v", err)
	}
	if math.Abs(self) > 1e-6 {
		t.Errorf("self distance = %f, want 0", self)
	}

	far, err := CosineDistance(a, EmbeddingFingerprint{0, 1})
	if err != nil {
		t.Fatalf("CosineDistance returned error: %v", err)
	}
	if math.Abs(far-1.0) > 1e-6 {
		t.Errorf("orthogonal distance = %f, want 1", far)
	}
	if self >= far {
		t.Errorf("closer vector should have smaller distance: self=%f far=%f", self, far)
	}
}
