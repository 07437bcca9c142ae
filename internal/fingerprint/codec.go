// Package fingerprint implements the content fingerprint codec: perceptual
// hashing of images, Hamming distance over bit patterns, cosine similarity
// over embedding vectors, and the blob encoding used by the store. All
// functions are pure and operate on in-memory data.
package fingerprint

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/timmy/mediafind/internal/domain"
)

// HashFingerprint is a fixed-width bit pattern summarizing an image's
// visual content. Visually similar images yield low Hamming distance.
// The bit width is len(h)*8.
type HashFingerprint []byte

// BitWidth returns the width of the bit pattern in bits.
func (h HashFingerprint) BitWidth() int {
	return len(h) * 8
}

// EmbeddingFingerprint is a fixed-length float vector produced by an
// external model. Vectors are treated as pre-normalization; cosine
// similarity is computed with explicit norms, never assuming unit length.
type EmbeddingFingerprint []float32

// EncodeVector encodes an embedding vector into the store's blob format
// (little-endian float32 sequence).
// Parameters:
//   - v: vector to encode.
// Returns:
//   - []byte: encoded payload, 4 bytes per dimension.
func EncodeVector(v EmbeddingFingerprint) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector decodes a store payload back into an embedding vector.
// Parameters:
//   - payload: blob previously produced by EncodeVector.
// Returns:
//   - EmbeddingFingerprint: decoded vector.
//   - error: wraps domain.ErrDimensionMismatch if the payload length is
//     not a multiple of 4 (a corrupted row, not a condition to skip).
func DecodeVector(payload []byte) (EmbeddingFingerprint, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a float32 sequence: %w",
			len(payload), domain.ErrDimensionMismatch)
	}
	v := make(EmbeddingFingerprint, len(payload)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}
	return v, nil
}
