package fingerprint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/timmy/mediafind/internal/domain"
	_ "golang.org/x/image/webp"
)

// PHashBytes is the payload size of a perceptual hash (64-bit DCT pHash).
const PHashBytes = 8

// DecodeImage decodes an in-memory image buffer (jpeg, png, gif, webp).
// Parameters:
//   - data: raw image bytes.
// Returns:
//   - image.Image: decoded pixel buffer.
//   - error: wraps domain.ErrDecodeFailure if the buffer is unreadable.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}
	return img, nil
}

// PHash computes the 64-bit DCT perceptual hash of an image.
// Parameters:
//   - img: decoded pixel buffer.
// Returns:
//   - HashFingerprint: 8-byte big-endian bit pattern.
//   - error: wraps domain.ErrDecodeFailure if hashing fails.
func PHash(img image.Image) (HashFingerprint, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}
	buf := make([]byte, PHashBytes)
	binary.BigEndian.PutUint64(buf, h.GetHash())
	return HashFingerprint(buf), nil
}

// PHashData decodes an image buffer and computes its perceptual hash in
// one step. This is the write-path entry point for the hash-mode store.
func PHashData(data []byte) (HashFingerprint, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return PHash(img)
}
