package domain

import "errors"

// Error taxonomy for the fingerprinting core.
//
// ErrDecodeFailure is recovered locally: the offending item or frame is
// logged, counted as skipped, and the run continues. The structural
// faults (ErrDimensionMismatch, ErrKindMismatch, ErrStoreUnavailable)
// are never recovered locally and propagate to the caller of the
// current operation.
var (
	// ErrDecodeFailure marks an unreadable image or video.
	ErrDecodeFailure = errors.New("media decode failure")

	// ErrDimensionMismatch marks a comparison between fingerprints of
	// different bit widths or vector dimensions. It indicates a
	// corrupted or misconfigured store, never a condition to skip.
	ErrDimensionMismatch = errors.New("fingerprint dimension mismatch")

	// ErrKindMismatch marks an attempt to mix hash and embedding
	// fingerprints within a single store instance.
	ErrKindMismatch = errors.New("fingerprint kind mismatch")

	// ErrStoreUnavailable marks an unreachable persistence backend. A
	// lost fingerprint write must be observable, so this is always
	// surfaced.
	ErrStoreUnavailable = errors.New("fingerprint store unavailable")
)
