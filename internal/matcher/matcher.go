// Package matcher implements similarity matching of a query fingerprint
// against the full set of stored fingerprints, and the ranking of raw
// per-fingerprint matches into an ordered list of source links.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/mediafind/internal/domain"
	"github.com/timmy/mediafind/internal/fingerprint"
	"golang.org/x/sync/errgroup"
)

// DefaultHashThreshold is the Hamming distance cutoff below which two
// perceptual hashes are considered a match.
const DefaultHashThreshold = 10

// Scanner enumerates all stored fingerprints. Enumeration order must be
// stable within a single scan; tie-breaks downstream depend on it.
type Scanner interface {
	ForEachFingerprint(ctx context.Context, fn func(domain.StoredFingerprint) error) error
}

// Match pairs a stored fingerprint with its computed distance to the
// query. Transient, consumed by Rank.
type Match struct {
	FingerprintID string
	RecordID      string
	SourceLink    string
	Distance      float64
}

// Config holds matcher settings.
type Config struct {
	HashThreshold int // Hamming cutoff for the hash policy; <=0 uses DefaultHashThreshold
	Workers       int // scoring shards; <=1 scores sequentially
}

// Matcher scores a query fingerprint against every stored fingerprint.
// Two policies exist, selected by fingerprint kind: Hamming-threshold for
// hashes and top-k cosine for embeddings.
type Matcher struct {
	threshold int
	workers   int
}

// New creates a Matcher.
// Parameters:
//   - cfg: matcher configuration; nil uses defaults.
// Returns:
//   - *Matcher: initialized matcher.
func New(cfg *Config) *Matcher {
	threshold := DefaultHashThreshold
	workers := 1
	if cfg != nil {
		if cfg.HashThreshold > 0 {
			threshold = cfg.HashThreshold
		}
		if cfg.Workers > 1 {
			workers = cfg.Workers
		}
	}
	return &Matcher{threshold: threshold, workers: workers}
}

// MatchHash emits a Match for every stored fingerprint whose Hamming
// distance to the query is strictly below the configured threshold. The
// threshold is the only filter: no ranking or limit is imposed here.
// Parameters:
//   - ctx: context for cancellation.
//   - store: fingerprint scanner.
//   - query: query hash.
// Returns:
//   - []Match: qualifying matches in scan order.
//   - error: domain.ErrDimensionMismatch on width disagreement,
//     domain.ErrKindMismatch on a non-hash row.
func (m *Matcher) MatchHash(ctx context.Context, store Scanner, query fingerprint.HashFingerprint) ([]Match, error) {
	rows, err := collect(ctx, store, domain.KindHash)
	if err != nil {
		return nil, err
	}
	dists, err := m.scoreAll(ctx, rows, func(row domain.StoredFingerprint) (float64, error) {
		d, err := fingerprint.HammingDistance(query, fingerprint.HashFingerprint(row.Payload))
		return float64(d), err
	})
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0)
	for i, row := range rows {
		if int(dists[i]) < m.threshold {
			matches = append(matches, newMatch(row, dists[i]))
		}
	}
	return matches, nil
}

// MatchEmbedding computes cosine distance (1 - similarity) between the
// query and every stored vector and returns the topK entries by smallest
// distance. Ties are broken by scan order. A store holding fewer than
// topK fingerprints returns all of them.
// Parameters:
//   - ctx: context for cancellation.
//   - store: fingerprint scanner.
//   - query: query vector.
//   - topK: number of matches to return, must be >= 1.
// Returns:
//   - []Match: up to topK matches in non-decreasing distance order.
//   - error: domain.ErrDimensionMismatch on dimension disagreement,
//     domain.ErrKindMismatch on a non-embedding row.
func (m *Matcher) MatchEmbedding(ctx context.Context, store Scanner, query fingerprint.EmbeddingFingerprint, topK int) ([]Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("top_k must be >= 1, got %d", topK)
	}
	rows, err := collect(ctx, store, domain.KindEmbedding)
	if err != nil {
		return nil, err
	}
	dists, err := m.scoreAll(ctx, rows, func(row domain.StoredFingerprint) (float64, error) {
		v, err := fingerprint.DecodeVector(row.Payload)
		if err != nil {
			return 0, err
		}
		return fingerprint.CosineDistance(query, v)
	})
	if err != nil {
		return nil, err
	}

	// Sort indices by distance, stable on scan order for equal scores.
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	matches := make([]Match, 0, topK)
	for _, i := range order[:topK] {
		matches = append(matches, newMatch(rows[i], dists[i]))
	}
	return matches, nil
}

func newMatch(row domain.StoredFingerprint, dist float64) Match {
	return Match{
		FingerprintID: row.FingerprintID,
		RecordID:      row.RecordID,
		SourceLink:    row.SourceLink,
		Distance:      dist,
	}
}

// collect materializes one scan, verifying kind uniformity. A row of the
// wrong kind means the store is corrupted or misconfigured; that is a
// hard error, never a silent skip.
func collect(ctx context.Context, store Scanner, want domain.FingerprintKind) ([]domain.StoredFingerprint, error) {
	var rows []domain.StoredFingerprint
	err := store.ForEachFingerprint(ctx, func(row domain.StoredFingerprint) error {
		if row.Kind != want {
			return fmt.Errorf("stored fingerprint %s has kind %q, store expects %q: %w",
				row.FingerprintID, row.Kind, want, domain.ErrKindMismatch)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// scoreAll computes the distance of every row to the query. With more
// than one worker the rows are scored in contiguous shards; results are
// written back by index, so scan order is preserved for tie-breaking.
func (m *Matcher) scoreAll(ctx context.Context, rows []domain.StoredFingerprint, score func(domain.StoredFingerprint) (float64, error)) ([]float64, error) {
	dists := make([]float64, len(rows))
	if m.workers <= 1 || len(rows) < m.workers*2 {
		for i, row := range rows {
			d, err := score(row)
			if err != nil {
				return nil, err
			}
			dists[i] = d
		}
		return dists, nil
	}

	g, _ := errgroup.WithContext(ctx)
	shard := (len(rows) + m.workers - 1) / m.workers
	for start := 0; start < len(rows); start += shard {
		end := start + shard
		if end > len(rows) {
			end = len(rows)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				d, err := score(rows[i])
				if err != nil {
					return err
				}
				dists[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dists, nil
}
