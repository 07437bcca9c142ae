package matcher

import "sort"

// RankedLink is a source link with its aggregated similarity score.
// Transient query output; callers truncate to their own display limit.
type RankedLink struct {
	SourceLink string  `json:"source_link"`
	Score      float64 `json:"score"`
	Matches    int     `json:"matches"`
}

// Rank groups matches by source link and orders the links by aggregated
// score, descending. Each match contributes score = 1/(1+distance); a
// link's score is the arithmetic mean over its matches, so a video with
// many matching keyframes is neither penalized nor rewarded for frame
// count alone. Ties are broken by the link's first appearance in the
// input (stable sort), making the output deterministic for a fixed
// match set.
// Parameters:
//   - matches: raw per-fingerprint match results.
// Returns:
//   - []RankedLink: full ordering, best first.
func Rank(matches []Match) []RankedLink {
	type group struct {
		sum   float64
		count int
	}
	groups := make(map[string]*group, len(matches))
	order := make([]string, 0, len(matches))

	for _, m := range matches {
		g, ok := groups[m.SourceLink]
		if !ok {
			g = &group{}
			groups[m.SourceLink] = g
			order = append(order, m.SourceLink)
		}
		g.sum += 1 / (1 + m.Distance)
		g.count++
	}

	ranked := make([]RankedLink, 0, len(order))
	for _, link := range order {
		g := groups[link]
		ranked = append(ranked, RankedLink{
			SourceLink: link,
			Score:      g.sum / float64(g.count),
			Matches:    g.count,
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}
