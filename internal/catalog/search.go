package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"foodapp/internal/api"
)

// maxEditDistance bounds how sloppy a query may be before a restaurant stops
// matching at all.
const maxEditDistance = 3

// Rank filters and orders restaurants against a free-text query. Substring
// hits on name or cuisine rank first, then near-misses by edit distance. An
// empty query returns the catalog unchanged.
func Rank(query string, rs []api.Restaurant) []api.Restaurant {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rs
	}

	type scored struct {
		r     api.Restaurant
		score int
		pos   int
	}
	var hits []scored
	for i, r := range rs {
		s, ok := score(q, r)
		if !ok {
			continue
		}
		hits = append(hits, scored{r: r, score: s, pos: i})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})

	out := make([]api.Restaurant, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out
}

// score returns a rank (lower is better) or ok=false for no match.
// 0 = substring of the name, 1 = substring of the cuisine, 2+d = within edit
// distance d of a name word.
func score(q string, r api.Restaurant) (int, bool) {
	name := strings.ToLower(r.Name)
	if strings.Contains(name, q) {
		return 0, true
	}
	if strings.Contains(strings.ToLower(r.Cuisine), q) {
		return 1, true
	}

	best := maxEditDistance + 1
	for _, word := range strings.Fields(name) {
		if d := levenshtein.ComputeDistance(q, word); d < best {
			best = d
		}
	}
	if best > maxEditDistance {
		return 0, false
	}
	return 2 + best, true
}
