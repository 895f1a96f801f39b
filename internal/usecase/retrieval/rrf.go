package retrieval

import (
	"sort"

	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// FuseRRF merges ranked lists via Reciprocal Rank Fusion:
// score(d) = sum of 1/(k + i) over every list where d sits at 0-indexed
// position i. Output is ordered by score descending; ties keep the order in
// which ids were first seen, scanning lists in argument order. The document
// attached to the first occurrence of an id is kept.
func FuseRRF(k int, lists ...[]result.Result) []result.Result {
	type scored struct {
		res   result.Result
		score float64
	}

	var order []*scored
	merged := make(map[string]*scored)

	for _, list := range lists {
		for i, r := range list {
			s := 1.0 / float64(k+i)
			if existing, ok := merged[r.ID()]; ok {
				existing.score += s
				continue
			}
			entry := &scored{res: r, score: s}
			merged[r.ID()] = entry
			order = append(order, entry)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	results := make([]result.Result, len(order))
	for i, s := range order {
		results[i] = result.New(s.res.ID(), s.score, s.res.Document())
	}
	return results
}

// Ranked projects fused results onto {document_id, fused_score} pairs.
func Ranked(results []result.Result) []result.Ranked {
	out := make([]result.Ranked, len(results))
	for i := range results {
		out[i] = result.Ranked{DocumentID: results[i].ID(), FusedScore: results[i].Score()}
	}
	return out
}
