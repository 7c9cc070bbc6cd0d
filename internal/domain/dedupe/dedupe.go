// Package dedupe collapses attention items that refer to the same domain object.
package dedupe

import "github.com/elockenvitz/tesseract/internal/domain/model"

// Better reports whether a should replace b as the representative of their
// shared source key: higher attention-type priority first, then higher score.
// Equal items keep the incumbent, so earlier input wins ties.
func Better(a, b model.Item) bool {
	if pa, pb := a.AttentionType.Priority(), b.AttentionType.Priority(); pa != pb {
		return pa > pb
	}
	return a.Score > b.Score
}

// BySource keeps exactly one item per source_type:source_id key. The output
// lists winners in the order their key first appeared in the input, so for a
// given input the result is always the same.
func BySource(items []model.Item) []model.Item {
	index := make(map[string]int, len(items))
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		key := it.SourceKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, it)
			continue
		}
		if Better(it, out[pos]) {
			out[pos] = it
		}
	}
	return out
}
