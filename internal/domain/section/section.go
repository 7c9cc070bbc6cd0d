// Package section partitions deduplicated attention items into display sections.
package section

import (
	"sort"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

// Build partitions items into the four attention-type sections, sorts each by
// score descending (stable, so equal scores keep input order) and counts them.
// Items with an unknown attention type are dropped.
func Build(items []model.Item) (model.Sections, model.Counts) {
	var sections model.Sections
	for _, it := range items {
		if bucket := sections.Bucket(it.AttentionType); bucket != nil {
			*bucket = append(*bucket, it)
		}
	}

	for _, t := range model.AttentionTypes {
		bucket := *sections.Bucket(t)
		if bucket == nil {
			*sections.Bucket(t) = []model.Item{}
			continue
		}
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Score > bucket[j].Score })
	}

	counts := model.Counts{
		DecisionRequired: len(sections.DecisionRequired),
		ActionRequired:   len(sections.ActionRequired),
		Informational:    len(sections.Informational),
		Alignment:        len(sections.Alignment),
	}
	counts.Total = counts.DecisionRequired + counts.ActionRequired + counts.Informational + counts.Alignment
	return sections, counts
}
