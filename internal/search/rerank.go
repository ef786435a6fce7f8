// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// Rerank counts, for each record, how many other records in the set mention
// its title inside their abstract, stores that count in ReferencedByCount,
// and returns the records sorted by count descending. Ties keep their input
// order. The input slice is not modified.
//
// This is a substring heuristic over the result set only; it is not citation
// data.
func Rerank(records []types.ArticleRecord) []types.ArticleRecord {
	out := make([]types.ArticleRecord, len(records))
	copy(out, records)

	titles := make([]string, len(out))
	abstracts := make([]string, len(out))
	for i, r := range out {
		titles[i] = strings.ToLower(r.Title)
		abstracts[i] = strings.ToLower(r.Abstract)
	}

	for i := range out {
		count := 0
		for j := range out {
			if out[j].PMID == out[i].PMID {
				continue
			}
			if strings.Contains(abstracts[j], titles[i]) {
				count++
			}
		}
		out[i].ReferencedByCount = count
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReferencedByCount > out[j].ReferencedByCount
	})
	return out
}
