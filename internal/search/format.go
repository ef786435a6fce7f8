// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

const (
	maxListedAuthors = 3
	abstractPreview  = 300
)

func noArticlesMessage(query string) string {
	return fmt.Sprintf("No articles found for query: '%s'", query)
}

// FormatResults renders records as the plain-text search report. Records are
// numbered from 1 in the given order.
func FormatResults(records []types.ArticleRecord, query string) string {
	if len(records) == 0 {
		return noArticlesMessage(query)
	}

	lines := []string{
		fmt.Sprintf("PubMed Search Results for: '%s'", query),
		fmt.Sprintf("Found %d relevant articles:", len(records)),
		strings.Repeat("=", 50),
	}

	for i, r := range records {
		authors := r.Authors
		if len(authors) > maxListedAuthors {
			authors = authors[:maxListedAuthors]
		}
		authorLine := strings.Join(authors, ", ")
		if len(r.Authors) > maxListedAuthors {
			authorLine += " et al."
		}

		var citations string
		if r.ReferencedByCount > 0 {
			citations = fmt.Sprintf(" [Citations in result set: %d]", r.ReferencedByCount)
		}

		lines = append(lines,
			fmt.Sprintf("\n%d. %s", i+1, r.Title),
			"   Authors: "+authorLine,
			fmt.Sprintf("   Journal: %s (%s)%s", r.Journal, r.PublicationYear, citations),
			"   PMID: "+r.PMID,
			"   URL: "+r.URL,
		)
		if r.DOI != "" {
			lines = append(lines, "   DOI: https://doi.org/"+r.DOI)
		}
		lines = append(lines,
			"   Abstract: "+truncateRunes(r.Abstract, abstractPreview),
			strings.Repeat("-", 40),
		)
	}

	return strings.Join(lines, "\n")
}

// truncateRunes cuts s to n characters and appends "..." when it was longer.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
