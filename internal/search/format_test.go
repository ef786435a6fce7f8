// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

func TestFormatResultsEmpty(t *testing.T) {
	assert.Equal(t, "No articles found for query: 'xyzzy'", FormatResults(nil, "xyzzy"))
}

func TestFormatResultsExact(t *testing.T) {
	records := []types.ArticleRecord{
		{
			PMID:              "123",
			Title:             "First",
			Abstract:          "Short abstract.",
			Authors:           []string{"A One", "B Two", "C Three", "D Four"},
			Journal:           "J Test",
			PublicationYear:   "2020",
			DOI:               "10.1/abc",
			URL:               types.PubMedURL("123"),
			ReferencedByCount: 2,
		},
		{
			PMID:            "456",
			Title:           "Second",
			Abstract:        types.NoAbstract,
			Authors:         []string{"E Five"},
			Journal:         types.UnknownJournal,
			PublicationYear: types.UnknownPubYear,
			URL:             types.PubMedURL("456"),
		},
	}

	want := strings.Join([]string{
		"PubMed Search Results for: 'q'",
		"Found 2 relevant articles:",
		"==================================================",
		"",
		"1. First",
		"   Authors: A One, B Two, C Three et al.",
		"   Journal: J Test (2020) [Citations in result set: 2]",
		"   PMID: 123",
		"   URL: https://pubmed.ncbi.nlm.nih.gov/123/",
		"   DOI: https://doi.org/10.1/abc",
		"   Abstract: Short abstract.",
		"----------------------------------------",
		"",
		"2. Second",
		"   Authors: E Five",
		"   Journal: Unknown Journal (Unknown)",
		"   PMID: 456",
		"   URL: https://pubmed.ncbi.nlm.nih.gov/456/",
		"   Abstract: No abstract available",
		"----------------------------------------",
	}, "\n")

	assert.Equal(t, want, FormatResults(records, "q"))
}

func TestFormatResultsTruncatesAbstract(t *testing.T) {
	tests := []struct {
		name     string
		abstract string
		want     string
	}{
		{"exactly 300", strings.Repeat("a", 300), strings.Repeat("a", 300)},
		{"301", strings.Repeat("a", 301), strings.Repeat("a", 300) + "..."},
		{"multibyte", strings.Repeat("é", 301), strings.Repeat("é", 300) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatResults([]types.ArticleRecord{{PMID: "1", Title: "t", Abstract: tt.abstract}}, "q")
			assert.Contains(t, out, "   Abstract: "+tt.want+"\n")
		})
	}
}

func TestFormatResultsNoAuthors(t *testing.T) {
	out := FormatResults([]types.ArticleRecord{{PMID: "1", Title: "t"}}, "q")
	assert.Contains(t, out, "   Authors: \n")
	assert.NotContains(t, out, "DOI:")
	assert.NotContains(t, out, "Citations in result set")
}
