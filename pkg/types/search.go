// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubmed-research pipeline:
// the ArticleRecord produced by the search stage, the ArticleResponse produced
// by article retrieval, and the configuration for both.
package types

// Sentinel values substituted when a field is absent from the source XML.
const (
	UnknownPMID       = "Unknown"
	NoTitle           = "No title available"
	NoAbstract        = "No abstract available"
	UnknownJournal    = "Unknown Journal"
	UnknownPubYear    = "Unknown"
	pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"
)

// ArticleRecord is one bibliographic entry parsed from an efetch response.
type ArticleRecord struct {
	// PMID is the PubMed identifier, or UnknownPMID when the entry carries none.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title, or NoTitle.
	Title string `json:"title" yaml:"title"`

	// Abstract is the first abstract text block, or NoAbstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists "Given Family" names in source order. Authors missing
	// either name part are not included.
	Authors []string `json:"authors" yaml:"authors"`

	// AuthorNames holds the same authors with the name parts kept apart, so
	// multi-word family names ("van der Berg") survive citation export.
	// It is parallel to Authors when set.
	AuthorNames []AuthorName `json:"-" yaml:"author_names,omitempty"`

	// Journal is the full journal title, or UnknownJournal.
	Journal string `json:"journal" yaml:"journal"`

	// PublicationYear is kept as text: source data may hold ranges or "in press".
	PublicationYear string `json:"publication_year" yaml:"publication_year"`

	// DOI is the bare DOI (no resolver prefix), empty when absent.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the canonical PubMed landing page for PMID.
	URL string `json:"pubmed_url" yaml:"pubmed_url"`

	// ReferencedByCount is the number of other records in the same result set
	// whose abstract mentions this record's title. It stays 0 unless the
	// result set was reranked.
	ReferencedByCount int `json:"referenced_by_count" yaml:"referenced_by_count"`
}

// AuthorName is an author's given and family name as recorded by PubMed
// (ForeName and LastName).
type AuthorName struct {
	Given  string `json:"given" yaml:"given"`
	Family string `json:"family" yaml:"family"`
}

// PubMedURL returns the canonical landing page URL for a PMID.
func PubMedURL(pmid string) string {
	return pubmedArticleBase + pmid + "/"
}
