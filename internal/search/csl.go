// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes records as a CSL-YAML list to w, in the given order.
func FormatCSL(records []types.ArticleRecord, w io.Writer) error {
	items := make([]CSLItem, len(records))
	for i, r := range records {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts an ArticleRecord to a CSLItem. Sentinel values are
// omitted rather than written as data.
func toCSLItem(r types.ArticleRecord) CSLItem {
	item := CSLItem{
		ID:    "pmid:" + r.PMID,
		Type:  "article-journal",
		Title: r.Title,
		DOI:   r.DOI,
		URL:   r.URL,
	}
	if r.PMID != types.UnknownPMID {
		item.PMID = r.PMID
	}
	if r.Title == types.NoTitle {
		item.Title = ""
	}
	if r.Abstract != types.NoAbstract {
		item.Abstract = r.Abstract
	}
	if r.Journal != types.UnknownJournal {
		item.ContainerTitle = r.Journal
	}

	if len(r.AuthorNames) == len(r.Authors) {
		for _, a := range r.AuthorNames {
			item.Author = append(item.Author, CSLName{Given: a.Given, Family: a.Family})
		}
	} else {
		for _, a := range r.Authors {
			item.Author = append(item.Author, parseAuthorName(a))
		}
	}

	// PublicationYear may hold non-numeric text; only plain years are dated.
	if year, err := strconv.Atoi(r.PublicationYear); err == nil {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}

	return item
}

// parseAuthorName splits a full name string into CSL family/given parts for
// records without AuthorNames. It splits on the last space, so particles of a
// multi-word family name end up in the given name. Single-token names use the
// literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
