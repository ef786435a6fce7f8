// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// efetch XML structure. Only the fields we read are declared.

type pubmedArticle struct {
	Citation struct {
		PMID    mixedText       `xml:"PMID"`
		Article *medlineArticle `xml:"Article"`
	} `xml:"MedlineCitation"`
	ArticleIDs []articleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type medlineArticle struct {
	Title    mixedText   `xml:"ArticleTitle"`
	Abstract []mixedText `xml:"Abstract>AbstractText"`
	Authors  []struct {
		LastName mixedText `xml:"LastName"`
		ForeName mixedText `xml:"ForeName"`
	} `xml:"AuthorList>Author"`
	Journal struct {
		Title mixedText `xml:"Title"`
		Year  mixedText `xml:"JournalIssue>PubDate>Year"`
	} `xml:"Journal"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// mixedText captures all character data beneath an element, including text
// inside inline markup such as <i> or <sup>.
type mixedText string

func (m *mixedText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for depth := 1; depth > 0; {
		tok, err := d.Token()
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	*m = mixedText(strings.TrimSpace(b.String()))
	return nil
}

func (m mixedText) or(fallback string) string {
	if m == "" {
		return fallback
	}
	return string(m)
}

// errNoArticle marks an entry without an Article element.
var errNoArticle = errors.New("entry has no Article element")

// ParseArticles converts an efetch XML document into records in document
// order. Entries that fail to decode are logged and skipped; a document that
// is not well-formed fails with ErrParseFailure.
func ParseArticles(document string, log *zap.Logger) ([]types.ArticleRecord, error) {
	if log == nil {
		log = zap.NewNop()
	}

	d := xml.NewDecoder(strings.NewReader(document))
	d.Entity = xml.HTMLEntity

	var (
		records []types.ArticleRecord
		sawRoot bool
	)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "PubmedArticle" {
			continue
		}

		var entry pubmedArticle
		if err := d.DecodeElement(&entry, &start); err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
			}
			log.Warn("skipping malformed article entry", zap.Int("index", len(records)), zap.Error(err))
			continue
		}

		rec, err := entry.record()
		if err != nil {
			log.Warn("skipping malformed article entry", zap.String("pmid", string(entry.Citation.PMID)), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: document has no root element", ErrParseFailure)
	}
	return records, nil
}

// record maps a decoded entry to an ArticleRecord, substituting sentinels for
// absent fields.
func (p pubmedArticle) record() (types.ArticleRecord, error) {
	a := p.Citation.Article
	if a == nil {
		return types.ArticleRecord{}, errNoArticle
	}

	pmid := p.Citation.PMID.or(types.UnknownPMID)
	rec := types.ArticleRecord{
		PMID:            pmid,
		Title:           a.Title.or(types.NoTitle),
		Abstract:        types.NoAbstract,
		Journal:         a.Journal.Title.or(types.UnknownJournal),
		PublicationYear: a.Journal.Year.or(types.UnknownPubYear),
		URL:             types.PubMedURL(pmid),
		Authors:         []string{},
	}
	if len(a.Abstract) > 0 {
		rec.Abstract = a.Abstract[0].or(types.NoAbstract)
	}
	for _, au := range a.Authors {
		if au.ForeName == "" || au.LastName == "" {
			continue
		}
		rec.Authors = append(rec.Authors, string(au.ForeName)+" "+string(au.LastName))
		rec.AuthorNames = append(rec.AuthorNames, types.AuthorName{Given: string(au.ForeName), Family: string(au.LastName)})
	}
	for _, id := range p.ArticleIDs {
		if id.Type == "doi" {
			rec.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	return rec, nil
}
