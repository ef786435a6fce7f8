// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup extracts readable text from JATS article XML as published in
// the PMC Open Access dataset.
//
// Parsing never resolves DTDs or external entities and rejects documents that
// declare their own entities. Failures are reported inside the returned text
// so callers always receive a string.
package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NoTextFound is returned when the document has no title, abstract or body.
const NoTextFound = "No readable text content found in article"

// Section labels, in output order.
const (
	titleLabel    = "Title: "
	abstractLabel = "Abstract: "
	bodyLabel     = "Content: "
)

var (
	// errEntityDeclaration rejects internal DTD subsets that declare entities.
	errEntityDeclaration = errors.New("entity declarations are forbidden")
	errNoElement         = errors.New("no element found")
)

// collector accumulates the text of one open element of interest.
type collector struct {
	name string
	text strings.Builder
}

// ExtractText returns the article titles, abstracts and bodies of a JATS
// document, each prefixed with its label and separated by blank lines.
func ExtractText(document string) string {
	titles, abstracts, bodies, err := collect(document)
	if err != nil {
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, errNoElement) {
			return fmt.Sprintf("Error parsing XML content: %v", err)
		}
		return fmt.Sprintf("Error extracting text from article: %v", err)
	}

	var parts []string
	for _, t := range titles {
		parts = append(parts, titleLabel+t)
	}
	for _, a := range abstracts {
		parts = append(parts, abstractLabel+a)
	}
	for _, b := range bodies {
		parts = append(parts, bodyLabel+b)
	}

	combined := strings.Join(parts, "\n\n")
	if strings.TrimSpace(combined) == "" {
		return NoTextFound
	}
	return combined
}

// collect walks the token stream once. Every open article-title, abstract
// and body element receives all character data beneath it; results keep the
// document order of their start tags.
func collect(document string) (titles, abstracts, bodies []string, err error) {
	d := xml.NewDecoder(strings.NewReader(document))
	d.Strict = true
	d.Entity = xml.HTMLEntity

	var (
		all     []*collector // every matched element, in start-tag order
		open    []*collector
		opened  []bool // per open element: whether it pushed onto open
		sawRoot bool
	)

	for {
		tok, tokErr := d.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, nil, tokErr
		}

		switch t := tok.(type) {
		case xml.Directive:
			if strings.Contains(string(t), "<!ENTITY") {
				return nil, nil, nil, errEntityDeclaration
			}
		case xml.StartElement:
			sawRoot = true
			switch t.Name.Local {
			case "article-title", "abstract", "body":
				c := &collector{name: t.Name.Local}
				all = append(all, c)
				open = append(open, c)
				opened = append(opened, true)
			default:
				opened = append(opened, false)
			}
		case xml.EndElement:
			if len(opened) == 0 {
				continue
			}
			if opened[len(opened)-1] {
				open = open[:len(open)-1]
			}
			opened = opened[:len(opened)-1]
		case xml.CharData:
			for _, c := range open {
				c.text.Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, nil, nil, errNoElement
	}

	for _, c := range all {
		text := strings.TrimSpace(c.text.String())
		if text == "" {
			continue
		}
		switch c.name {
		case "article-title":
			titles = append(titles, text)
		case "abstract":
			abstracts = append(abstracts, text)
		case "body":
			bodies = append(bodies, text)
		}
	}
	return titles, abstracts, bodies, nil
}
