// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks the syntax of PMC identifiers and citation URLs
// before any network or storage access.
package validate

import (
	"regexp"
	"strings"
)

// pmcidPattern matches "PMC" followed by one or more ASCII digits.
var pmcidPattern = regexp.MustCompile(`^PMC[0-9]+$`)

// sourceURLPattern matches http(s) URLs whose host part does not start with
// '/', '$', '.', '?' or '#'.
var sourceURLPattern = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

// PMCID reports whether id, after trimming, is a PMC accession such as "PMC6033041".
func PMCID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	return pmcidPattern.MatchString(id)
}

// SourceURL reports whether url, after trimming, is an http or https URL
// usable as a citation source.
func SourceURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	return sourceURLPattern.MatchString(url)
}
