// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded later without re-querying PubMed.
type QueryFile struct {
	Query   QueryParams           `yaml:"query"`
	Results []types.ArticleRecord `yaml:"results"`
	Summary QuerySummary          `yaml:"summary"`
}

// QueryParams stores the request parameters after defaults were applied.
type QueryParams struct {
	Query      string `yaml:"query"`
	MaxResults int    `yaml:"max_results"`
	MaxRecords int    `yaml:"max_records,omitempty"`
	Rerank     RerankPolicy `yaml:"rerank"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	Message   string    `yaml:"message,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the request and its result to a YAML file.
func WriteQueryFile(path string, req Request, res Result) error {
	req = req.normalize()
	qf := QueryFile{
		Query: QueryParams{
			Query:      req.Query,
			MaxResults: req.MaxResults,
			MaxRecords: req.MaxRecords,
			Rerank:     req.Rerank,
		},
		Results: res.Records,
		Summary: QuerySummary{
			Total:     len(res.Records),
			Message:   res.Message,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// Request rebuilds the search request stored in the file.
func (p QueryParams) Request() Request {
	return Request{
		Query:      p.Query,
		MaxResults: p.MaxResults,
		MaxRecords: p.MaxRecords,
		Rerank:     p.Rerank,
	}
}

// Result rebuilds the search result stored in the file.
func (qf *QueryFile) Result() Result {
	return Result{Query: qf.Query.Query, Records: qf.Results, Message: qf.Summary.Message}
}
