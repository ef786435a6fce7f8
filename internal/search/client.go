// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries PubMed through NCBI E-utilities, parses the article
// records, optionally reranks them by in-set citation linkage, and renders a
// text report.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/httputil"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

// eutilsBase is the E-utilities endpoint root. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// freeFullTextFilter restricts results to articles whose full text may be
// reused. It is appended to every query.
const freeFullTextFilter = ` AND "loattrfree full text"[sb]`

const (
	defaultMaxResults = 100
	maxMaxResults     = 1000
	maxMaxRecords     = 100

	defaultSearchTimeout = 30 * time.Second
	defaultFetchTimeout  = 60 * time.Second
)

var (
	// ErrInvalidArgument marks a request rejected before any network call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSearchFailure marks a transport, timeout or HTTP status failure of
	// either E-utilities call.
	ErrSearchFailure = errors.New("pubmed search failed")

	// ErrParseFailure marks a response that could not be decoded.
	ErrParseFailure = errors.New("pubmed response could not be parsed")
)

// RerankPolicy selects the ordering policy applied after parsing.
type RerankPolicy string

// RerankReferencedBy orders records by in-set "referenced by" count.
const RerankReferencedBy RerankPolicy = "referenced_by"

// Request holds the parameters of one search.
type Request struct {
	Query string

	// MaxResults caps the identifiers requested from esearch. Values outside
	// [1, 1000] fall back to 100.
	MaxResults int

	// MaxRecords caps the records fetched. Values outside [1, 100] mean no cap.
	MaxRecords int

	// Rerank is the ordering policy. Unknown values fall back to
	// RerankReferencedBy.
	Rerank RerankPolicy
}

// normalize applies the parameter defaults and bounds.
func (r Request) normalize() Request {
	if r.MaxResults < 1 || r.MaxResults > maxMaxResults {
		r.MaxResults = defaultMaxResults
	}
	if r.MaxRecords < 1 || r.MaxRecords > maxMaxRecords {
		r.MaxRecords = 0
	}
	if r.Rerank != RerankReferencedBy {
		r.Rerank = RerankReferencedBy
	}
	return r
}

// Result is the ordered outcome of a search.
type Result struct {
	Query   string
	Records []types.ArticleRecord

	// Message is a human-readable note set when no identifiers matched.
	Message string
}

// String renders the result as the text report.
func (r Result) String() string {
	return FormatResults(r.Records, r.Query)
}

// Client issues E-utilities requests. A Client holds no per-call state and
// is safe for concurrent use.
type Client struct {
	HTTP   *http.Client
	Config types.SearchConfig
	Logger *zap.Logger
}

// NewClient returns a Client using httpClient (http.DefaultClient when nil).
func NewClient(httpClient *http.Client, cfg types.SearchConfig, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{HTTP: httpClient, Config: cfg, Logger: logger}
}

// Search resolves the query to PMIDs, fetches their records, reranks them,
// and returns them in final order. An empty query fails with
// ErrInvalidArgument without any network call.
func (c *Client) Search(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Result{}, fmt.Errorf("%w: query parameter is required and must be a non-empty string", ErrInvalidArgument)
	}
	req = req.normalize()
	log := c.Logger.With(zap.String("query", req.Query))
	log.Info("searching pubmed", zap.Int("max_results", req.MaxResults), zap.Int("max_records", req.MaxRecords))

	pmids, err := c.searchIDs(ctx, req.Query+freeFullTextFilter, req.MaxResults)
	if err != nil {
		return Result{}, err
	}
	if len(pmids) == 0 {
		log.Info("no articles found")
		return Result{Query: req.Query, Message: noArticlesMessage(req.Query)}, nil
	}
	log.Info("found articles", zap.Int("count", len(pmids)))

	if req.MaxRecords > 0 && len(pmids) > req.MaxRecords {
		pmids = pmids[:req.MaxRecords]
	}

	body, err := c.fetchDetails(ctx, pmids)
	if err != nil {
		return Result{}, err
	}

	records, err := ParseArticles(body, log)
	if err != nil {
		return Result{}, err
	}

	if req.Rerank == RerankReferencedBy && len(records) > 1 {
		records = safeRerank(records, log)
	}

	return Result{Query: req.Query, Records: records}, nil
}

// rerankFunc is swapped by tests to exercise the recovery path.
var rerankFunc = Rerank

// safeRerank reranks records and keeps the original order if ranking panics.
func safeRerank(records []types.ArticleRecord, log *zap.Logger) (out []types.ArticleRecord) {
	original := make([]types.ArticleRecord, len(records))
	copy(original, records)
	defer func() {
		if r := recover(); r != nil {
			log.Warn("citation ranking failed, using original order", zap.Any("panic", r))
			out = original
		}
	}()
	return rerankFunc(records)
}

// esearchResponse captures the identifier list of an esearch JSON reply.
type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// searchIDs runs esearch and returns PMIDs in relevance order.
func (c *Client) searchIDs(ctx context.Context, term string, maxResults int) ([]string, error) {
	form := c.baseForm()
	form.Set("term", term)
	form.Set("retmax", strconv.Itoa(maxResults))
	form.Set("retmode", "json")
	form.Set("sort", "relevance")

	timeout := c.Config.SearchTimeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	data, err := c.post(ctx, eutilsBase+"/esearch.fcgi", form, timeout)
	if err != nil {
		c.Logger.Error("esearch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSearchFailure, err)
	}

	var sr esearchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("%w: decoding esearch response: %v", ErrSearchFailure, err)
	}
	return sr.ESearchResult.IDList, nil
}

// fetchDetails runs efetch for all pmids in one batch call.
func (c *Client) fetchDetails(ctx context.Context, pmids []string) (string, error) {
	form := c.baseForm()
	form.Set("id", strings.Join(pmids, ","))
	form.Set("retmode", "xml")
	form.Set("rettype", "abstract")

	timeout := c.Config.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	data, err := c.post(ctx, eutilsBase+"/efetch.fcgi", form, timeout)
	if err != nil {
		c.Logger.Error("efetch failed", zap.Error(err))
		return "", fmt.Errorf("%w: fetching article details: %v", ErrSearchFailure, err)
	}
	return string(data), nil
}

// baseForm returns the parameters common to every E-utilities call.
func (c *Client) baseForm() url.Values {
	form := url.Values{"db": {"pubmed"}}
	if c.Config.APIKey != "" {
		form.Set("api_key", c.Config.APIKey)
	}
	if c.Config.Email != "" {
		form.Set("email", c.Config.Email)
	}
	if c.Config.Tool != "" {
		form.Set("tool", c.Config.Tool)
	}
	return form
}

// post sends a form-encoded POST bounded by timeout and returns the body of
// a 2xx response.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := httputil.Do(c.HTTP, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}
