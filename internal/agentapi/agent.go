// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agentapi exposes search and article retrieval over HTTP, including
// the action-group event format used by Amazon Bedrock agents.
package agentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/metrics"
	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

// Action paths understood by the agent adapter.
const (
	PathSearch = "/search_pubmed"
	PathRead   = "/read_pubmed"
)

const messageVersion = "1.0"

// Searcher runs a PubMed search.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
}

// Retriever fetches one article.
type Retriever interface {
	Retrieve(ctx context.Context, pmcid, source string) types.ArticleResponse
}

// Parameter is one named agent parameter. Values always arrive as strings.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Event is an action-group invocation.
type Event struct {
	MessageVersion string      `json:"messageVersion,omitempty"`
	ActionGroup    string      `json:"actionGroup"`
	APIPath        string      `json:"apiPath"`
	HTTPMethod     string      `json:"httpMethod"`
	Parameters     []Parameter `json:"parameters"`
}

func (e Event) param(name string) (string, bool) {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ResponseBody wraps the body string under its content type.
type ResponseBody map[string]struct {
	Body string `json:"body"`
}

// ActionResponse is the inner response of an action-group reply.
type ActionResponse struct {
	ActionGroup    string       `json:"actionGroup"`
	APIPath        string       `json:"apiPath"`
	HTTPMethod     string       `json:"httpMethod"`
	HTTPStatusCode int          `json:"httpStatusCode"`
	ResponseBody   ResponseBody `json:"responseBody"`
}

// Response is the full action-group reply.
type Response struct {
	MessageVersion string         `json:"messageVersion"`
	Response       ActionResponse `json:"response"`
}

// Agent translates action-group events into Search and Retrieve calls.
type Agent struct {
	Searcher  Searcher
	Retriever Retriever
	Log       *zap.Logger
}

// Handle answers one event. The returned Response always carries a status
// code; Handle never fails.
func (a *Agent) Handle(ctx context.Context, ev Event) Response {
	log := a.logger().With(zap.String("action_group", ev.ActionGroup), zap.String("api_path", ev.APIPath))

	var (
		code int
		body string
	)
	switch ev.APIPath {
	case PathSearch:
		code, body = a.handleSearch(ctx, log, ev)
	case PathRead:
		code, body = a.handleRead(ctx, log, ev)
	default:
		code, body = http.StatusNotFound, fmt.Sprintf("Error: unknown api path %q", ev.APIPath)
	}

	metrics.RecordAgentAction(pathLabel(ev.APIPath), strconv.Itoa(code))
	log.Info("answered agent action", zap.Int("status", code))
	return wrap(ev, code, body)
}

func (a *Agent) handleSearch(ctx context.Context, log *zap.Logger, ev Event) (int, string) {
	query, _ := ev.param("query")
	if strings.TrimSpace(query) == "" {
		return http.StatusBadRequest, "Error: Query parameter is required"
	}

	req := search.Request{Query: query}
	var err error
	if req.MaxResults, err = intParam(ev, "max_results"); err != nil {
		return http.StatusBadRequest, "Error: " + err.Error()
	}
	if req.MaxRecords, err = intParam(ev, "max_records"); err != nil {
		return http.StatusBadRequest, "Error: " + err.Error()
	}
	if v, ok := ev.param("rerank"); ok {
		req.Rerank = search.RerankPolicy(v)
	}

	start := time.Now()
	res, err := a.Searcher.Search(ctx, req)
	if err != nil {
		metrics.RecordSearch(searchOutcome(err), 0, time.Since(start))
		if errors.Is(err, search.ErrInvalidArgument) {
			return http.StatusBadRequest, "Error: Query parameter is required"
		}
		log.Error("search failed", zap.Error(err))
		return http.StatusInternalServerError, fmt.Sprintf("Error during PubMed search: %v", err)
	}
	metrics.RecordSearch(resultOutcome(res), len(res.Records), time.Since(start))
	return http.StatusOK, res.String()
}

func (a *Agent) handleRead(ctx context.Context, log *zap.Logger, ev Event) (int, string) {
	pmcid, _ := ev.param("pmcid")
	if pmcid == "" {
		return http.StatusBadRequest, "Error: PMCID parameter is required"
	}
	source, _ := ev.param("source")

	start := time.Now()
	resp := a.Retriever.Retrieve(ctx, pmcid, source)
	metrics.RecordArticle(string(resp.Status), time.Since(start))

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("encoding article response", zap.Error(err))
		return http.StatusInternalServerError, fmt.Sprintf("Error reading PMC article: %v", err)
	}
	return http.StatusOK, string(data)
}

func (a *Agent) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// intParam reads an optional integer parameter; absent or empty yields 0,
// which the search client replaces with its default.
func intParam(ev Event, name string) (int, error) {
	v, ok := ev.param(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// pathLabel bounds the api_path metric label to the known action paths.
func pathLabel(path string) string {
	switch path {
	case PathSearch, PathRead:
		return path
	}
	return metrics.UnknownAPIPath
}

func wrap(ev Event, code int, body string) Response {
	return Response{
		MessageVersion: messageVersion,
		Response: ActionResponse{
			ActionGroup:    ev.ActionGroup,
			APIPath:        ev.APIPath,
			HTTPMethod:     ev.HTTPMethod,
			HTTPStatusCode: code,
			ResponseBody: ResponseBody{
				"application/json": {Body: body},
			},
		},
	}
}

func searchOutcome(err error) string {
	if errors.Is(err, search.ErrInvalidArgument) {
		return "invalid"
	}
	return "failed"
}

func resultOutcome(res search.Result) string {
	if len(res.Records) == 0 {
		return "empty"
	}
	return "ok"
}
