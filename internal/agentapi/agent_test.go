// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-research/internal/metrics"
	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearcher struct {
	got search.Request
	res search.Result
	err error
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (search.Result, error) {
	f.got = req
	return f.res, f.err
}

type fakeRetriever struct {
	pmcid, source string
	resp          types.ArticleResponse
}

func (f *fakeRetriever) Retrieve(_ context.Context, pmcid, source string) types.ArticleResponse {
	f.pmcid, f.source = pmcid, source
	return f.resp
}

func sampleResult() search.Result {
	return search.Result{
		Query: "crispr",
		Records: []types.ArticleRecord{{
			PMID: "1", Title: "T", Abstract: "A", Authors: []string{"Jane Doe"},
			Journal: "J", PublicationYear: "2020", URL: types.PubMedURL("1"),
		}},
	}
}

func event(path string, params ...string) Event {
	ev := Event{ActionGroup: "pubmed", APIPath: path, HTTPMethod: "POST"}
	for i := 0; i+1 < len(params); i += 2 {
		ev.Parameters = append(ev.Parameters, Parameter{Name: params[i], Type: "string", Value: params[i+1]})
	}
	return ev
}

func body(r Response) string {
	return r.Response.ResponseBody["application/json"].Body
}

func TestHandleSearch(t *testing.T) {
	s := &fakeSearcher{res: sampleResult()}
	a := &Agent{Searcher: s}

	resp := a.Handle(context.Background(), event(PathSearch, "query", "crispr", "max_results", "200", "max_records", "20", "rerank", "referenced_by"))

	assert.Equal(t, "1.0", resp.MessageVersion)
	assert.Equal(t, "pubmed", resp.Response.ActionGroup)
	assert.Equal(t, PathSearch, resp.Response.APIPath)
	assert.Equal(t, "POST", resp.Response.HTTPMethod)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.Equal(t, sampleResult().String(), body(resp))
	assert.Equal(t, search.Request{Query: "crispr", MaxResults: 200, MaxRecords: 20, Rerank: "referenced_by"}, s.got)
}

func TestHandleSearchMissingQuery(t *testing.T) {
	a := &Agent{Searcher: &fakeSearcher{}}
	for _, ev := range []Event{event(PathSearch), event(PathSearch, "query", "")} {
		resp := a.Handle(context.Background(), ev)
		assert.Equal(t, http.StatusBadRequest, resp.Response.HTTPStatusCode)
		assert.Equal(t, "Error: Query parameter is required", body(resp))
	}
}

func TestHandleSearchBadInteger(t *testing.T) {
	resp := (&Agent{Searcher: &fakeSearcher{}}).Handle(context.Background(), event(PathSearch, "query", "q", "max_results", "many"))
	assert.Equal(t, http.StatusBadRequest, resp.Response.HTTPStatusCode)
	assert.Contains(t, body(resp), "max_results")
}

func TestHandleSearchFailure(t *testing.T) {
	err := fmt.Errorf("%w: HTTP 503", search.ErrSearchFailure)
	a := &Agent{Searcher: &fakeSearcher{err: err}}

	resp := a.Handle(context.Background(), event(PathSearch, "query", "q"))
	assert.Equal(t, http.StatusInternalServerError, resp.Response.HTTPStatusCode)
	assert.Equal(t, "Error during PubMed search: pubmed search failed: HTTP 503", body(resp))
}

func TestHandleRead(t *testing.T) {
	r := &fakeRetriever{resp: types.NewSuccess("PMC1", "text", "oa_comm/xml/all/PMC1.xml", "https://example.org/a", "Successfully retrieved and processed article PMC1")}
	a := &Agent{Retriever: r}

	resp := a.Handle(context.Background(), event(PathRead, "pmcid", "PMC1", "source", "https://example.org/a"))
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.Equal(t, "PMC1", r.pmcid)
	assert.Equal(t, "https://example.org/a", r.source)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body(resp)), &decoded))
	assert.Equal(t, "success", decoded["status"])
	assert.Equal(t, "text", decoded["text"])
	assert.Equal(t, "commercial", decoded["license_type"])
}

func TestHandleReadMissingPMCID(t *testing.T) {
	resp := (&Agent{Retriever: &fakeRetriever{}}).Handle(context.Background(), event(PathRead, "source", "https://x.org"))
	assert.Equal(t, http.StatusBadRequest, resp.Response.HTTPStatusCode)
	assert.Equal(t, "Error: PMCID parameter is required", body(resp))
}

func TestHandleUnknownPath(t *testing.T) {
	resp := (&Agent{}).Handle(context.Background(), event("/summarize"))
	assert.Equal(t, http.StatusNotFound, resp.Response.HTTPStatusCode)
}

func TestRouterActions(t *testing.T) {
	a := &Agent{Searcher: &fakeSearcher{res: sampleResult()}}
	router := NewRouter(a, types.ServerConfig{})

	payload, err := json.Marshal(event(PathSearch, "query", "crispr"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/actions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.True(t, strings.HasPrefix(body(resp), "PubMed Search Results for: 'crispr'"))
}

func TestRouterActionsMalformedEvent(t *testing.T) {
	router := NewRouter(&Agent{}, types.ServerConfig{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/actions", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterSearch(t *testing.T) {
	s := &fakeSearcher{res: sampleResult()}
	router := NewRouter(&Agent{Searcher: s}, types.ServerConfig{})

	t.Run("text", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search?query=crispr&max_records=5", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, sampleResult().String(), w.Body.String())
		assert.Equal(t, 5, s.got.MaxRecords)
	})

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search?query=crispr&format=json", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var out searchJSON
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "crispr", out.Query)
		assert.Len(t, out.Records, 1)
	})

	t.Run("bad integer", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search?query=q&max_results=ten", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouterSearchErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: empty", search.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("%w: timeout", search.ErrSearchFailure), http.StatusBadGateway},
		{errors.Join(search.ErrParseFailure), http.StatusBadGateway},
	}
	for _, tt := range tests {
		router := NewRouter(&Agent{Searcher: &fakeSearcher{err: tt.err}}, types.ServerConfig{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search?query=q", nil))
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}
}

func TestRouterArticle(t *testing.T) {
	tests := []struct {
		name string
		path string
		resp types.ArticleResponse
		want int
	}{
		{"success", "/v1/articles/PMC1", types.NewSuccess("PMC1", "x", "k", "", "ok"), http.StatusOK},
		{"restricted", "/v1/articles/PMC1", types.NewLicensingRestriction("PMC1", "k", "", "nc"), http.StatusOK},
		{"not found", "/v1/articles/PMC1", types.NewNotFound("PMC1", "k", "", "missing"), http.StatusNotFound},
		{"invalid id", "/v1/articles/abc", types.NewFailure("abc", "", "", "bad id"), http.StatusBadRequest},
		{"invalid source", "/v1/articles/PMC1?source=ftp://x", types.NewFailure("PMC1", "", "ftp://x", "bad source"), http.StatusBadRequest},
		{"store failure", "/v1/articles/PMC1", types.NewFailure("PMC1", "", "", "S3 access error: denied"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&Agent{Retriever: &fakeRetriever{resp: tt.resp}}, types.ServerConfig{})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
			assert.Equal(t, string(tt.resp.Status), decoded["status"])
		})
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := NewRouter(&Agent{}, types.ServerConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"healthy":true}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRequestIDPropagates(t *testing.T) {
	router := NewRouter(&Agent{}, types.ServerConfig{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRouterRateLimit(t *testing.T) {
	router := NewRouter(&Agent{Searcher: &fakeSearcher{res: sampleResult()}}, types.ServerConfig{RateLimit: 1, RateBurst: 2})

	codes := make([]int, 0, 3)
	for n := 0; n < 3; n++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search?query=q", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health is not limited")
}

func TestHandleUnknownPathsShareMetricLabel(t *testing.T) {
	a := &Agent{}
	for i := 0; i < 50; i++ {
		a.Handle(context.Background(), event(fmt.Sprintf("/random-%d", i)))
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pubmed_research_agent_actions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "api_path" {
					assert.Contains(t, []string{PathSearch, PathRead, metrics.UnknownAPIPath}, lp.GetValue())
				}
			}
		}
	}
	assert.Equal(t, metrics.UnknownAPIPath, pathLabel("/summarize"))
	assert.Equal(t, PathRead, pathLabel(PathRead))
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	l := newClientLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for i := 0; i < 10000; i++ {
		l.Allow(fmt.Sprintf("10.%d.%d.%d", i>>16&0xff, i>>8&0xff, i&0xff))
	}
	assert.Len(t, l.limiters, 10000)

	now = now.Add(l.idle)
	assert.True(t, l.Allow("192.0.2.1"))
	assert.Len(t, l.limiters, 1)
}

func TestClientLimiterKeepsActiveClients(t *testing.T) {
	l := newClientLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.Allow("10.0.0.1"))
	now = now.Add(l.idle - time.Second)
	l.Allow("10.0.0.2")
	now = now.Add(time.Second)
	l.Allow("10.0.0.3")

	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
	assert.Contains(t, l.limiters, "10.0.0.3")
}

func TestClientLimiterIsPerClient(t *testing.T) {
	l := newClientLimiter(1, 1)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}
