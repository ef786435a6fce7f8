// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agentapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/metrics"
	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/internal/validate"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

const requestIDHeader = "X-Request-Id"

// NewRouter builds the gin engine serving the agent endpoint, the REST
// endpoints, health and metrics. cfg.RateLimit, when positive, bounds
// requests per client IP on the /v1 routes.
func NewRouter(agent *Agent, cfg types.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(agent.logger()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"healthy": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if cfg.RateLimit > 0 {
		v1.Use(rateLimit(newClientLimiter(cfg.RateLimit, cfg.RateBurst)))
	}
	v1.POST("/actions", agent.postAction)
	v1.GET("/search", agent.getSearch)
	v1.GET("/articles/:pmcid", agent.getArticle)
	return r
}

// Serve runs the router on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (a *Agent) postAction(c *gin.Context) {
	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, a.Handle(c.Request.Context(), ev))
}

// searchJSON is the JSON form of a search result.
type searchJSON struct {
	Query   string                `json:"query"`
	Message string                `json:"message,omitempty"`
	Records []types.ArticleRecord `json:"records"`
}

func (a *Agent) getSearch(c *gin.Context) {
	req := search.Request{
		Query:  c.Query("query"),
		Rerank: search.RerankPolicy(c.Query("rerank")),
	}
	for name, dst := range map[string]*int{"max_results": &req.MaxResults, "max_records": &req.MaxRecords} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
			return
		}
		*dst = n
	}

	start := time.Now()
	res, err := a.Searcher.Search(c.Request.Context(), req)
	if err != nil {
		metrics.RecordSearch(searchOutcome(err), 0, time.Since(start))
		switch {
		case errors.Is(err, search.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			a.logger().Error("search failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	metrics.RecordSearch(resultOutcome(res), len(res.Records), time.Since(start))

	if strings.EqualFold(c.Query("format"), "json") {
		records := res.Records
		if records == nil {
			records = []types.ArticleRecord{}
		}
		c.JSON(http.StatusOK, searchJSON{Query: res.Query, Message: res.Message, Records: records})
		return
	}
	c.String(http.StatusOK, res.String())
}

func (a *Agent) getArticle(c *gin.Context) {
	pmcid := c.Param("pmcid")
	source := c.Query("source")

	start := time.Now()
	resp := a.Retriever.Retrieve(c.Request.Context(), pmcid, source)
	metrics.RecordArticle(string(resp.Status), time.Since(start))

	c.JSON(articleHTTPStatus(resp, pmcid, source), resp)
}

// articleHTTPStatus maps a response status to an HTTP code. Error responses
// caused by bad input are 400; the rest are upstream failures.
func articleHTTPStatus(resp types.ArticleResponse, pmcid, source string) int {
	switch resp.Status {
	case types.StatusSuccess, types.StatusLicensingRestriction:
		return http.StatusOK
	case types.StatusNotFound:
		return http.StatusNotFound
	}
	if !validate.PMCID(pmcid) || (source != "" && !validate.SourceURL(source)) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
