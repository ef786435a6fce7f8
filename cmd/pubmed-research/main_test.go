package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(viper.New())
	require.NoError(t, err)
	if diff := cmp.Diff(types.DefaultConfig(), c); diff != "" {
		t.Errorf("loadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubmed-research.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  dir: /srv/pmc
  timeout: 5s
summarizer:
  backend: none
retrieval:
  truncate_length: 2000
concurrency: 8
`), 0o644))
	t.Setenv("PUBMED_RESEARCH_SEARCH_EMAIL", "dev@example.org")

	v := viper.New()
	v.SetConfigFile(path)
	bindEnv(v)
	require.NoError(t, v.ReadInConfig())

	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/pmc", c.Store.Dir)
	assert.Equal(t, 5*time.Second, c.Store.Timeout)
	assert.Equal(t, types.SummarizerNone, c.Summarizer.Backend)
	assert.Equal(t, 2000, c.Retrieval.TruncateLength)
	assert.Equal(t, 100000, c.Retrieval.ContentCharacterLimit)
	assert.Equal(t, 8, c.Concurrency)
	assert.Equal(t, "dev@example.org", c.Search.Email)
	assert.Equal(t, "pmc-oa-opendata", c.Store.Bucket)
}

type countingRetriever struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
}

func (r *countingRetriever) Retrieve(_ context.Context, pmcid, source string) types.ArticleResponse {
	n := atomic.AddInt32(&r.inFlight, 1)
	r.mu.Lock()
	if n > r.peak {
		r.peak = n
	}
	r.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&r.inFlight, -1)
	return types.NewNotFound(pmcid, "k/"+pmcid, source, "missing "+pmcid)
}

func TestReadBatchPreservesOrderAndLimit(t *testing.T) {
	r := &countingRetriever{}
	ids := []string{"PMC1", "PMC2", "PMC3", "PMC4", "PMC5", "PMC6"}

	got, err := readBatch(context.Background(), r, ids, "https://example.org", 2)
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, got[i].PMCID)
		assert.Equal(t, "https://example.org", got[i].Source)
	}
	assert.LessOrEqual(t, r.peak, int32(2))
}

func TestReadBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := readBatch(ctx, &countingRetriever{}, []string{"PMC1"}, "", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteResponses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponses(&buf, []types.ArticleResponse{
		types.NewFailure("invalid", "", "", "bad id"),
	}))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "error", decoded[0]["status"])
}

func TestPrintSearch(t *testing.T) {
	res := search.Result{
		Query: "crispr",
		Records: []types.ArticleRecord{{
			PMID: "1", Title: "T", Abstract: "A", Authors: []string{"Jane Doe"},
			Journal: "J", PublicationYear: "2020", URL: types.PubMedURL("1"),
		}},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearch(&buf, res, false, false))
		assert.Equal(t, res.String()+"\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearch(&buf, res, true, false))
		var records []types.ArticleRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
		if diff := cmp.Diff(res.Records, records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("json empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearch(&buf, search.Result{Query: "q"}, true, false))
		assert.JSONEq(t, `[]`, buf.String())
	})

	t.Run("csl", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearch(&buf, res, false, true))
		assert.Contains(t, buf.String(), "pmid:1")
		assert.Contains(t, buf.String(), "container-title: J")
	})
}
