// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

func TestArticleKey(t *testing.T) {
	assert.Equal(t, "oa_comm/xml/all/PMC6033041.xml", ArticleKey("oa_comm/xml/all", "PMC6033041"))
	assert.Equal(t, "oa_comm/xml/all/PMC1.xml", ArticleKey("oa_comm/xml/all/", "PMC1"))
}

// fakeS3 serves path-style bucket requests from an in-memory map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	status  int
	paths   []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	body, ok := f.objects[r.URL.Path]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		}
		return
	}
	if r.Method != http.MethodHead {
		w.Write([]byte(body))
	}
}

func newTestS3Store(t *testing.T, f *fakeS3) *S3Store {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)

	store, err := NewS3Store(types.StoreConfig{
		Bucket:   "pmc-oa-opendata",
		Region:   "us-east-1",
		Endpoint: ts.URL,
	})
	require.NoError(t, err)
	return store
}

func TestS3StoreHeadAndGet(t *testing.T) {
	f := &fakeS3{objects: map[string]string{
		"/pmc-oa-opendata/oa_comm/xml/all/PMC1.xml": "<article/>",
	}}
	store := newTestS3Store(t, f)
	ctx := context.Background()

	require.NoError(t, store.Head(ctx, "oa_comm/xml/all/PMC1.xml"))

	data, err := store.Get(ctx, "oa_comm/xml/all/PMC1.xml")
	require.NoError(t, err)
	assert.Equal(t, "<article/>", string(data))

	assert.Equal(t, []string{
		"HEAD /pmc-oa-opendata/oa_comm/xml/all/PMC1.xml",
		"GET /pmc-oa-opendata/oa_comm/xml/all/PMC1.xml",
	}, f.paths)
}

func TestS3StoreNotFound(t *testing.T) {
	store := newTestS3Store(t, &fakeS3{objects: map[string]string{}})
	ctx := context.Background()

	assert.ErrorIs(t, store.Head(ctx, "oa_comm/xml/all/PMC0.xml"), ErrNotFound)

	_, err := store.Get(ctx, "oa_comm/xml/all/PMC0.xml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreAccessDenied(t *testing.T) {
	store := newTestS3Store(t, &fakeS3{status: http.StatusForbidden})

	err := store.Head(context.Background(), "oa_comm/xml/all/PMC1.xml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(types.StoreConfig{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestDirStore(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "oa_comm", "xml", "all")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PMC7.xml"), []byte("<article/>"), 0o644))

	store := NewDirStore(root)
	ctx := context.Background()

	require.NoError(t, store.Head(ctx, "oa_comm/xml/all/PMC7.xml"))
	data, err := store.Get(ctx, "oa_comm/xml/all/PMC7.xml")
	require.NoError(t, err)
	assert.Equal(t, "<article/>", string(data))

	assert.ErrorIs(t, store.Head(ctx, "oa_comm/xml/all/PMC8.xml"), ErrNotFound)
	_, err = store.Get(ctx, "oa_comm/xml/all/PMC8.xml")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Head(ctx, "oa_comm/xml/all"), ErrNotFound)
}

func TestDirStoreRejectsEscapingKeys(t *testing.T) {
	store := NewDirStore(t.TempDir())
	for _, key := range []string{"../secret.xml", "/etc/passwd", "a/../../b"} {
		err := store.Head(context.Background(), key)
		require.Error(t, err, key)
		assert.NotErrorIs(t, err, ErrNotFound, key)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(types.StoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DirStore{}, s)

	s, err = New(types.StoreConfig{Bucket: "b", Region: "us-east-1"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)
}
