// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package objectstore reads PMC Open Access article XML from the public S3
// bucket or from a local mirror with the same key layout.
package objectstore

import (
	"context"
	"errors"
	"path"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// Store is a read-only key/value object store.
type Store interface {
	// Head checks that key exists. It returns ErrNotFound (possibly wrapped)
	// when it does not.
	Head(ctx context.Context, key string) error

	// Get returns the full object body.
	Get(ctx context.Context, key string) ([]byte, error)
}

// ArticleKey returns the object key of a PMC article under prefix,
// e.g. "oa_comm/xml/all/PMC6033041.xml".
func ArticleKey(prefix, pmcid string) string {
	return path.Join(prefix, pmcid+".xml")
}

// New returns a DirStore when cfg.Dir is set and an S3Store otherwise.
func New(cfg types.StoreConfig) (Store, error) {
	if cfg.Dir != "" {
		return NewDirStore(cfg.Dir), nil
	}
	return NewS3Store(cfg)
}
