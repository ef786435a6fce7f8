// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article retrieves one PMC Open Access article by PMCID and turns it
// into a license-aware, size-bounded ArticleResponse.
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/markup"
	"github.com/pdiddy/pubmed-research/internal/objectstore"
	"github.com/pdiddy/pubmed-research/internal/summarize"
	"github.com/pdiddy/pubmed-research/internal/validate"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

// TruncationNotice is appended to content cut short after a failed summary.
const TruncationNotice = "... [Content truncated due to summarization error]"

// licenseMarkers are lowercase substrings whose presence anywhere in the raw
// document marks it as reusable for commercial purposes.
var licenseMarkers = []string{
	"cc0",
	"cc by",
	"creative commons attribution",
	"public domain",
}

const (
	defaultStoreTimeout      = 30 * time.Second
	defaultSummarizerTimeout = 60 * time.Second
)

// Options configures a Retriever. Zero values fall back to defaults.
type Options struct {
	Prefix            string
	StoreTimeout      time.Duration
	SummarizerTimeout time.Duration
	Retrieval         types.RetrievalConfig
}

// Retriever fetches articles from a Store. It keeps no per-call state and is
// safe for concurrent use.
type Retriever struct {
	store      objectstore.Store
	summarizer summarize.Summarizer
	log        *zap.Logger
	opts       Options
}

// New returns a Retriever. summarizer and log may be nil.
func New(store objectstore.Store, summarizer summarize.Summarizer, log *zap.Logger, opts Options) *Retriever {
	if summarizer == nil {
		summarizer = summarize.Disabled{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	def := types.DefaultConfig()
	if opts.Prefix == "" {
		opts.Prefix = def.Store.Prefix
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.SummarizerTimeout <= 0 {
		opts.SummarizerTimeout = defaultSummarizerTimeout
	}
	if opts.Retrieval.ContentCharacterLimit <= 0 {
		opts.Retrieval.ContentCharacterLimit = def.Retrieval.ContentCharacterLimit
	}
	if opts.Retrieval.MaxSummaryTokens <= 0 {
		opts.Retrieval.MaxSummaryTokens = def.Retrieval.MaxSummaryTokens
	}
	if opts.Retrieval.TruncateLength <= 0 {
		opts.Retrieval.TruncateLength = def.Retrieval.TruncateLength
	}
	return &Retriever{store: store, summarizer: summarizer, log: log, opts: opts}
}

// Retrieve returns exactly one response for pmcid. source is an optional
// citation URL; an empty string means none was supplied. Failures are
// reported through the response status, never as a Go error.
func (r *Retriever) Retrieve(ctx context.Context, pmcid, source string) types.ArticleResponse {
	log := r.log.With(zap.String("pmcid", pmcid))

	if !validate.PMCID(pmcid) {
		log.Warn("invalid pmcid")
		id := pmcid
		if id == "" {
			id = "invalid"
		}
		return types.NewFailure(id, "", source,
			fmt.Sprintf("Invalid PMCID format: '%s'. PMCID must start with 'PMC' followed by digits (e.g., 'PMC6033041').", pmcid))
	}
	pmcid = strings.TrimSpace(pmcid)

	if source != "" && !validate.SourceURL(source) {
		log.Warn("invalid source url", zap.String("source", source))
		return types.NewFailure(pmcid, "", source,
			fmt.Sprintf("Invalid source URL format: '%s'. Source must be a valid HTTP or HTTPS URL.", source))
	}

	key := objectstore.ArticleKey(r.opts.Prefix, pmcid)
	log = log.With(zap.String("key", key))

	if err := r.head(ctx, key); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			log.Info("article not found")
			return types.NewNotFound(pmcid, key, source,
				fmt.Sprintf("Article %s not found in PMC Open Access dataset", pmcid))
		}
		log.Error("store head failed", zap.Error(err))
		return types.NewFailure(pmcid, "", source, fmt.Sprintf("S3 access error: %v", err))
	}

	raw, err := r.get(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			log.Info("article disappeared between head and get")
			return types.NewNotFound(pmcid, key, source,
				fmt.Sprintf("Article %s not found in PMC Open Access dataset", pmcid))
		}
		log.Error("store get failed", zap.Error(err))
		return types.NewFailure(pmcid, "", source, fmt.Sprintf("S3 access error: Failed to download article: %v", err))
	}
	if !utf8.Valid(raw) {
		log.Error("article is not valid UTF-8")
		return types.NewFailure(pmcid, "", source, "S3 access error: Failed to decode article content: invalid UTF-8")
	}
	content := string(raw)
	log.Info("downloaded article", zap.Int("bytes", len(raw)))

	license := ClassifyLicense(content)
	log.Info("classified license", zap.String("license_type", string(license)))
	if license != types.LicenseCommercial {
		return types.NewLicensingRestriction(pmcid, key, source,
			fmt.Sprintf("Article %s has non-commercial license restrictions", pmcid))
	}

	text := r.process(ctx, log, content)
	return types.NewSuccess(pmcid, text, key, source,
		fmt.Sprintf("Successfully retrieved and processed article %s", pmcid))
}

func (r *Retriever) head(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()
	return r.store.Head(ctx, key)
}

func (r *Retriever) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()
	return r.store.Get(ctx, key)
}

// process extracts text and, when it exceeds the character limit, replaces
// it with a summary or a truncated prefix.
func (r *Retriever) process(ctx context.Context, log *zap.Logger, document string) string {
	text := markup.ExtractText(document)
	n := utf8.RuneCountInString(text)
	if n <= r.opts.Retrieval.ContentCharacterLimit {
		return text
	}

	log.Info("content exceeds limit, summarizing", zap.Int("chars", n))
	sctx, cancel := context.WithTimeout(ctx, r.opts.SummarizerTimeout)
	defer cancel()

	summary, err := r.summarizer.Summarize(sctx, text, r.opts.Retrieval.MaxSummaryTokens)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = summarize.ErrEmptySummary
	}
	if err != nil {
		log.Warn("summarization failed, truncating", zap.Error(err))
		return truncate(text, r.opts.Retrieval.TruncateLength) + TruncationNotice
	}
	return summary
}

// ClassifyLicense reports commercial when the document mentions any
// recognised permissive license marker, case-insensitively.
func ClassifyLicense(document string) types.LicenseType {
	lower := strings.ToLower(document)
	for _, m := range licenseMarkers {
		if strings.Contains(lower, m) {
			return types.LicenseCommercial
		}
	}
	return types.LicenseNonCommercial
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
