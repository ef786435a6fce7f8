// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-research CLI.
// Subcommands search PubMed, read PMC Open Access articles, and serve both
// operations over HTTP for agent action groups.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/article"
	"github.com/pdiddy/pubmed-research/internal/logging"
	"github.com/pdiddy/pubmed-research/internal/objectstore"
	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/internal/secrets"
	"github.com/pdiddy/pubmed-research/internal/summarize"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are populated by the root PersistentPreRunE.
var (
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the pubmed-research CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-research",
	Short: "Search PubMed and read PMC Open Access articles",
	Long: `pubmed-research searches PubMed through the NCBI E-utilities and reads
full-text articles from the PMC Open Access dataset. Articles whose license
forbids commercial use are withheld. Long articles are summarized by a
language model before they are returned.

The serve subcommand exposes the same operations over HTTP, including the
action-group event format used by Amazon Bedrock agents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		secrets.Apply(s, &c)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c

		l, err := logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pubmed-research.yaml or ~/.config/pubmed-research/pubmed-research.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("store-dir", "", "read articles from a local mirror instead of S3")
	pf.String("summarizer", "", "summarizer backend: bedrock, claude, none")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("store.dir", pf.Lookup("store-dir"))
	_ = viper.BindPFlag("summarizer.backend", pf.Lookup("summarizer"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-research"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindEnv maps nested keys to PUBMED_RESEARCH_* variables, e.g. store.dir
// to PUBMED_RESEARCH_STORE_DIR.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PUBMED_RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig overlays v onto DefaultConfig. Every key gets a default so that
// environment variables resolve for keys absent from the config file.
func loadConfig(v *viper.Viper) (types.Config, error) {
	def := types.DefaultConfig()
	defaults := map[string]any{
		"search.user_agent":                 def.Search.UserAgent,
		"search.search_timeout":             def.Search.SearchTimeout,
		"search.fetch_timeout":              def.Search.FetchTimeout,
		"search.api_key":                    def.Search.APIKey,
		"search.email":                      def.Search.Email,
		"search.tool":                       def.Search.Tool,
		"store.bucket":                      def.Store.Bucket,
		"store.region":                      def.Store.Region,
		"store.prefix":                      def.Store.Prefix,
		"store.endpoint":                    def.Store.Endpoint,
		"store.dir":                         def.Store.Dir,
		"store.timeout":                     def.Store.Timeout,
		"summarizer.backend":                string(def.Summarizer.Backend),
		"summarizer.model":                  def.Summarizer.Model,
		"summarizer.region":                 def.Summarizer.Region,
		"summarizer.api_key":                def.Summarizer.APIKey,
		"summarizer.timeout":                def.Summarizer.Timeout,
		"retrieval.content_character_limit": def.Retrieval.ContentCharacterLimit,
		"retrieval.max_summary_tokens":      def.Retrieval.MaxSummaryTokens,
		"retrieval.truncate_length":         def.Retrieval.TruncateLength,
		"server.addr":                       def.Server.Addr,
		"server.release_mode":               def.Server.ReleaseMode,
		"server.rate_limit":                 def.Server.RateLimit,
		"server.rate_burst":                 def.Server.RateBurst,
		"log.level":                         def.Log.Level,
		"log.development":                   def.Log.Development,
		"concurrency":                       def.Concurrency,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	c := def
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

func newSearchClient() *search.Client {
	return search.NewClient(&http.Client{}, cfg.Search, logger.Named("search"))
}

func newRetriever() (*article.Retriever, error) {
	store, err := objectstore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening article store: %w", err)
	}
	summarizer, err := summarize.New(cfg.Summarizer)
	if err != nil {
		return nil, fmt.Errorf("configuring summarizer: %w", err)
	}
	return article.New(store, summarizer, logger.Named("article"), article.Options{
		Prefix:            cfg.Store.Prefix,
		StoreTimeout:      cfg.Store.Timeout,
		SummarizerTimeout: cfg.Summarizer.Timeout,
		Retrieval:         cfg.Retrieval,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
