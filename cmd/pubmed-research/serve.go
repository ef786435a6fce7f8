package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-research/internal/agentapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and article retrieval over HTTP",
	Long: `Serve starts an HTTP server with these endpoints:

  POST /v1/actions          agent action-group events (/search_pubmed, /read_pubmed)
  GET  /v1/search           ?query=&max_results=&max_records=&rerank=&format=json
  GET  /v1/articles/:pmcid  ?source=
  GET  /healthz
  GET  /metrics             Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := newRetriever()
	if err != nil {
		return err
	}
	agent := &agentapi.Agent{
		Searcher:  newSearchClient(),
		Retriever: r,
		Log:       logger.Named("agentapi"),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("summarizer", string(cfg.Summarizer.Backend)),
	)
	return agentapi.Serve(ctx, cfg.Server.Addr, agentapi.NewRouter(agent, cfg.Server), logger)
}
