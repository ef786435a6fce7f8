package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pubmed-research/pkg/types"
)

var readCmd = &cobra.Command{
	Use:   "read [pmcids...]",
	Short: "Read full-text articles from the PMC Open Access dataset",
	Long: `Read fetches PMC Open Access articles by PMCID, checks their license, and
prints one JSON response per article in argument order. Articles licensed
for non-commercial use only are withheld. Text longer than the configured
character limit is summarized.

Articles are retrieved in parallel, bounded by the concurrency setting.`,
	RunE: runRead,
}

func init() {
	readCmd.Flags().String("source", "", "citation URL attached to every response")
	readCmd.Flags().Int("concurrency", 0, "parallel retrievals (default from config)")

	rootCmd.AddCommand(readCmd)
}

// articleRetriever is the subset of article.Retriever used by readBatch.
type articleRetriever interface {
	Retrieve(ctx context.Context, pmcid, source string) types.ArticleResponse
}

func runRead(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PMCIDs (e.g. PMC6033041)")
	}
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("concurrency")
	if limit <= 0 {
		limit = cfg.Concurrency
	}

	r, err := newRetriever()
	if err != nil {
		return err
	}

	responses, err := readBatch(cmd.Context(), r, args, source, limit)
	if err != nil {
		return err
	}
	if err := writeResponses(cmd.OutOrStdout(), responses); err != nil {
		return err
	}

	failed := 0
	for _, resp := range responses {
		if resp.Status == types.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d article(s) failed retrieval", failed)
	}
	return nil
}

// readBatch retrieves every pmcid with at most limit calls in flight. The
// result has one response per input, in input order.
func readBatch(ctx context.Context, r articleRetriever, pmcids []string, source string, limit int) ([]types.ArticleResponse, error) {
	responses := make([]types.ArticleResponse, len(pmcids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range pmcids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			responses[i] = r.Retrieve(ctx, id, source)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func writeResponses(w io.Writer, responses []types.ArticleResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(responses)
}
