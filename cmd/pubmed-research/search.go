package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-research/internal/search"
	"github.com/pdiddy/pubmed-research/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search PubMed for free full-text articles",
	Long: `Search queries PubMed through the NCBI E-utilities, restricted to articles
with free full text, and prints the matching records. With --rerank
referenced_by the records are reordered by how often the other results
mention them.

A saved query file (--save) can be printed again later with --load without
contacting PubMed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "number of PMIDs requested from esearch (default 100)")
	searchCmd.Flags().Int("max-records", 0, "keep only the first N PMIDs before fetching details")
	searchCmd.Flags().String("rerank", string(search.RerankReferencedBy), "reranking strategy")
	searchCmd.Flags().Bool("json", false, "output records as JSON")
	searchCmd.Flags().Bool("csl", false, "output records as CSL-YAML")
	searchCmd.Flags().String("save", "", "write the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "print results from a saved YAML query file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	asCSL, _ := cmd.Flags().GetBool("csl")
	if asJSON && asCSL {
		return fmt.Errorf("--json and --csl are mutually exclusive")
	}
	out := cmd.OutOrStdout()

	if load, _ := cmd.Flags().GetString("load"); load != "" {
		qf, err := search.ReadQueryFile(load)
		if err != nil {
			return err
		}
		return printSearch(out, qf.Result(), asJSON, asCSL)
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	req := search.Request{Query: strings.Join(args, " ")}
	req.MaxResults, _ = cmd.Flags().GetInt("max-results")
	req.MaxRecords, _ = cmd.Flags().GetInt("max-records")
	rerank, _ := cmd.Flags().GetString("rerank")
	req.Rerank = search.RerankPolicy(rerank)

	res, err := newSearchClient().Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := search.WriteQueryFile(save, req, res); err != nil {
			return fmt.Errorf("saving query file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d record(s) to %s\n", len(res.Records), save)
	}
	return printSearch(out, res, asJSON, asCSL)
}

func printSearch(w io.Writer, res search.Result, asJSON, asCSL bool) error {
	switch {
	case asCSL:
		return search.FormatCSL(res.Records, w)
	case asJSON:
		records := res.Records
		if records == nil {
			records = []types.ArticleRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	default:
		_, err := fmt.Fprintln(w, res.String())
		return err
	}
}
