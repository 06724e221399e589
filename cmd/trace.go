package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spreadlab/claimtrace/config"
	"github.com/spreadlab/claimtrace/internal/lineage"
	"github.com/spreadlab/claimtrace/internal/pipeline"
	"github.com/spreadlab/claimtrace/internal/quota"
	"github.com/spreadlab/claimtrace/provider"
	"github.com/spreadlab/claimtrace/tools/embedding"
	"github.com/spreadlab/claimtrace/tools/extract"
	"github.com/spreadlab/claimtrace/tools/web_search"
)

// traceCMD runs one lineage pipeline pass from the terminal, keeping all
// state in memory. Useful for trying a URL without a Redis instance.
func traceCMD() *cobra.Command {
	var cfgPath string
	var userID string
	var trace = &cobra.Command{
		Use:   "trace [url-or-text]",
		Short: "Run the lineage pipeline once and print the record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			llm, err := provider.NewProvider(provider.OpenAI, cfg.LLM)
			if err != nil {
				return err
			}
			searchKey := cfg.Search.SerperAPIKey
			if web_search.Provider(cfg.Search.Provider) == web_search.BraveProvider {
				searchKey = cfg.Search.BraveAPIKey
			}
			searcher, err := web_search.NewWebSearcher(
				web_search.Provider(cfg.Search.Provider), searchKey)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(pipeline.Runner{
				Router:           extract.NewDefaultRouter(cfg.Extract, nil),
				Provider:         llm,
				Embedder:         embedding.NewEmbedding(llm),
				Searcher:         searcher,
				Quota:            quota.NewMemoryStore(cfg.Quota.DailyLimit, cfg.Quota.ResetCron),
				Lineage:          lineage.NewMemoryStore(),
				MaxSearchResults: cfg.Search.MaxResults,
			})

			record, err := runner.Run(cmd.Context(), userID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			return nil
		},
	}
	trace.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	trace.Flags().StringVarP(&userID, "user", "u", "local", "user id charged for the run")

	return trace
}
