// Package cli provides the command-line interface for xoptymiz.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xoptymiz/xoptymiz/internal/annotate"
	"github.com/xoptymiz/xoptymiz/internal/config"
	"github.com/xoptymiz/xoptymiz/internal/extract"
	"github.com/xoptymiz/xoptymiz/internal/metrics"
	"github.com/xoptymiz/xoptymiz/internal/pipeline"
	"github.com/xoptymiz/xoptymiz/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and store, wired in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	graphStore *store.Store
	collector  = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xoptymiz",
	Short: "Turn web content into a queryable knowledge graph",
	Long: `XoptYmiZ ingests web pages and raw text, extracts typed entities and
their relationships, and persists everything into a SurrealDB graph.

The graph can then be queried for analytics, rendered for visualization,
or exported as an LLMs.txt document for language-model tools.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		ctx := context.Background()
		var err error
		graphStore, err = store.New(ctx, store.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := graphStore.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if graphStore != nil {
			if err := graphStore.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// getPipeline builds the ingestion pipeline. A failed LLM setup degrades to
// local extraction instead of aborting the command.
func getPipeline() *pipeline.Pipeline {
	var strategy annotate.Strategy
	if llm, err := annotate.NewLLMStrategy(cfg); err != nil {
		logger.Warn("LLM unavailable, using local extraction only", "error", err)
	} else {
		strategy = llm
	}

	extractor := extract.New(cfg.FetchTimeout, logger)
	annotator := annotate.New(strategy, collector, logger)
	return pipeline.New(extractor, annotator, graphStore, collector, logger)
}

// pipelineOptions maps the config tuning knobs onto per-run options.
func pipelineOptions(maxEntities, minImportance int) pipeline.Options {
	opts := pipeline.Options{
		MaxEntities:   cfg.MaxEntities,
		MinImportance: cfg.MinImportance,
		Timeout:       cfg.IngestTimeout,
	}
	if maxEntities > 0 {
		opts.MaxEntities = maxEntities
	}
	if minImportance > 0 {
		opts.MinImportance = minImportance
	}
	return opts
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(graphCmd)
}
