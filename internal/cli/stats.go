package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsTop  int
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge graph statistics",
	Long: `Stats prints graph-wide counts, the entity type distribution and the
most important entities.

Examples:
  xoptymiz stats
  xoptymiz stats --top 10
  xoptymiz stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 5, "number of top entities to show")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	overview, err := graphStore.Overview(ctx)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	types, err := graphStore.TypeHistogram(ctx)
	if err != nil {
		return fmt.Errorf("type histogram: %w", err)
	}
	top, err := graphStore.TopEntities(ctx, statsTop)
	if err != nil {
		return fmt.Errorf("top entities: %w", err)
	}

	if statsJSON {
		return printJSON(map[string]any{
			"overview":     overview,
			"types":        types,
			"top_entities": top,
		})
	}

	fmt.Println("Knowledge graph")
	fmt.Printf("  Pages:         %d\n", overview.Pages)
	fmt.Printf("  Entities:      %d\n", overview.Entities)
	fmt.Printf("  Relationships: %d\n", overview.Relationships)
	fmt.Printf("  Domains:       %d\n", overview.Domains)

	if len(types) > 0 {
		fmt.Println("\nEntity types")
		for _, t := range types {
			fmt.Printf("  %-14s %d\n", t.Type, t.Count)
		}
	}

	if len(top) > 0 {
		fmt.Println("\nTop entities")
		for _, e := range top {
			fmt.Printf("  %s (%s, importance %d, %d mentions)\n",
				e.Text, e.Type, e.Importance, e.MentionCount)
		}
	}
	return nil
}
