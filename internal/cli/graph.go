package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	graphMaxNodes      int
	graphMinImportance int
	graphJSON          bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the entity graph prepared for visualization",
	Long: `Graph prints the most important entities and the relationships between
them, the same node/edge set the HTTP visualization endpoint serves.

Examples:
  xoptymiz graph
  xoptymiz graph --min-importance 7 --max-nodes 20
  xoptymiz graph --json`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().IntVar(&graphMaxNodes, "max-nodes", 0, "cap on graph nodes")
	graphCmd.Flags().IntVar(&graphMinImportance, "min-importance", 0, "importance floor for nodes")
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "print as JSON")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	g, err := graphStore.Visualization(ctx, graphMaxNodes, graphMinImportance)
	if err != nil {
		return fmt.Errorf("visualization: %w", err)
	}

	if graphJSON {
		return printJSON(g)
	}

	if len(g.Nodes) == 0 {
		fmt.Println("The graph is empty. Ingest some content first.")
		return nil
	}

	fmt.Printf("Nodes (%d)\n", len(g.Nodes))
	for _, n := range g.Nodes {
		fmt.Printf("  %s (%s, importance %d)\n", n.Text, n.Type, n.Importance)
	}

	fmt.Printf("\nEdges (%d)\n", len(g.Edges))
	nodeText := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeText[n.ID] = n.Text
	}
	for _, e := range g.Edges {
		fmt.Printf("  %s -[%s]-> %s (strength %.2f)\n",
			nodeText[e.FromID], e.Type, nodeText[e.ToID], e.Strength)
	}
	return nil
}
