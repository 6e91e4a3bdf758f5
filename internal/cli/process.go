package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xoptymiz/xoptymiz/internal/pipeline"
)

var (
	processMaxEntities   int
	processMinImportance int
	processJSON          bool
)

var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Fetch a URL and ingest it into the knowledge graph",
	Long: `Process fetches a web page, extracts its readable text, annotates it
with typed entities and relationships, and stores the result.

Re-processing the same URL updates the existing page and bumps its
version instead of creating a duplicate.

Examples:
  xoptymiz process https://example.com/article
  xoptymiz process https://example.com/article --max-entities 10
  xoptymiz process https://example.com/article --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().IntVar(&processMaxEntities, "max-entities", 0, "cap on extracted entities")
	processCmd.Flags().IntVar(&processMinImportance, "min-importance", 0, "importance floor 1-10")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the full result as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx := context.Background()

	res, err := getPipeline().ProcessURL(ctx, url, pipelineOptions(processMaxEntities, processMinImportance))
	if err != nil {
		return fmt.Errorf("process %s: %w", url, err)
	}

	if processJSON {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

// printResult renders a short human summary of one processed page.
func printResult(res *pipeline.Result) {
	fmt.Printf("Processed %s (version %d)\n", res.Page.URL, res.Page.Version)
	fmt.Printf("  Title:         %s\n", res.Page.Title)
	fmt.Printf("  Domain:        %s\n", res.Page.Domain)
	fmt.Printf("  Words:         %d\n", res.Page.WordCount)
	fmt.Printf("  Readability:   %.1f\n", res.Page.Readability)
	if res.Page.Language != "" {
		fmt.Printf("  Language:      %s\n", res.Page.Language)
	}
	fmt.Printf("  Entities:      %d\n", len(res.Entities))
	fmt.Printf("  Relationships: %d\n", len(res.Relationships))

	if verbose {
		for _, e := range res.Entities {
			fmt.Printf("    %s (%s, importance %d)\n", e.Text, e.Type, e.Importance)
		}
		for _, r := range res.Relationships {
			fmt.Printf("    %s -[%s]-> %s (strength %.2f)\n", r.FromText, r.Type, r.ToText, r.Strength)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
