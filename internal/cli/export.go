package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xoptymiz/xoptymiz/internal/store"
)

var (
	exportOutput     string
	exportMaxPages   int
	exportSort       string
	exportNoMetadata bool
)

var exportCmd = &cobra.Command{
	Use:   "export <domain>",
	Short: "Export a domain's knowledge as an LLMs.txt document",
	Long: `Export renders everything ingested for a domain into a single
Markdown document suitable for language-model tools.

A domain with no ingested pages yields a placeholder document rather
than an error.

Examples:
  xoptymiz export example.com
  xoptymiz export example.com -o llms.txt
  xoptymiz export example.com --sort date --max-pages 20`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().IntVar(&exportMaxPages, "max-pages", 0, "cap on exported pages")
	exportCmd.Flags().StringVar(&exportSort, "sort", "", "page order: importance, entities or date")
	exportCmd.Flags().BoolVar(&exportNoMetadata, "no-metadata", false, "omit generation metadata")
}

func runExport(cmd *cobra.Command, args []string) error {
	domain := args[0]
	ctx := context.Background()

	doc, err := graphStore.Export(ctx, domain, store.ExportOptions{
		MaxPages:        exportMaxPages,
		IncludeMetadata: !exportNoMetadata,
		SortBy:          exportSort,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", domain, err)
	}

	if exportOutput == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(doc), 0644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	fmt.Printf("Exported %s to %s\n", domain, exportOutput)
	return nil
}
