package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xoptymiz/xoptymiz/internal/extract"
)

var (
	textTitle         string
	textMaxEntities   int
	textMinImportance int
	textJSON          bool
)

var textCmd = &cobra.Command{
	Use:   "text [file]",
	Short: "Ingest raw text from a file or stdin",
	Long: `Text annotates plain text and stores it into the knowledge graph.
The content gets a synthetic identity, so submitting the same text twice
creates two separate pages.

Examples:
  xoptymiz text notes.txt --title "Meeting notes"
  cat article.txt | xoptymiz text
  xoptymiz text draft.txt --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runText,
}

func init() {
	textCmd.Flags().StringVarP(&textTitle, "title", "t", "", "title for the stored page")
	textCmd.Flags().IntVar(&textMaxEntities, "max-entities", 0, "cap on extracted entities")
	textCmd.Flags().IntVar(&textMinImportance, "min-importance", 0, "importance floor 1-10")
	textCmd.Flags().BoolVar(&textJSON, "json", false, "print the full result as JSON")
}

func runText(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("no input text")
	}

	ctx := context.Background()
	res, err := getPipeline().ProcessContent(ctx, extract.Input{
		Text:  string(data),
		Title: textTitle,
	}, pipelineOptions(textMaxEntities, textMinImportance))
	if err != nil {
		return fmt.Errorf("process text: %w", err)
	}

	if textJSON {
		return printJSON(res)
	}
	printResult(res)
	return nil
}
