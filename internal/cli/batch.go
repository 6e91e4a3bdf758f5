package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xoptymiz/xoptymiz/internal/pipeline"
)

var (
	batchConcurrency   int
	batchDelay         time.Duration
	batchMaxEntities   int
	batchMinImportance int
	batchJSON          bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <urls-file>",
	Short: "Process a list of URLs from a file",
	Long: `Batch reads URLs from a file (one per line, # starts a comment) and
processes them in bounded waves. Individual failures are reported at the
end and never abort the rest of the batch.

Examples:
  xoptymiz batch urls.txt
  xoptymiz batch urls.txt --concurrency 3
  xoptymiz batch urls.txt --json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "URLs in flight per wave")
	batchCmd.Flags().DurationVar(&batchDelay, "delay", 0, "pause between waves")
	batchCmd.Flags().IntVar(&batchMaxEntities, "max-entities", 0, "cap on extracted entities per page")
	batchCmd.Flags().IntVar(&batchMinImportance, "min-importance", 0, "importance floor 1-10")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the full result as JSON")
}

func runBatch(cmd *cobra.Command, args []string) error {
	urls, err := readURLFile(args[0])
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Println("No URLs found.")
		return nil
	}

	concurrency := cfg.BatchConcurrency
	if batchConcurrency > 0 {
		concurrency = batchConcurrency
	}
	delay := cfg.BatchDelay
	if batchDelay > 0 {
		delay = batchDelay
	}

	ctx := context.Background()
	p := getPipeline()
	opts := pipeline.BatchOptions{
		Options:     pipelineOptions(batchMaxEntities, batchMinImportance),
		Concurrency: concurrency,
		WaveDelay:   delay,
	}

	var res *pipeline.BatchResult
	if term.IsTerminal(int(os.Stdout.Fd())) && !batchJSON {
		res, err = RunBatchProgress(len(urls), func(progress chan<- pipeline.Progress) *pipeline.BatchResult {
			opts.Progress = progress
			return p.ProcessBatch(ctx, urls, opts)
		})
		if err != nil {
			return err
		}
	} else {
		res = p.ProcessBatch(ctx, urls, opts)
	}

	if batchJSON {
		return printJSON(res)
	}
	printBatchSummary(res)
	return nil
}

// readURLFile parses one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	return urls, nil
}

func printBatchSummary(res *pipeline.BatchResult) {
	fmt.Printf("\nBatch finished in %s: %d succeeded, %d failed\n",
		res.Duration.Round(time.Millisecond), res.Succeeded, res.Failed)
	for _, item := range res.Items {
		if item.Err != nil {
			fmt.Printf("  ✗ %s: %v\n", item.URL, item.Err)
		} else if verbose {
			fmt.Printf("  ✓ %s (%d entities)\n", item.URL, item.Result.Receipt.Entities)
		}
	}
}
