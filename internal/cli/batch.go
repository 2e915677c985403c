package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchRounds  int
	batchOutput  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies claims concurrently:
- Read claims from input file (one per line; blank lines and # comments skipped)
- Verify claims in parallel with configurable worker count
- Print results in input order

Example:
  claimlens batch claims.txt
  claimlens batch claims.txt --concurrency 5 --rounds 3
  claimlens batch claims.txt --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = configured default)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().IntVar(&batchRounds, "rounds", 0, "search rounds per claim (0 = configured default)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results as JSON to this file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := buildConfig()
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return fmt.Errorf("read claims: %w", err)
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", file)
	}

	fmt.Fprintf(os.Stderr, "Verifying %d claims with %d workers\n\n", len(claims), workers)

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, workers)
	results := processor.ProcessClaims(ctx, claims, batchRounds)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Printf("✗ %s: %v\n", result.Claim, result.Error)
			continue
		}
		successCount++
		fmt.Printf("✓ %s\n  %s (%.2f)\n", result.Claim, result.Result.Verdict, result.Result.Confidence)
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d verified, %d failed\n", successCount, failureCount)

	if batchOutput != "" {
		if err := writeBatchOutput(batchOutput, results); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote results: %s\n", batchOutput)
	}

	return nil
}

// batchRecord is one line of the JSON output file
type batchRecord struct {
	Claim      string  `json:"claim"`
	Verdict    string  `json:"verdict,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func writeBatchOutput(path string, results []*worker.VerifyResult) (err error) {
	records := make([]batchRecord, len(results))
	for i, r := range results {
		records[i] = batchRecord{Claim: r.Claim}
		if r.Error != nil {
			records[i].Error = r.Error.Error()
			continue
		}
		records[i].Verdict = string(r.Result.Verdict)
		records[i].Confidence = r.Result.Confidence
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
