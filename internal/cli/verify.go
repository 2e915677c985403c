package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
)

var (
	rounds         int
	topK           int
	searchProvider string
	explainer      string
	explainModel   string
	outputJSON     bool
	verifyTimeout  time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim against web evidence",
	Long: `Verify retrieves evidence for a claim, groups it into narratives,
scores each narrative with an NLI model, and prints the verdict.

Example:
  claimlens verify "the Great Wall of China is visible from space"
  claimlens verify "water boils at 100C" --rounds 3 --json
  claimlens verify "..." --explainer gemini --explain-model gemini-2.0-flash`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().IntVar(&rounds, "rounds", 0, "search rounds (0 = configured default)")
	verifyCmd.Flags().IntVar(&topK, "top-k", 0, "max snippets to retrieve (0 = configured default)")
	verifyCmd.Flags().StringVar(&searchProvider, "search", "", "search provider (serpapi, duckduckgo; default: auto)")
	verifyCmd.Flags().StringVar(&explainer, "explainer", "", "explanation provider (gemini, openai, ollama)")
	verifyCmd.Flags().StringVar(&explainModel, "explain-model", "", "explanation model name")
	verifyCmd.Flags().BoolVar(&outputJSON, "json", false, "print the full result as JSON")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg := verifyConfig()

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", claim)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", verifyTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	result, err := p.Verify(ctx, claim, rounds)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if outputJSON || cfg.Output.JSON {
		return printJSON(result)
	}
	printResult(result)
	return nil
}

// verifyConfig layers the verify flags on top of the base configuration
func verifyConfig() *model.Config {
	cfg := buildConfig()
	if topK > 0 {
		cfg.Search.TopK = topK
	}
	if searchProvider != "" {
		cfg.Search.Provider = searchProvider
	}
	if explainer != "" {
		cfg.Explain.Provider = explainer

		// Re-resolve the key for the chosen provider
		switch explainer {
		case "gemini", "google":
			cfg.Explain.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			cfg.Explain.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if explainModel != "" {
		cfg.Explain.Model = explainModel
	}
	return cfg
}

func printJSON(result *model.VerdictResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printResult(result *model.VerdictResult) {
	fmt.Printf("Claim:      %s\n", result.Claim)
	fmt.Printf("Verdict:    %s\n", result.Verdict)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Println()
	fmt.Println(result.Explanation)

	if len(result.Narratives) > 0 {
		fmt.Println()
		fmt.Printf("Narratives (%d):\n", len(result.Narratives))
		for i, n := range result.Narratives {
			fmt.Printf("  %d. %d snippets, score %+.3f (entail %.3f / contradict %.3f)\n",
				i+1, len(n.Cluster.Members), n.Score,
				n.Details.AvgEntailment, n.Details.AvgContradiction)
		}
	}

	if len(result.TopSnippets) > 0 {
		fmt.Println()
		fmt.Println("Evidence:")
		for _, s := range result.TopSnippets {
			fmt.Printf("  - %s\n    %s\n", strings.TrimSpace(s.Text), s.SourceURL)
		}
	}
}
