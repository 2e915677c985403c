package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claimlens/claimlens/internal/model"
)

var (
	cfgFile string
	verbose bool
	noCache bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimlens",
	Short: "ClaimLens - Evidence-based claim verification",
	Long: `ClaimLens verifies factual claims against live web evidence.

For each claim it retrieves evidence snippets from a search engine,
groups them into narratives by embedding similarity, scores each
narrative against the claim with a natural-language-inference model,
and aggregates the scores into a verdict: Likely True, Likely False,
or Unverifiable, with a confidence value and a plain-text explanation.

Verdicts describe how the retrieved evidence leans. They are not a
ruling on what is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for ClaimLens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("claimlens v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh retrieval)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.claimlens")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMLENS_*
	viper.SetEnvPrefix("CLAIMLENS")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the effective configuration: defaults, then the
// config file and CLAIMLENS_* environment variables. API keys come from
// the conventional env vars only, never from the file.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid config file, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}

	cfg.Search.APIKey = os.Getenv("SERPAPI_API_KEY")
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.NLI.APIKey = os.Getenv("HF_API_TOKEN")

	switch cfg.Explain.Provider {
	case "gemini", "google":
		cfg.Explain.APIKey = os.Getenv("GEMINI_API_KEY")
	case "openai":
		cfg.Explain.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Explain.BaseURL = baseURL
		}
	}

	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.Verbose = verbose

	return cfg
}
