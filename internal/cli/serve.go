package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification web server",
	Long: `Serve starts an HTTP server with a minimal web form and a JSON API.

Endpoints:
  GET  /            HTML form
  POST /verify      form submission
  POST /api/verify  JSON API: {"claim": "...", "rounds": 2}
  GET  /healthz     health check

Example:
  claimlens serve
  claimlens serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8501)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := buildConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	fmt.Fprintf(os.Stderr, "ClaimLens listening on %s\n", cfg.Server.Addr)

	srv := server.New(p, cfg.Server.Addr, cfg.Output.Verbose)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
