// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/listings/internal/app"
	"github.com/law-makers/listings/internal/config"
	"github.com/law-makers/listings/internal/pipeline"
	"github.com/law-makers/listings/internal/ui"
)

// shutdownTimeout bounds application cleanup after a command
const shutdownTimeout = 5 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "listings",
	Short: "Crawl builder community listings into a JSON document",
	Long: `Listings drives a headless browser through a home builder's community
index, extracts every community and its home plans, and merges them into a
single JSON document keyed by id.

Runs are resumable: records are upserted, so re-running refreshes what changed
and keeps everything else.`,
	Example: `  # Crawl every region discovered from the site root
  listings

  # Crawl one listing source, at most 5 pages
  listings --listing-url "https://www.tollbrothers.com/luxury-homes-for-sale/Arizona?page={page}" --max-pages 5

  # Watch the browser and keep rendered pages for debugging
  listings --headless=false --snapshot-dir snapshots`,
	Version:       "0.1.0",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCrawl,
}

// Execute runs the root command with ctx and returns the process exit code.
// The context carries the stop signal; a stopped run still persists its results.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var serr *pipeline.StageError
		if !errors.As(err, &serr) {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
		}
		return 1
	}
	return 0
}

func init() {
	// Initialize the application before running commands (skipped for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetApp(cmd)
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
		defer cancel()
		_ = a.Close(ctx)
		SetApp(cmd, nil)
	}
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for Listings")
	rootCmd.Flags().Bool("version", false, "Version for Listings")

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Set custom help function
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	return runPipeline(cmd, a, a.PipelineConfig())
}

// runPipeline executes one run with progress reporting and prints its summary
func runPipeline(cmd *cobra.Command, a *app.Application, cfg pipeline.Config) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	bar := newProgress(cmd.ErrOrStderr(), !quiet && !a.Config.JSONLog && isTerminal(os.Stderr))

	p := a.Pipeline(cfg, pipeline.WithObserver(bar.Observe))
	summary, err := p.Run(cmd.Context())
	bar.Finish()

	if a.Config.JSONLog {
		if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
			return perr
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary, err)
	}
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
