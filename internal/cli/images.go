package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/listings/internal/config"
	"github.com/law-makers/listings/internal/downloader"
	"github.com/law-makers/listings/internal/ui"
)

// imagesCmd downloads the images referenced by the stored document
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Download the images of every stored community and home",
	Long: `Reads the output document and downloads each record's images into
per-record directories. Files already on disk are kept, so the command only
fetches what is new since the last run.`,
	Example: `  # Download into output/images
  listings images

  # Another directory, more workers
  listings images --images-dir /data/images --concurrency 8`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runImages,
}

func init() {
	config.RegisterImageFlags(imagesCmd)
	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	if err := a.Store.Load(); err != nil {
		return err
	}

	jobs := downloader.Jobs(a.Store.Document(), a.Config.ImagesDir)
	out := cmd.OutOrStdout()
	if len(jobs) == 0 {
		fmt.Fprintf(out, "%s no images referenced by %s\n", ui.Mark(false, true), a.Config.OutputPath)
		return nil
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	var bar *progressbar.ProgressBar
	if !quiet && isTerminal(os.Stderr) {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("images"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := a.Downloads().Run(cmd.Context(), jobs, func(*downloader.Result) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}

	failed := printDownloads(out, results)
	if failed == len(results) {
		return fmt.Errorf("all %d downloads failed", failed)
	}
	return nil
}

// printDownloads reports the outcome and returns the number of failures
func printDownloads(w io.Writer, results []*downloader.Result) int {
	var fetched, existing, failed int
	var bytes uint64
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Existed:
			existing++
		default:
			fetched++
			bytes += uint64(r.Size)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s images downloaded (%s), %s already present, %s failed\n",
		ui.Mark(false, failed > 0), humanize.Comma(int64(fetched)), humanize.Bytes(bytes),
		humanize.Comma(int64(existing)), humanize.Comma(int64(failed)))

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "  %s\n            %s\n", ui.Warn(r.URL), ui.Dim(r.Err.Error()))
		}
	}
	fmt.Fprintln(w)
	return failed
}
