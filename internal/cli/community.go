package cli

import (
	"fmt"

	urlutil "github.com/law-makers/listings/internal/utils/url"
	"github.com/spf13/cobra"
)

// communityCmd extracts specific communities without crawling the index
var communityCmd = &cobra.Command{
	Use:   "community <url> [url...]",
	Short: "Extract specific communities and their homes",
	Long: `Loads each community page directly, extracts it and its home plans, and
merges them into the output document. The listing index is not crawled.`,
	Example: `  # Refresh a single community
  listings community https://www.tollbrothers.com/luxury-homes-for-sale/Arizona/Sterling-Grove

  # Community record only, no home plans
  listings community https://www.tollbrothers.com/luxury-homes-for-sale/Arizona/Sterling-Grove --skip-homes`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCommunity,
}

func init() {
	rootCmd.AddCommand(communityCmd)
}

func runCommunity(cmd *cobra.Command, args []string) error {
	for _, u := range args {
		if err := urlutil.ValidateURL(u); err != nil {
			return fmt.Errorf("%s: %w", u, err)
		}
		if urlutil.Slug(u) == "" {
			return fmt.Errorf("%s: no community id in path", u)
		}
	}

	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	return runPipeline(cmd, a, a.PipelineConfig(args...))
}
