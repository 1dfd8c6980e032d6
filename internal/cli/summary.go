package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/law-makers/listings/internal/pipeline"
	"github.com/law-makers/listings/internal/ui"
)

// printSummary writes the human-readable run report
func printSummary(w io.Writer, s *pipeline.Summary, runErr error) {
	if s == nil {
		return
	}

	fmt.Fprintln(w)
	switch {
	case runErr != nil:
		stage := s.State
		var serr *pipeline.StageError
		if errors.As(runErr, &serr) {
			stage = serr.Stage
		}
		fmt.Fprintf(w, "%s run failed in %s stage: %v\n", ui.Mark(true, false), stage, errorCause(runErr))
	case s.Interrupted:
		fmt.Fprintf(w, "%s run stopped early, partial results saved\n", ui.Mark(false, true))
	default:
		fmt.Fprintf(w, "%s run complete\n", ui.Mark(false, false))
	}

	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim(fmt.Sprintf("%-12s", label)), value)
	}
	row("Run", s.RunID)
	row("Pages", humanize.Comma(int64(s.Pages)))
	row("Communities", humanize.Comma(int64(s.Communities)))
	row("Homes", humanize.Comma(int64(s.Homes)))
	row("Skipped", humanize.Comma(int64(len(s.Skipped))))
	row("Duration", s.Duration.Round(time.Millisecond).String())
	if runErr == nil {
		output := s.Output
		if info, err := os.Stat(s.Output); err == nil {
			output = fmt.Sprintf("%s (%s)", s.Output, humanize.Bytes(uint64(info.Size())))
		}
		row("Output", output)
	}

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.Bold("Skipped"))
		for _, sk := range s.Skipped {
			id := sk.ID
			if id == "" {
				id = sk.URL
			}
			fmt.Fprintf(w, "  %s %s\n", ui.Warn(fmt.Sprintf("%-9s", sk.Kind)), id)
			fmt.Fprintf(w, "            %s\n", ui.Dim(sk.Reason))
		}
	}
	fmt.Fprintln(w)
}

func errorCause(err error) error {
	var serr *pipeline.StageError
	if errors.As(err, &serr) {
		return serr.Err
	}
	return err
}

// printJSON writes the summary as indented JSON
func printJSON(w io.Writer, s *pipeline.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
