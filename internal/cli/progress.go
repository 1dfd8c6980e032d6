package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/law-makers/listings/internal/pipeline"
	"github.com/law-makers/listings/pkg/models"
	"github.com/schollz/progressbar/v3"
)

// progress renders pipeline events as a spinner on stderr
type progress struct {
	bar         *progressbar.ProgressBar
	state       pipeline.State
	communities int
	homes       int
	skipped     int
}

// newProgress returns a reporter; a disabled one only counts
func newProgress(w io.Writer, enabled bool) *progress {
	p := &progress{}
	if enabled {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("starting"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p
}

// Observe is a pipeline observer
func (p *progress) Observe(ev pipeline.Event) {
	if ev.Kind == "" {
		p.state = ev.State
		p.describe()
		return
	}

	switch {
	case !ev.OK:
		p.skipped++
	case ev.Kind == models.KindCommunity:
		p.communities++
	case ev.Kind == models.KindHome:
		p.homes++
	}
	p.describe()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progress) describe() {
	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("%-10s %d communities, %d homes, %d skipped",
		p.state, p.communities, p.homes, p.skipped))
}

// Finish clears the spinner
func (p *progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
