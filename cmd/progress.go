package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/desertthunder/curate/internal/tasks"
)

const barSteps = 1000

// progressReporter turns run events into a progress bar, or into log lines when the bar is off.
type progressReporter struct {
	bar    *progressbar.ProgressBar
	logger *log.Logger
	errors []string
}

func newProgressReporter(w io.Writer, logger *log.Logger, description string, enabled bool) *progressReporter {
	p := &progressReporter{logger: logger}
	if enabled {
		p.bar = progressbar.NewOptions(barSteps,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return p
}

func (p *progressReporter) Notify(e tasks.Event) {
	switch e.Kind {
	case tasks.BuildProgress:
		if p.bar == nil {
			p.logger.Info(e.Message())
			return
		}
		if e.Data != nil && e.Data.Overall != nil {
			p.bar.Set(int(e.Data.Overall.Ratio() * barSteps))
		}
		p.bar.Describe(e.Message())
	case tasks.BuildPaused:
		if p.bar == nil {
			p.logger.Warn(e.Message())
			return
		}
		p.bar.Describe(e.Message())
	case tasks.BuildError:
		p.errors = append(p.errors, e.Message())
		if p.bar == nil {
			p.logger.Error(e.Message())
		}
	case tasks.BuildComplete:
		if p.bar != nil {
			p.bar.Finish()
		}
	case tasks.BuildCancelled:
		if p.bar != nil {
			p.bar.Exit()
		}
	}
}

// done finishes the bar after a run that ended without a terminal event.
func (p *progressReporter) done() {
	if p.bar != nil && !p.bar.IsFinished() {
		p.bar.Exit()
	}
}
