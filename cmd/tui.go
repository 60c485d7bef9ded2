package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/shared"
	"github.com/desertthunder/curate/internal/ui"
)

// TUI launches the interactive terminal UI for the label queue.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer := shared.NewFileLogger(r.config.Log.File)
	defer closer.Close()
	shared.SetLogLevel(fileLogger, r.config.Log.ParseLevel())
	r.SetLogger(fileLogger)

	if err := r.open(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Opts{
		Processor: r.processor,
		Catalog:   r.catalog,
		Labels:    r.labels,
		Cache:     r.cache,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
