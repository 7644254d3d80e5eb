package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/desertthunder/spotify-tools/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/spotify-tools-tui.log"

// TUI launches the interactive terminal UI for picking and shuffling a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	session, err := r.connect(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	engine := r.engine(session, cmd.Bool("rollback-on-failure"))
	model := ui.NewModel(ctx, session, engine, cmd.Bool("public-playlist"), ui.WithRecorder(r.record))
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
