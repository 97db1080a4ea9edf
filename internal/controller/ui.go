// Package controller provides output adapters for displaying mutation stress
// results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "jolt.dev/pkg/jolt/internal/model"
)

// DisplayOptions are the spectator-facing modes of a run.
type DisplayOptions struct {
	// Quiet suppresses per-file lines; only the final summary prints.
	Quiet bool

	// Verbose prints every variant result as it completes.
	Verbose bool

	// OnlyFailures limits per-file lines to failing files.
	OnlyFailures bool

	// ShowResults prints per-variant mutator names and outcomes.
	ShowResults bool
}

// UI is the display surface the driver reports through. Implementations can
// use different output methods (plain text, live TUI).
type UI interface {
	// Start initializes the UI.
	Start(ctx context.Context) error

	// Close finalizes the UI and waits for it to drain.
	Close(ctx context.Context)

	// FileStarted announces that a program entered the mutation loop.
	FileStarted(name string, variants int)

	// VariantTested reports one variant outcome.
	VariantTested(file string, v m.VariantResult)

	// FileFinished reports a program's final stats.
	FileFinished(stats m.FileStats)

	// InputError reports an infrastructure error for one input.
	InputError(path m.Path, err error)

	// RunFinished renders the aggregate summary.
	RunFinished(stats m.RunStats)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// NewUI picks the display surface: the live TUI on interactive terminals,
// the plain printer everywhere else and under modes that stream text.
func NewUI(cmd *cobra.Command, tty bool, opts DisplayOptions) UI {
	if tty && !opts.Quiet && !opts.ShowResults && !opts.Verbose {
		return NewTUI(cmd.OutOrStdout(), opts)
	}

	return NewSimpleUI(cmd, opts)
}
