package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "jolt.dev/pkg/jolt/internal/model"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func styledVerdict(v m.Verdict) string {
	switch v {
	case m.VerdictPass:
		return passStyle.Render(v.String())
	case m.VerdictFail:
		return failStyle.Render(v.String())
	default:
		return skipStyle.Render(v.String())
	}
}

// SimpleUI implements UI using cobra Command's print helpers.
type SimpleUI struct {
	cmd  *cobra.Command
	opts DisplayOptions
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, opts DisplayOptions) *SimpleUI {
	return &SimpleUI{cmd: cmd, opts: opts}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context) error {
	return ctx.Err()
}

// Close finalizes the UI (no-op: SimpleUI prints as it goes).
func (s *SimpleUI) Close(_ context.Context) {}

// FileStarted announces the mutation loop for one program.
func (s *SimpleUI) FileStarted(name string, variants int) {
	if s.opts.Quiet || s.opts.OnlyFailures {
		return
	}

	if s.opts.Verbose || s.opts.ShowResults {
		s.cmd.Printf("%s: applying %d mutators\n", name, variants)
	}
}

// VariantTested prints one variant outcome when the mode asks for it.
func (s *SimpleUI) VariantTested(file string, v m.VariantResult) {
	if s.opts.Quiet || !(s.opts.ShowResults || s.opts.Verbose) {
		return
	}

	s.cmd.Printf("  %-48s transforms=%-3d %s\n", v.Mutator, v.Transforms, v.Result)
}

// FileFinished prints the per-file verdict line.
func (s *SimpleUI) FileFinished(stats m.FileStats) {
	if s.opts.Quiet {
		return
	}

	if s.opts.OnlyFailures && stats.Verdict != m.VerdictFail {
		return
	}

	line := fmt.Sprintf("%s %s: %d variants, %d passed, %d failed to compile, %d failed to run",
		styledVerdict(stats.Verdict), stats.Name,
		stats.Attempted, stats.Succeeded, stats.FailedToCompile, stats.FailedToRun)

	switch {
	case stats.Verdict == m.VerdictSkip:
		line += fmt.Sprintf(" [%s]", stats.Baseline)
	case stats.Failure != nil:
		line += fmt.Sprintf(" [%s: %s]", stats.Failure.Mutator, stats.Failure.Result)
	}

	s.cmd.Println(line)
}

// InputError surfaces an infrastructure error for one input.
func (s *SimpleUI) InputError(path m.Path, err error) {
	s.cmd.PrintErrf("error: %s: %v\n", path, err)
}

// RunFinished renders the aggregate summary table.
func (s *SimpleUI) RunFinished(stats m.RunStats) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Files", "Passed", "Skipped", "Failed", "Variants", "Compile Fail", "Run Fail"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.Append([]string{
		fmt.Sprintf("%d", stats.Files),
		fmt.Sprintf("%d", stats.Passed),
		fmt.Sprintf("%d", stats.Skipped),
		fmt.Sprintf("%d", stats.Failed),
		fmt.Sprintf("%d", stats.Attempted),
		fmt.Sprintf("%d", stats.FailedToCompile),
		fmt.Sprintf("%d", stats.FailedToRun),
	})
	table.Render()

	s.cmd.Printf("\n%s\n", buf.String())

	if stats.AllClear() {
		s.cmd.Printf("%s all files passed\n", passStyle.Render("OK"))
		return
	}

	s.cmd.Printf("%s %d file(s) failed, %d input error(s)\n",
		failStyle.Render("FAIL"), stats.Failed, stats.Errors)
}
