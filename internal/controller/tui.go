package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	m "jolt.dev/pkg/jolt/internal/model"
)

// TUI implements UI as a live Bubble Tea view: a spinner for the file being
// stressed, a rolling tail of verdict lines and the final summary. The view
// runs on its own goroutine; the strictly sequential driver feeds it through
// message sends.
type TUI struct {
	opts    DisplayOptions
	program *tea.Program
	group   *errgroup.Group
}

// NewTUI creates a TUI writing to output.
func NewTUI(output io.Writer, opts DisplayOptions) *TUI {
	model := newRunModel(opts)
	program := tea.NewProgram(model, tea.WithOutput(output))

	return &TUI{opts: opts, program: program}
}

// Start launches the view loop.
func (t *TUI) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.group, _ = errgroup.WithContext(ctx)
	t.group.Go(func() error {
		_, err := t.program.Run()
		return err
	})

	return nil
}

// Close quits the view loop and waits for the final frame to flush.
func (t *TUI) Close(_ context.Context) {
	t.program.Quit()
	_ = t.group.Wait()
}

// FileStarted announces the mutation loop for one program.
func (t *TUI) FileStarted(name string, variants int) {
	t.program.Send(fileStartedMsg{name: name, variants: variants})
}

// VariantTested advances the current file's progress.
func (t *TUI) VariantTested(file string, v m.VariantResult) {
	t.program.Send(variantTestedMsg{file: file, result: v})
}

// FileFinished appends the file's verdict line.
func (t *TUI) FileFinished(stats m.FileStats) {
	t.program.Send(fileFinishedMsg{stats: stats})
}

// InputError appends an error line.
func (t *TUI) InputError(path m.Path, err error) {
	t.program.Send(inputErrorMsg{path: path, err: err})
}

// RunFinished records the summary for the final frame.
func (t *TUI) RunFinished(stats m.RunStats) {
	t.program.Send(runFinishedMsg{stats: stats})
}

type fileStartedMsg struct {
	name     string
	variants int
}

type variantTestedMsg struct {
	file   string
	result m.VariantResult
}

type fileFinishedMsg struct {
	stats m.FileStats
}

type inputErrorMsg struct {
	path m.Path
	err  error
}

type runFinishedMsg struct {
	stats m.RunStats
}

const verdictTailLen = 12

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true)
	tuiFaintStyle  = lipgloss.NewStyle().Faint(true)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// runModel is the Bubble Tea model behind the live view.
type runModel struct {
	opts DisplayOptions

	spin spinner.Model

	currentFile  string
	variantTotal int
	variantDone  int

	tail    []string
	summary *m.RunStats
	done    bool
}

func newRunModel(opts DisplayOptions) *runModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &runModel{opts: opts, spin: spin}
}

// Init starts the spinner tick.
func (rm *runModel) Init() tea.Cmd {
	return rm.spin.Tick
}

// Update folds driver messages and spinner ticks into the model.
func (rm *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fileStartedMsg:
		rm.currentFile = msg.name
		rm.variantTotal = msg.variants
		rm.variantDone = 0

		return rm, nil

	case variantTestedMsg:
		rm.variantDone++
		return rm, nil

	case fileFinishedMsg:
		rm.currentFile = ""
		rm.appendTail(verdictLine(msg.stats, rm.opts))

		return rm, nil

	case inputErrorMsg:
		rm.appendTail(tuiErrorStyle.Render(fmt.Sprintf("error: %s: %v", msg.path, msg.err)))
		return rm, nil

	case runFinishedMsg:
		stats := msg.stats
		rm.summary = &stats
		rm.done = true

		return rm, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spin, cmd = rm.spin.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

// View renders the rolling frame.
func (rm *runModel) View() string {
	var b strings.Builder

	b.WriteString(tuiHeaderStyle.Render("jolt mutation stress"))
	b.WriteString("\n\n")

	for _, line := range rm.tail {
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case rm.done && rm.summary != nil:
		b.WriteString(renderSummary(*rm.summary))
	case rm.currentFile != "":
		b.WriteString(fmt.Sprintf("%s %s (%d/%d mutators)\n",
			rm.spin.View(), rm.currentFile, rm.variantDone, rm.variantTotal))
	default:
		b.WriteString(fmt.Sprintf("%s discovering test programs\n", rm.spin.View()))
	}

	return b.String()
}

func (rm *runModel) appendTail(line string) {
	if line == "" {
		return
	}

	rm.tail = append(rm.tail, line)
	if len(rm.tail) > verdictTailLen {
		rm.tail = rm.tail[len(rm.tail)-verdictTailLen:]
	}
}

func verdictLine(stats m.FileStats, opts DisplayOptions) string {
	if opts.OnlyFailures && stats.Verdict != m.VerdictFail {
		return ""
	}

	line := fmt.Sprintf("%s %s (%d variants)", styledVerdict(stats.Verdict), stats.Name, stats.Attempted)

	switch {
	case stats.Verdict == m.VerdictSkip:
		line += tuiFaintStyle.Render(fmt.Sprintf(" %s", stats.Baseline))
	case stats.Failure != nil:
		line += tuiFaintStyle.Render(fmt.Sprintf(" %s: %s", stats.Failure.Mutator, stats.Failure.Result))
	}

	return line
}

func renderSummary(stats m.RunStats) string {
	var b strings.Builder

	b.WriteString("\n")
	fmt.Fprintf(&b, "files: %d  passed: %d  skipped: %d  failed: %d\n",
		stats.Files, stats.Passed, stats.Skipped, stats.Failed)
	fmt.Fprintf(&b, "variants: %d  compile failures: %d  run failures: %d\n",
		stats.Attempted, stats.FailedToCompile, stats.FailedToRun)

	if stats.AllClear() {
		b.WriteString(passStyle.Render("OK all files passed"))
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("FAIL %d file(s) failed, %d input error(s)", stats.Failed, stats.Errors)))
	}

	b.WriteString("\n")

	return b.String()
}
