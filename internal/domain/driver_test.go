package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jolt.dev/pkg/jolt/internal/model"
)

const validMain = `package main

func main() {
	x := 1
	_ = x
}
`

func testProgram(name string) *m.Program {
	return &m.Program{
		Name:  name,
		Dir:   "in",
		Files: []m.SourceFile{{Path: m.Path("in/" + name), Text: []byte(validMain)}},
	}
}

type fakeLoader struct {
	programs map[m.Path][]*m.Program
	errs     map[m.Path]error
}

func (l *fakeLoader) Load(path m.Path, _, _ bool) ([]*m.Program, error) {
	if err := l.errs[path]; err != nil {
		return nil, err
	}

	return l.programs[path], nil
}

type toolchainCall struct {
	name     string
	isMutant bool
	timeout  time.Duration
}

type fakeToolchain struct {
	baseline m.ExecutionResult
	mutant   m.ExecutionResult

	calls   []toolchainCall
	cleaned bool
}

func (tc *fakeToolchain) CompileAndExecute(_ context.Context, program *m.Program, isMutant bool, timeout time.Duration) m.ExecutionResult {
	tc.calls = append(tc.calls, toolchainCall{name: program.Name, isMutant: isMutant, timeout: timeout})

	if isMutant {
		return tc.mutant
	}

	return tc.baseline
}

func (tc *fakeToolchain) Cleanup() {
	tc.cleaned = true
}

type fakeStore struct {
	appended []m.FileReport
	saved    *m.RunReport
	savedDir m.Path
}

func (s *fakeStore) AppendFile(report m.FileReport) error {
	s.appended = append(s.appended, report)
	return nil
}

func (s *fakeStore) SaveRun(dir m.Path, report m.RunReport) (m.Path, error) {
	s.saved = &report
	s.savedDir = dir

	return dir + "/run.yaml", nil
}

func (s *fakeStore) LoadRun(m.Path) (m.RunReport, error) {
	return m.RunReport{}, errors.New("not implemented")
}

func (s *fakeStore) Close() error { return nil }

type fakeUI struct {
	events []string
}

func (u *fakeUI) Start(context.Context) error { return nil }
func (u *fakeUI) Close(context.Context)       {}

func (u *fakeUI) FileStarted(name string, variants int) {
	u.events = append(u.events, fmt.Sprintf("started %s %d", name, variants))
}

func (u *fakeUI) VariantTested(file string, v m.VariantResult) {
	u.events = append(u.events, fmt.Sprintf("variant %s %s", file, v.Mutator))
}

func (u *fakeUI) FileFinished(stats m.FileStats) {
	u.events = append(u.events, fmt.Sprintf("finished %s %s", stats.Name, stats.Verdict))
}

func (u *fakeUI) InputError(path m.Path, err error) {
	u.events = append(u.events, fmt.Sprintf("error %s", path))
}

func (u *fakeUI) RunFinished(m.RunStats) {
	u.events = append(u.events, "run finished")
}

func newTestDriver(loader Loader, tc *fakeToolchain, store *fakeStore, ui *fakeUI, opts Options) *Driver {
	if opts.SizeLimit == 0 {
		opts.SizeLimit = 1 << 20
	}

	if opts.TimeLimit == 0 {
		opts.TimeLimit = time.Minute
	}

	if store == nil {
		return NewDriver(loader, tc, nil, ui, opts)
	}

	return NewDriver(loader, tc, store, ui, opts)
}

func TestDriver_PassingFile(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("ok.go")}}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.RanNormally)}
	ui := &fakeUI{}

	driver := newTestDriver(loader, tc, nil, ui, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 0, stats.Failed)
	assert.True(t, stats.AllClear())

	// One baseline plus one run per catalog entry.
	require.Len(t, tc.calls, 1+len(driver.Catalog()))
	assert.False(t, tc.calls[0].isMutant)

	for _, call := range tc.calls[1:] {
		assert.True(t, call.isMutant)
	}

	assert.True(t, tc.cleaned, "scratch directories are released at end of run")
	assert.Contains(t, ui.events, "finished ok.go PASS")
	assert.Equal(t, "run finished", ui.events[len(ui.events)-1])
}

func TestDriver_MutantTimeoutAllowance(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("ok.go")}}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.RanNormally)}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{TimeLimit: time.Second})

	_, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	require.NotEmpty(t, tc.calls)
	assert.Equal(t, firstRunAllowance*time.Second, tc.calls[0].timeout, "first baseline absorbs toolchain warm-up")

	for _, call := range tc.calls[1:] {
		assert.Equal(t, mutantAllowance*time.Second, call.timeout)
	}
}

func TestDriver_FailingVariant(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("bad.go")}}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.ResultWithValue(m.MutantBadExitCode, 3)}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.False(t, stats.AllClear())

	require.Len(t, stats.FileResults, 1)
	file := stats.FileResults[0]
	assert.Equal(t, m.VerdictFail, file.Verdict)
	require.NotNil(t, file.Failure)
	assert.Equal(t, m.MutantBadExitCode, file.Failure.Result.Kind)
}

func TestDriver_ExcludedFileSkipsWithoutExecution(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("stackoverflow3.go")}}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally)}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, tc.calls, "excluded inputs never reach the toolchain")

	require.Len(t, stats.FileResults, 1)
	assert.Equal(t, m.SkipSpecialCase, stats.FileResults[0].Baseline.Kind)
}

func TestDriver_DependentModulesSkip(t *testing.T) {
	program := testProgram("proj")
	program.DependentModules = []string{"../shared"}

	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {program}}}
	tc := &fakeToolchain{}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, tc.calls)
	assert.Equal(t, m.HasDependentModules, stats.FileResults[0].Baseline.Kind)
	assert.Equal(t, 1, stats.FileResults[0].Baseline.Value)
}

func TestDriver_SizeGateBoundary(t *testing.T) {
	program := testProgram("edge.go")
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {program}}}

	t.Run("exactly at the limit is accepted", func(t *testing.T) {
		tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.RanNormally)}
		driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{SizeLimit: program.Size()})

		stats, err := driver.Run(context.Background(), []m.Path{"in"})
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Passed)
		assert.NotEmpty(t, tc.calls)
	})

	t.Run("one byte over is skipped", func(t *testing.T) {
		tc := &fakeToolchain{}
		driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{SizeLimit: program.Size() - 1})

		stats, err := driver.Run(context.Background(), []m.Path{"in"})
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Skipped)
		assert.Empty(t, tc.calls)
		assert.Equal(t, m.SizeTooLarge, stats.FileResults[0].Baseline.Kind)
		assert.Equal(t, program.Size(), stats.FileResults[0].Baseline.Value)
	})
}

func TestDriver_BaselineFailureSkips(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("broken.go")}}}
	tc := &fakeToolchain{baseline: m.ResultWithValue(m.BadExitCode, 7)}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Len(t, tc.calls, 1, "no mutation after a failed baseline")
	assert.Equal(t, m.BadExitCode, stats.FileResults[0].Baseline.Kind)
}

func TestDriver_StopAtFirstFailure(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{
		"in": {testProgram("first.go"), testProgram("second.go")},
	}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.MutantThrewException)}

	driver := newTestDriver(loader, tc, nil, &fakeUI{}, Options{StopAtFirstFailure: true})

	stats, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Files, "second file is never processed")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.FileResults[0].Attempted, "mutation loop stops at the first divergence")
}

func TestDriver_LoadErrorRecordsAndContinues(t *testing.T) {
	loader := &fakeLoader{
		programs: map[m.Path][]*m.Program{"good": {testProgram("ok.go")}},
		errs:     map[m.Path]error{"missing": errors.New("no such file")},
	}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.RanNormally)}
	ui := &fakeUI{}

	driver := newTestDriver(loader, tc, nil, ui, Options{})

	stats, err := driver.Run(context.Background(), []m.Path{"missing", "good"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.Passed)
	assert.False(t, stats.AllClear(), "an unreadable input spoils the run")
	assert.Contains(t, ui.events, "error missing")
}

func TestDriver_SavesReport(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{"in": {testProgram("ok.go")}}}
	tc := &fakeToolchain{baseline: m.Result(m.RanNormally), mutant: m.Result(m.RanNormally)}
	store := &fakeStore{}

	driver := newTestDriver(loader, tc, store, &fakeUI{}, Options{Seed: 7, ReportsDir: "out"})

	_, err := driver.Run(context.Background(), []m.Path{"in"})
	require.NoError(t, err)

	require.Len(t, store.appended, 1)
	assert.Equal(t, "ok.go", store.appended[0].Name)

	require.NotNil(t, store.saved)
	assert.Equal(t, m.Path("out"), store.savedDir)
	assert.Equal(t, int64(7), store.saved.Seed)
	assert.Equal(t, 1, store.saved.Totals.Passed)
}

func TestDriver_DefaultSeedWhenUnset(t *testing.T) {
	loader := &fakeLoader{programs: map[m.Path][]*m.Program{}}
	store := &fakeStore{}

	driver := newTestDriver(loader, &fakeToolchain{}, store, &fakeUI{}, Options{ReportsDir: "out"})

	_, err := driver.Run(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, store.saved)
	assert.Equal(t, int64(DefaultSeed), store.saved.Seed)
}
