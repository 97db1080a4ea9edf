package domain

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"jolt.dev/pkg/jolt/internal/adapter"
	"jolt.dev/pkg/jolt/internal/controller"
	"jolt.dev/pkg/jolt/internal/domain/mutators"
	m "jolt.dev/pkg/jolt/internal/model"
)

// DefaultSeed feeds the run's random source when no --seed is given. Fixed so
// two bare invocations over the same inputs mutate identically.
const DefaultSeed = 20260821

// firstRunAllowance multiplies the time budget for the very first baseline of
// a process, absorbing one-time toolchain warm-up.
const firstRunAllowance = 3

// mutantAllowance multiplies the time budget when executing variants. The
// baseline gate does not bound a pathological mutant, so variants get a wide
// but finite leash instead of none.
const mutantAllowance = 10

// Options configure one stress run.
type Options struct {
	EHStress     bool
	StructStress bool
	EmptyBlocks  bool

	Recursive bool
	Projects  bool

	StopAtFirstFailure bool

	// SizeLimit is the maximum accepted program size in bytes. A program
	// exactly at the limit is accepted.
	SizeLimit int

	// TimeLimit budgets one baseline compile+run.
	TimeLimit time.Duration

	Seed       int64
	Exclusions []string

	// ReportsDir, when set, receives the YAML run report.
	ReportsDir m.Path
}

// Driver orchestrates a run: load, verify baseline, mutate, execute,
// classify, accumulate. Execution is strictly sequential; every probabilistic
// choice is drawn from one seeded source in catalog order so a seed
// reproduces a run exactly.
type Driver struct {
	loader    Loader
	toolchain adapter.ToolchainAdapter
	store     adapter.ReportStore
	ui        controller.UI

	opts       Options
	rng        *rand.Rand
	catalog    []*mutators.Mutator
	exclusions *Exclusions

	warmedUp bool
}

// NewDriver wires a Driver. store may be nil when no report is requested.
func NewDriver(loader Loader, toolchain adapter.ToolchainAdapter, store adapter.ReportStore, ui controller.UI, opts Options) *Driver {
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	return &Driver{
		loader:    loader,
		toolchain: toolchain,
		store:     store,
		ui:        ui,
		opts:      opts,
		rng:       rand.New(rand.NewSource(seed)),
		catalog: mutators.BuildCatalog(mutators.CatalogOptions{
			EHStress:     opts.EHStress,
			StructStress: opts.StructStress,
			EmptyBlocks:  opts.EmptyBlocks,
		}),
		exclusions: NewExclusions(opts.Exclusions),
	}
}

// Catalog exposes the run's mutator list (the list command reports it).
func (d *Driver) Catalog() []*mutators.Mutator {
	return d.catalog
}

// Run processes every input path to completion, one program at a time.
func (d *Driver) Run(ctx context.Context, paths []m.Path) (m.RunStats, error) {
	defer d.toolchain.Cleanup()

	startedAt := time.Now().Format(time.RFC3339)

	var stats m.RunStats

	for _, path := range paths {
		programs, err := d.loader.Load(path, d.opts.Recursive, d.opts.Projects)
		if err != nil {
			slog.Error("failed to load input", "path", path, "error", err)
			d.ui.InputError(path, err)
			stats.RecordError()

			continue
		}

		stopped := d.processPrograms(ctx, programs, &stats)
		if stopped {
			break
		}
	}

	d.ui.RunFinished(stats)

	if err := d.saveReport(startedAt, stats); err != nil {
		slog.Error("failed to save run report", "error", err)
		return stats, err
	}

	return stats, nil
}

func (d *Driver) processPrograms(ctx context.Context, programs []*m.Program, stats *m.RunStats) bool {
	for _, program := range programs {
		fileStats := d.processProgram(ctx, program)

		stats.RecordFile(fileStats)
		d.ui.FileFinished(fileStats)

		if d.store != nil {
			if err := d.store.AppendFile(m.NewFileReport(fileStats)); err != nil {
				slog.Warn("failed to buffer file report", "file", fileStats.Name, "error", err)
			}
		}

		if d.opts.StopAtFirstFailure && fileStats.Verdict == m.VerdictFail {
			return true
		}
	}

	return false
}

// processProgram runs the per-file state machine: exclusion check, baseline
// check, size/time gate, mutation loop, verdict.
func (d *Driver) processProgram(ctx context.Context, program *m.Program) m.FileStats {
	fileStats := m.FileStats{Name: program.Name, Path: program.MainPath()}

	if d.exclusions.Matches(program.Name) {
		fileStats.Verdict = m.VerdictSkip
		fileStats.Baseline = m.Result(m.SkipSpecialCase)

		return fileStats
	}

	if len(program.DependentModules) > 0 {
		fileStats.Verdict = m.VerdictSkip
		fileStats.Baseline = m.ResultWithValue(m.HasDependentModules, len(program.DependentModules))

		return fileStats
	}

	if size := program.Size(); size > d.opts.SizeLimit {
		fileStats.Verdict = m.VerdictSkip
		fileStats.Baseline = m.ResultWithValue(m.SizeTooLarge, size)

		return fileStats
	}

	baseline, ok := d.checkBaseline(ctx, program, &fileStats)
	if !ok {
		fileStats.Verdict = m.VerdictSkip
		fileStats.Baseline = baseline

		return fileStats
	}

	d.mutationLoop(ctx, program, &fileStats)

	if fileStats.Failure != nil {
		fileStats.Verdict = m.VerdictFail
	} else {
		fileStats.Verdict = m.VerdictPass
	}

	return fileStats
}

// checkBaseline compiles and executes the unmutated program and applies the
// time gate. No mutation is attempted unless the baseline runs normally
// within budget.
func (d *Driver) checkBaseline(ctx context.Context, program *m.Program, fileStats *m.FileStats) (m.ExecutionResult, bool) {
	budget := d.opts.TimeLimit
	if !d.warmedUp {
		budget *= firstRunAllowance
	}

	d.warmedUp = true

	start := time.Now()
	baseline := d.toolchain.CompileAndExecute(ctx, program, false, budget)
	elapsed := time.Since(start)

	if !baseline.IsNormal() {
		slog.Info("baseline did not establish a valid run", "program", program.Name, "result", baseline.String())
		return baseline, false
	}

	if elapsed > budget {
		return m.ResultWithValue(m.RanTooLong, int(elapsed.Milliseconds())), false
	}

	return baseline, true
}

// mutationLoop applies every catalog mutator to a fresh copy of the baseline,
// never to a previously mutated program.
func (d *Driver) mutationLoop(ctx context.Context, program *m.Program, fileStats *m.FileStats) {
	d.ui.FileStarted(program.Name, len(d.catalog))

	for _, mu := range d.catalog {
		variant, outcome, err := mu.Apply(program, d.rng)

		var result m.ExecutionResult

		if err != nil {
			slog.Error("mutator application faulted", "program", program.Name, "mutator", mu.Name(), "error", err)

			result = m.Result(m.MutantCompilationException)
		} else {
			result = d.toolchain.CompileAndExecute(ctx, variant, true, d.opts.TimeLimit*mutantAllowance)
		}

		variantResult := m.VariantResult{Mutator: mu.Name(), Transforms: outcome.Transforms, Result: result}
		fileStats.RecordVariant(variantResult)
		d.ui.VariantTested(program.Name, variantResult)

		if !result.IsNormal() {
			slog.Warn("variant diverged", "program", program.Name, "mutator", mu.Name(), "result", result.String())
		}

		if d.opts.StopAtFirstFailure && fileStats.Failure != nil {
			return
		}
	}
}

func (d *Driver) saveReport(startedAt string, stats m.RunStats) error {
	if d.store == nil || d.opts.ReportsDir == "" {
		return nil
	}

	seed := d.opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	_, err := d.store.SaveRun(d.opts.ReportsDir, m.NewRunReport(seed, startedAt, stats))

	return err
}
