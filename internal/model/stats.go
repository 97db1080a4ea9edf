package model

// Verdict is the final per-file outcome of a mutation round.
type Verdict int

// Verdict values.
const (
	// VerdictPass means the baseline and every variant ran normally.
	VerdictPass Verdict = iota
	// VerdictSkip means the baseline could not establish a valid run.
	VerdictSkip
	// VerdictFail means at least one variant diverged from the baseline.
	VerdictFail
)

// String renders the verdict for reports.
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictSkip:
		return "SKIP"
	case VerdictFail:
		return "FAIL"
	}

	return "UNKNOWN"
}

// VariantResult records the outcome of one mutator application.
type VariantResult struct {
	// Mutator is the composite name of the applied mutator.
	Mutator string
	// Transforms is how many sites the mutator altered.
	Transforms int
	// Result classifies the variant's compile+run attempt.
	Result ExecutionResult
}

// FileStats accumulates counters for a single test program.
type FileStats struct {
	Name    string
	Path    Path
	Verdict Verdict

	// Baseline holds the baseline classification; meaningful when the verdict
	// is Skip.
	Baseline ExecutionResult

	// Failure is the first non-normal variant result, kept as the file's
	// representative failure.
	Failure *VariantResult

	Variants []VariantResult

	Attempted       int
	FailedToCompile int
	FailedToRun     int
	Succeeded       int
}

// RecordVariant folds one variant outcome into the per-file counters.
func (s *FileStats) RecordVariant(v VariantResult) {
	s.Variants = append(s.Variants, v)
	s.Attempted++

	switch {
	case v.Result.IsNormal():
		s.Succeeded++
		return
	case v.Result.IsMutantCompileFailure():
		s.FailedToCompile++
	default:
		s.FailedToRun++
	}

	if s.Failure == nil {
		failure := v
		s.Failure = &failure
	}
}

// RunStats aggregates counters across every file of a run.
type RunStats struct {
	Files     int
	Passed    int
	Skipped   int
	Failed    int
	Errors    int
	Attempted int

	FailedToCompile int
	FailedToRun     int

	FileResults []FileStats
}

// RecordFile folds a per-file result into the run-wide totals.
func (s *RunStats) RecordFile(f FileStats) {
	s.FileResults = append(s.FileResults, f)
	s.Files++
	s.Attempted += f.Attempted
	s.FailedToCompile += f.FailedToCompile
	s.FailedToRun += f.FailedToRun

	switch f.Verdict {
	case VerdictPass:
		s.Passed++
	case VerdictSkip:
		s.Skipped++
	case VerdictFail:
		s.Failed++
	}
}

// RecordError counts an infrastructure error (unreadable input, missing
// directory) that aborted one input without producing file stats.
func (s *RunStats) RecordError() {
	s.Errors++
}

// AllClear reports whether the run ended with zero failures. Infrastructure
// errors also spoil the run so broken invocations cannot masquerade as green.
func (s *RunStats) AllClear() bool {
	return s.Failed == 0 && s.Errors == 0
}
