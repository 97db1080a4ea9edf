package model

import "fmt"

// ResultKind classifies one compile+run attempt.
type ResultKind int

// Result kinds. The Mutant* counterparts carry the same meaning as their
// baseline siblings but mark that the failing unit was a mutated variant,
// which is the signal of interest rather than a test-input problem.
const (
	RanNormally ResultKind = iota
	CompilationException
	CompilationFailed
	LoadFailed
	ThrewException
	BadExitCode
	MutantCompilationException
	MutantCompilationFailed
	MutantLoadFailed
	MutantThrewException
	MutantBadExitCode
	MutantRanTooLong
	SizeTooLarge
	RanTooLong
	HasDependentModules
	NoFileAccess
	SkipSpecialCase
)

// SentinelExitCode is the only exit code interpreted as "ran normally".
const SentinelExitCode = 100

var resultDescriptions = map[ResultKind]string{
	RanNormally:                "ran normally",
	CompilationException:       "compiler faulted on baseline",
	CompilationFailed:          "baseline failed to compile",
	LoadFailed:                 "baseline failed to load",
	ThrewException:             "baseline threw an exception",
	BadExitCode:                "baseline returned unexpected exit code",
	MutantCompilationException: "compiler faulted on mutant",
	MutantCompilationFailed:    "mutant failed to compile",
	MutantLoadFailed:           "mutant failed to load",
	MutantThrewException:       "mutant threw an exception",
	MutantBadExitCode:          "mutant returned unexpected exit code",
	MutantRanTooLong:           "mutant exceeded time limit",
	SizeTooLarge:               "program exceeds size limit",
	RanTooLong:                 "baseline exceeded time limit",
	HasDependentModules:        "project depends on other in-repo projects",
	NoFileAccess:               "file or directory not accessible",
	SkipSpecialCase:            "matched exclusion list",
}

// ExecutionResult is the tagged outcome of one compile+execute attempt. Value
// carries the kind-specific integer payload: observed exit code, byte size or
// elapsed milliseconds. HasValue distinguishes a real zero payload from none.
type ExecutionResult struct {
	Kind     ResultKind
	Value    int
	HasValue bool
}

// Result constructs an ExecutionResult without a payload.
func Result(kind ResultKind) ExecutionResult {
	return ExecutionResult{Kind: kind}
}

// ResultWithValue constructs an ExecutionResult carrying a payload.
func ResultWithValue(kind ResultKind, value int) ExecutionResult {
	return ExecutionResult{Kind: kind, Value: value, HasValue: true}
}

// AsMutant maps a baseline result kind onto its mutant counterpart. Kinds
// without a mutant sibling are returned unchanged.
func (r ExecutionResult) AsMutant() ExecutionResult {
	mapped := r

	switch r.Kind {
	case CompilationException:
		mapped.Kind = MutantCompilationException
	case CompilationFailed:
		mapped.Kind = MutantCompilationFailed
	case LoadFailed:
		mapped.Kind = MutantLoadFailed
	case ThrewException:
		mapped.Kind = MutantThrewException
	case BadExitCode:
		mapped.Kind = MutantBadExitCode
	case RanTooLong:
		mapped.Kind = MutantRanTooLong
	}

	return mapped
}

// IsNormal reports whether the attempt ran to completion with the sentinel
// exit code.
func (r ExecutionResult) IsNormal() bool {
	return r.Kind == RanNormally
}

// IsBaselineSkip reports whether the result disqualifies the test input
// itself: the file is unusable, so no mutation should be attempted and the
// file counts as skipped rather than failed.
func (r ExecutionResult) IsBaselineSkip() bool {
	switch r.Kind {
	case CompilationException, CompilationFailed, LoadFailed, ThrewException,
		BadExitCode, SizeTooLarge, RanTooLong, HasDependentModules,
		NoFileAccess, SkipSpecialCase:
		return true
	}

	return false
}

// IsMutantFailure reports whether the result is evidence of a backend
// divergence: a mutated variant that compiled differently or behaved
// differently from the baseline.
func (r ExecutionResult) IsMutantFailure() bool {
	switch r.Kind {
	case MutantCompilationException, MutantCompilationFailed, MutantLoadFailed,
		MutantThrewException, MutantBadExitCode, MutantRanTooLong:
		return true
	}

	return false
}

// IsMutantCompileFailure reports whether a mutant failed before execution.
func (r ExecutionResult) IsMutantCompileFailure() bool {
	return r.Kind == MutantCompilationException || r.Kind == MutantCompilationFailed
}

// String renders the fixed one-line description, with the payload appended
// when present.
func (r ExecutionResult) String() string {
	desc, ok := resultDescriptions[r.Kind]
	if !ok {
		desc = fmt.Sprintf("unknown result kind %d", int(r.Kind))
	}

	if r.HasValue {
		return fmt.Sprintf("%s (%d)", desc, r.Value)
	}

	return desc
}
