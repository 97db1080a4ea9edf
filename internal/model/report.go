package model

// RunReport is the persisted, machine-readable form of a run, written by the
// report store as YAML so divergences can be triaged after the process exits.
type RunReport struct {
	Seed      int64        `yaml:"seed"`
	StartedAt string       `yaml:"started_at"`
	Files     []FileReport `yaml:"files"`
	Totals    ReportTotals `yaml:"totals"`
}

// FileReport is the per-file slice of a RunReport.
type FileReport struct {
	Name     string          `yaml:"name"`
	Path     string          `yaml:"path"`
	Verdict  string          `yaml:"verdict"`
	Reason   string          `yaml:"reason,omitempty"`
	Variants []VariantReport `yaml:"variants,omitempty"`
}

// VariantReport is one mutator application within a FileReport.
type VariantReport struct {
	Mutator    string `yaml:"mutator"`
	Transforms int    `yaml:"transforms"`
	Result     string `yaml:"result"`
}

// ReportTotals mirrors RunStats for the persisted report.
type ReportTotals struct {
	Files           int `yaml:"files"`
	Passed          int `yaml:"passed"`
	Skipped         int `yaml:"skipped"`
	Failed          int `yaml:"failed"`
	Attempted       int `yaml:"variants_attempted"`
	FailedToCompile int `yaml:"variants_failed_to_compile"`
	FailedToRun     int `yaml:"variants_failed_to_run"`
}

// NewRunReport converts run statistics into the persisted report shape.
func NewRunReport(seed int64, startedAt string, stats RunStats) RunReport {
	report := RunReport{
		Seed:      seed,
		StartedAt: startedAt,
		Totals: ReportTotals{
			Files:           stats.Files,
			Passed:          stats.Passed,
			Skipped:         stats.Skipped,
			Failed:          stats.Failed,
			Attempted:       stats.Attempted,
			FailedToCompile: stats.FailedToCompile,
			FailedToRun:     stats.FailedToRun,
		},
	}

	for _, f := range stats.FileResults {
		report.Files = append(report.Files, NewFileReport(f))
	}

	return report
}

// NewFileReport converts one file's statistics into its report shape.
func NewFileReport(f FileStats) FileReport {
	fr := FileReport{
		Name:    f.Name,
		Path:    string(f.Path),
		Verdict: f.Verdict.String(),
	}

	switch {
	case f.Verdict == VerdictSkip:
		fr.Reason = f.Baseline.String()
	case f.Failure != nil:
		fr.Reason = f.Failure.Result.String()
	}

	for _, v := range f.Variants {
		fr.Variants = append(fr.Variants, VariantReport{
			Mutator:    v.Mutator,
			Transforms: v.Transforms,
			Result:     v.Result.String(),
		})
	}

	return fr
}
