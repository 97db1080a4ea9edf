package domain

import "strings"

// defaultExclusions lists test inputs known to be unusable under mutation:
// stack-overflow prone, wall-clock sensitive or otherwise special-cased.
// Matching is a case-insensitive substring test against the file name.
var defaultExclusions = []string{
	"stackoverflow",
	"deeprecursion",
	"nondeterm",
	"tighttimer",
}

// Exclusions matches program names against the curated skip list plus any
// run-configured additions.
type Exclusions struct {
	entries []string
}

// NewExclusions combines the built-in list with extra configured entries.
func NewExclusions(extra []string) *Exclusions {
	entries := make([]string, 0, len(defaultExclusions)+len(extra))

	for _, e := range defaultExclusions {
		entries = append(entries, strings.ToLower(e))
	}

	for _, e := range extra {
		if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
			entries = append(entries, e)
		}
	}

	return &Exclusions{entries: entries}
}

// Matches reports whether name hits any exclusion entry.
func (x *Exclusions) Matches(name string) bool {
	lower := strings.ToLower(name)

	for _, entry := range x.entries {
		if strings.Contains(lower, entry) {
			return true
		}
	}

	return false
}
