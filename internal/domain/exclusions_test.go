package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExclusions_Defaults(t *testing.T) {
	x := NewExclusions(nil)

	assert.True(t, x.Matches("stackoverflow3.go"))
	assert.True(t, x.Matches("DeepRecursion_v2.go"), "matching is case-insensitive")
	assert.True(t, x.Matches("loop_nondeterm.go"))
	assert.True(t, x.Matches("tighttimer.go"))
	assert.False(t, x.Matches("loop1.go"))
	assert.False(t, x.Matches("recursion.go"), "substring must match an entry, not a fragment of one")
}

func TestExclusions_Extra(t *testing.T) {
	x := NewExclusions([]string{"Flaky", "  ", "\tknownbad "})

	assert.True(t, x.Matches("flaky_allocs.go"))
	assert.True(t, x.Matches("KNOWNBAD.go"))
	assert.False(t, x.Matches("solid.go"))
	assert.False(t, x.Matches(" "), "blank extra entries are dropped, not match-everything")
}
