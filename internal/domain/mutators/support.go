package mutators

import "fmt"

// supportSet tracks which injected runtime declarations a variant needs.
// Declarations are emitted once per package, only when a rewrite that
// references them actually fired.
type supportSet uint8

const (
	// supportSentinel covers the sentinel panic type plus the depth counter
	// and headroom probe used by MoveIntoCatch.
	supportSentinel supportSet = 1 << iota

	// supportCoin covers the seeded execution-time coin used by
	// RandomRuntime variants.
	supportCoin

	// supportRunner covers the padded struct receiver used by StructRun.
	supportRunner
)

// Injected identifier names. Everything is unexported and prefixed so the
// declarations cannot collide with or leak into the program under test.
const (
	sentinelType = "__joltSentinel"
	depthVar     = "__joltDepth"
	headroomFunc = "__joltHeadroom"
	coinFunc     = "__joltCoin"
	coinStateVar = "__joltRandState"
	runnerType   = "__joltRunner"
)

// maxCatchDepth bounds sentinel-catch nesting. Funclet-style handlers carry a
// real stack reservation; the exact threshold is a tuning parameter, not a
// contract.
const maxCatchDepth = 32

// sentinelSupportSrc declares the sentinel panic payload and the headroom
// guard MoveIntoCatch consults before throwing.
var sentinelSupportSrc = fmt.Sprintf(`
type %s struct{}

var %s int

func %s() bool {
	return %s < %d
}
`, sentinelType, depthVar, headroomFunc, depthVar, maxCatchDepth)

// coinSupportSrc declares the execution-time coin. A hand-rolled LCG keeps
// the injected code import-free; the multiplier/increment pair is the PCG
// default.
const coinSupportSrcFormat = `
var %s uint64 = %d

func %s(p float64) bool {
	%s = %s*6364136223846793005 + 1442695040888963407
	return float64(%s>>11)/float64(1<<53) < p
}
`

// runnerSupportSrc declares the padded struct receiver StructRun routes
// blocks through.
var runnerSupportSrc = fmt.Sprintf(`
type %s struct{ pad [2]uint64 }

func (r %s) run(f func()) {
	f()
}
`, runnerType, runnerType)

// supportDecls renders the declarations required by the set. The coin seed is
// drawn from the run's random source at mutation time, so a fixed run seed
// reproduces identical execution-time choices.
func supportDecls(set supportSet, coinSeed uint64) string {
	var src string

	if set&supportSentinel != 0 {
		src += sentinelSupportSrc
	}

	if set&supportCoin != 0 {
		src += fmt.Sprintf(coinSupportSrcFormat, coinStateVar, coinSeed, coinFunc, coinStateVar, coinStateVar, coinStateVar)
	}

	if set&supportRunner != 0 {
		src += runnerSupportSrc
	}

	return src
}
