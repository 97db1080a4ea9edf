package mutators

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"math/rand"

	m "jolt.dev/pkg/jolt/internal/model"
)

type op int

const (
	opPrimitive op = iota
	opRepeat
	opCombo
	opRandom
	opRandomChoice
	opRandomRuntime
)

// Mutator is a closed tagged variant over the primitive rewrites and the
// combinators that compose them. Values are immutable; all per-application
// bookkeeping is threaded through Apply explicitly.
type Mutator struct {
	op     op
	kind   PrimitiveKind
	inner  *Mutator
	second *Mutator
	n      int
	p      float64
}

// Prim builds a primitive mutator.
func Prim(kind PrimitiveKind) *Mutator {
	return &Mutator{op: opPrimitive, kind: kind}
}

// Repeat applies m up to n times per block, stopping early once a pass leaves
// the block unchanged.
func Repeat(inner *Mutator, n int) *Mutator {
	return &Mutator{op: opRepeat, inner: inner, n: n}
}

// Combo applies first, then second on the same region when it is still
// block-shaped (which an in-place block rewrite always preserves).
func Combo(first, second *Mutator) *Mutator {
	return &Mutator{op: opCombo, inner: first, second: second}
}

// Random applies inner with probability p per block, decided at mutation
// time.
func Random(inner *Mutator, p float64) *Mutator {
	return &Mutator{op: opRandom, inner: inner, p: p}
}

// RandomChoice applies first with probability p per block, else second,
// decided at mutation time.
func RandomChoice(first, second *Mutator, p float64) *Mutator {
	return &Mutator{op: opRandomChoice, inner: first, second: second, p: p}
}

// RandomRuntime defers the choice to execution time: the block compiles to a
// conditional that flips an injected seeded coin per entry and runs either
// the mutated or the original statements. It is the only combinator that
// changes the compiled shape rather than the applied behavior.
func RandomRuntime(inner *Mutator, p float64) *Mutator {
	return &Mutator{op: opRandomRuntime, inner: inner, p: p}
}

// Name renders the mutator's construction history.
func (mu *Mutator) Name() string {
	switch mu.op {
	case opPrimitive:
		return mu.kind.String()
	case opRepeat:
		return fmt.Sprintf("repeat(%s, %d)", mu.inner.Name(), mu.n)
	case opCombo:
		return fmt.Sprintf("combo(%s, %s)", mu.inner.Name(), mu.second.Name())
	case opRandom:
		return fmt.Sprintf("random(%s, %.2f)", mu.inner.Name(), mu.p)
	case opRandomChoice:
		return fmt.Sprintf("randomChoice(%s, %s, %.2f)", mu.inner.Name(), mu.second.Name(), mu.p)
	case opRandomRuntime:
		return fmt.Sprintf("randomRuntime(%s, %.2f)", mu.inner.Name(), mu.p)
	}

	return "unknown"
}

// Primitives returns the set of constituent primitive rules, however deeply
// the mutator nests them.
func (mu *Mutator) Primitives() map[PrimitiveKind]bool {
	set := make(map[PrimitiveKind]bool)
	mu.collectPrimitives(set)

	return set
}

func (mu *Mutator) collectPrimitives(set map[PrimitiveKind]bool) {
	switch mu.op {
	case opPrimitive:
		set[mu.kind] = true
	case opRepeat, opRandom, opRandomRuntime:
		mu.inner.collectPrimitives(set)
	case opCombo, opRandomChoice:
		mu.inner.collectPrimitives(set)
		mu.second.collectPrimitives(set)
	}
}

// Outcome reports what one Apply did: how many sites any constituent
// primitive rewrote and how many sites were skipped on a precondition.
type Outcome struct {
	Transforms int
	Skips      int
}

// Apply produces a new mutated Program from a baseline. The baseline is never
// touched: its stored text is re-parsed into fresh trees, every eligible
// block is rewritten in a single full traversal, and the result is printed,
// supplemented with whatever runtime support declarations fired rewrites
// require, and re-parsed into the variant Program.
func (mu *Mutator) Apply(prog *m.Program, rng *rand.Rand) (*m.Program, Outcome, error) {
	fset := token.NewFileSet()
	st := &state{fset: fset, rng: rng}
	rw := mu.rewriteBlock

	trees := make([]*ast.File, len(prog.Files))
	fileSupport := make([]supportSet, len(prog.Files))

	for i, f := range prog.Files {
		tree, err := parser.ParseFile(fset, string(f.Path), f.Text, parser.ParseComments)
		if err != nil {
			return nil, Outcome{}, fmt.Errorf("reparse %s: %w", f.Path, err)
		}

		before := st.support
		rewriteFile(tree, st, rw)

		trees[i] = tree
		fileSupport[i] = st.support &^ before
	}

	supportTexts := distributeSupport(trees, fileSupport, st.support, rng)

	variant := &m.Program{
		Name:     prog.Name,
		Dir:      prog.Dir,
		Manifest: prog.Manifest,
		FileSet:  token.NewFileSet(),
		Files:    make([]m.SourceFile, len(prog.Files)),
	}

	for i, f := range prog.Files {
		text, err := renderFile(fset, trees[i], supportTexts[i])
		if err != nil {
			return nil, Outcome{}, fmt.Errorf("render %s: %w", f.Path, err)
		}

		tree, err := parser.ParseFile(variant.FileSet, string(f.Path), text, parser.ParseComments)
		if err != nil {
			return nil, Outcome{}, fmt.Errorf("parse variant %s: %w", f.Path, err)
		}

		variant.Files[i] = m.SourceFile{Path: f.Path, Text: text, Tree: tree}
	}

	return variant, Outcome{Transforms: st.transforms, Skips: st.skips}, nil
}

// distributeSupport decides which file carries the injected declarations:
// once per package, in the first file of that package that needed any.
func distributeSupport(trees []*ast.File, fileSupport []supportSet, total supportSet, rng *rand.Rand) []string {
	texts := make([]string, len(trees))
	if total == 0 {
		return texts
	}

	var coinSeed uint64
	if total&supportCoin != 0 {
		coinSeed = uint64(rng.Int63())
	}

	pkgSupport := make(map[string]supportSet)
	for i, tree := range trees {
		pkgSupport[tree.Name.Name] |= fileSupport[i]
	}

	emitted := make(map[string]bool)

	for i, tree := range trees {
		pkg := tree.Name.Name
		if emitted[pkg] || fileSupport[i] == 0 {
			continue
		}

		texts[i] = supportDecls(pkgSupport[pkg], coinSeed)
		emitted[pkg] = true
	}

	return texts
}

// renderFile prints the rewritten tree, appends the support declarations and
// normalizes the result through gofmt.
func renderFile(fset *token.FileSet, tree *ast.File, supportText string) ([]byte, error) {
	var buf bytes.Buffer

	if err := printer.Fprint(&buf, fset, tree); err != nil {
		return nil, err
	}

	if supportText != "" {
		buf.WriteString("\n")
		buf.WriteString(supportText)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, err
	}

	return formatted, nil
}

// rewriteBlock dispatches on the mutator tag for one block. Combinator
// semantics live here; the primitive rewrites live in primitives.go.
func (mu *Mutator) rewriteBlock(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	switch mu.op {
	case opPrimitive:
		return applyPrimitive(mu.kind, b, ctx, st)

	case opRepeat:
		fired := false

		for i := 0; i < mu.n; i++ {
			if !mu.inner.rewriteBlock(b, ctx, st) {
				break
			}

			fired = true
		}

		return fired

	case opCombo:
		first := mu.inner.rewriteBlock(b, ctx, st)
		second := mu.second.rewriteBlock(b, ctx, st)

		return first || second

	case opRandom:
		if st.rng.Float64() < mu.p {
			return mu.inner.rewriteBlock(b, ctx, st)
		}

		return false

	case opRandomChoice:
		if st.rng.Float64() < mu.p {
			return mu.inner.rewriteBlock(b, ctx, st)
		}

		return mu.second.rewriteBlock(b, ctx, st)

	case opRandomRuntime:
		return mu.rewriteRuntimeCoin(b, ctx, st)
	}

	return false
}

// rewriteRuntimeCoin snapshots the original statements, lets the inner
// mutator rewrite the block, then compiles both paths behind an injected
// per-entry coin flip.
func (mu *Mutator) rewriteRuntimeCoin(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator {
		st.skips++
		return false
	}

	original := cloneStmts(st.fset, b.List)
	if original == nil && len(b.List) > 0 {
		st.skips++
		return false
	}

	if !mu.inner.rewriteBlock(b, ctx, st) {
		return false
	}

	prob := &ast.BasicLit{Kind: token.FLOAT, Value: fmt.Sprintf("%g", mu.p)}
	b.List = []ast.Stmt{&ast.IfStmt{
		Cond: call(ident(coinFunc), prob),
		Body: &ast.BlockStmt{List: b.List},
		Else: &ast.BlockStmt{List: original},
	}}

	st.support |= supportCoin

	return true
}

// EligibleBlocks counts the block-shaped regions one traversal visits, the
// site count the list command reports per file.
func EligibleBlocks(tree *ast.File) int {
	count := 0
	st := &state{}

	rewriteFile(tree, st, func(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
		count++
		return false
	})

	return count
}
