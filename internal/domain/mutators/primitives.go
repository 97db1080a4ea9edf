package mutators

import (
	"go/ast"
	"go/token"
)

// PrimitiveKind names a concrete block rewrite rule.
type PrimitiveKind int

// Primitive rewrite rules. The guarded-region rules realize try/catch/finally
// shapes as immediately-invoked function literals with defer/recover, the
// closest Go analog of funclets; the closure boundary imposes the same
// control-flow restrictions funclets do.
const (
	// GuardedWrap turns {S} into an invoked closure that recovers and
	// re-panics: catch-the-sentinel-and-rethrow.
	GuardedWrap PrimitiveKind = iota

	// EmptyTryFinally turns {S} into an invoked closure whose deferred
	// function runs S: the body executes in the finalizer.
	EmptyTryFinally

	// TryEmptyFinally turns {S} into an invoked closure running S after
	// registering an empty deferred function.
	TryEmptyFinally

	// MoveIntoCatch reroutes S through a recover handler reached by panicking
	// a sentinel, guarded by a stack-headroom probe that falls back to the
	// unmutated path.
	MoveIntoCatch

	// SplitBlock nests the tail of a multi-statement block, from a randomly
	// chosen interior point, into an inner block.
	SplitBlock

	// NormalizeBlock wraps bare expression and return statements into
	// explicit blocks so later block-oriented rewrites see more sites.
	NormalizeBlock

	// EmptyBlocks inserts a bare {} at a randomly chosen point of the block.
	EmptyBlocks

	// StructRun reroutes the block body through a method on a padded struct
	// receiver, stressing struct passing in the backend.
	StructRun
)

var primitiveNames = map[PrimitiveKind]string{
	GuardedWrap:     "guardedWrap",
	EmptyTryFinally: "emptyTryFinally",
	TryEmptyFinally: "tryEmptyFinally",
	MoveIntoCatch:   "moveIntoCatch",
	SplitBlock:      "splitBlock",
	NormalizeBlock:  "normalizeBlock",
	EmptyBlocks:     "emptyBlocks",
	StructRun:       "structRun",
}

func (k PrimitiveKind) String() string {
	if name, ok := primitiveNames[k]; ok {
		return name
	}

	return "unknown"
}

// applyPrimitive rewrites a single block in place. A true return means the
// rule fired; precondition violations bump the skip counter instead.
func applyPrimitive(kind PrimitiveKind, b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	switch kind {
	case GuardedWrap:
		return applyGuardedWrap(b, ctx, st)
	case EmptyTryFinally:
		return applyEmptyTryFinally(b, ctx, st)
	case TryEmptyFinally:
		return applyTryEmptyFinally(b, ctx, st)
	case MoveIntoCatch:
		return applyMoveIntoCatch(b, ctx, st)
	case SplitBlock:
		return applySplitBlock(b, ctx, st)
	case NormalizeBlock:
		return applyNormalizeBlock(b, ctx, st)
	case EmptyBlocks:
		return applyEmptyBlocks(b, ctx, st)
	case StructRun:
		return applyStructRun(b, ctx, st)
	}

	return false
}

// { func() { defer func() { if r := recover(); r != nil { panic(r) } }(); S }() }
func applyGuardedWrap(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator || !closureSafe(b.List) {
		st.skips++
		return false
	}

	body := append([]ast.Stmt{deferStmt(recoverRethrow())}, b.List...)
	b.List = []ast.Stmt{invokedClosure(body)}
	st.transforms++

	return true
}

// { func() { defer func() { S }() }() }
func applyEmptyTryFinally(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator || !closureSafe(b.List) || containsPanic(b.List) {
		st.skips++
		return false
	}

	b.List = []ast.Stmt{invokedClosure([]ast.Stmt{deferStmt(b.List)})}
	st.transforms++

	return true
}

// { func() { defer func() {}(); S }() }
func applyTryEmptyFinally(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator || !closureSafe(b.List) {
		st.skips++
		return false
	}

	body := append([]ast.Stmt{deferStmt(nil)}, b.List...)
	b.List = []ast.Stmt{invokedClosure(body)}
	st.transforms++

	return true
}

// Rewrites {S} into:
//
//	if __joltHeadroom() {
//	    __joltDepth++
//	    func() {
//	        defer func() {
//	            __joltDepth--
//	            if _, ok := recover().(__joltSentinel); !ok {
//	                panic("lost sentinel")
//	            }
//	            S
//	        }()
//	        panic(__joltSentinel{})
//	    }()
//	} else {
//	    S
//	}
func applyMoveIntoCatch(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	eligible := !ctx.inLoop && !ctx.inHandler && !ctx.needsTerminator &&
		closureSafe(b.List) && !containsPanic(b.List)
	if !eligible {
		st.skips++
		return false
	}

	fallback := cloneStmts(st.fset, b.List)
	if fallback == nil && len(b.List) > 0 {
		st.skips++
		return false
	}

	handler := []ast.Stmt{
		decrementStmt(ident(depthVar)),
		&ast.IfStmt{
			Init: &ast.AssignStmt{
				Lhs: []ast.Expr{ident("_"), ident("ok")},
				Tok: token.DEFINE,
				Rhs: []ast.Expr{&ast.TypeAssertExpr{
					X:    call(ident("recover")),
					Type: ident(sentinelType),
				}},
			},
			Cond: &ast.UnaryExpr{Op: token.NOT, X: ident("ok")},
			Body: &ast.BlockStmt{List: []ast.Stmt{
				exprStmt(call(ident("panic"), stringLit("lost sentinel"))),
			}},
		},
	}
	handler = append(handler, b.List...)

	throwAndCatch := []ast.Stmt{
		incrementStmt(ident(depthVar)),
		invokedClosure([]ast.Stmt{
			deferStmt(handler),
			exprStmt(call(ident("panic"), &ast.CompositeLit{Type: ident(sentinelType)})),
		}),
	}

	b.List = []ast.Stmt{&ast.IfStmt{
		Cond: call(ident(headroomFunc)),
		Body: &ast.BlockStmt{List: throwAndCatch},
		Else: &ast.BlockStmt{List: fallback},
	}}

	st.support |= supportSentinel
	st.transforms++

	return true
}

// {a; b; c} becomes {a; {b; c}} at a randomly chosen interior point. Blocks
// defining a label are skipped: nesting could separate the label from its
// jump targets.
func applySplitBlock(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if len(b.List) < 2 || containsLabel(b.List) {
		st.skips++
		return false
	}

	point := 1 + st.rng.Intn(len(b.List)-1)

	tail := &ast.BlockStmt{List: append([]ast.Stmt{}, b.List[point:]...)}
	b.List = append(b.List[:point:point], tail)
	st.transforms++

	return true
}

// Wraps every bare expression or return statement of the block into its own
// explicit block. A statement that is already the sole member of a block is
// left alone.
func applyNormalizeBlock(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if len(b.List) == 1 {
		st.skips++
		return false
	}

	fired := false

	for i, s := range b.List {
		switch s.(type) {
		case *ast.ExprStmt, *ast.ReturnStmt:
			b.List[i] = &ast.BlockStmt{List: []ast.Stmt{s}}
			st.transforms++

			fired = true
		}
	}

	return fired
}

// Inserts a bare {} at a random point. The insertion never lands after the
// final statement so terminating tails stay terminating.
func applyEmptyBlocks(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator && len(b.List) == 0 {
		st.skips++
		return false
	}

	point := 0
	if len(b.List) > 0 {
		point = st.rng.Intn(len(b.List))
	}

	empty := &ast.BlockStmt{}
	b.List = append(b.List[:point:point], append([]ast.Stmt{empty}, b.List[point:]...)...)
	st.transforms++

	return true
}

// { __joltRunner{}.run(func() { S }) }
func applyStructRun(b *ast.BlockStmt, ctx blockCtx, st *state) bool {
	if ctx.needsTerminator || !closureSafe(b.List) {
		st.skips++
		return false
	}

	runner := &ast.CompositeLit{Type: ident(runnerType)}
	callRun := call(
		&ast.SelectorExpr{X: runner, Sel: ident("run")},
		&ast.FuncLit{
			Type: &ast.FuncType{Params: &ast.FieldList{}},
			Body: &ast.BlockStmt{List: b.List},
		},
	)

	b.List = []ast.Stmt{exprStmt(callRun)}
	st.support |= supportRunner
	st.transforms++

	return true
}

// AST construction helpers. Synthesized nodes carry no positions; the printer
// lays them out and the final text is gofmt-normalized afterwards.

func ident(name string) *ast.Ident {
	return ast.NewIdent(name)
}

func call(fun ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fun, Args: args}
}

func exprStmt(e ast.Expr) ast.Stmt {
	return &ast.ExprStmt{X: e}
}

func stringLit(s string) ast.Expr {
	return &ast.BasicLit{Kind: token.STRING, Value: `"` + s + `"`}
}

func funcLit(body []ast.Stmt) *ast.FuncLit {
	return &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{List: body},
	}
}

// invokedClosure builds `func() { body }()` as a statement.
func invokedClosure(body []ast.Stmt) ast.Stmt {
	return exprStmt(call(funcLit(body)))
}

// deferStmt builds `defer func() { body }()`.
func deferStmt(body []ast.Stmt) ast.Stmt {
	return &ast.DeferStmt{Call: call(funcLit(body))}
}

// recoverRethrow builds `if r := recover(); r != nil { panic(r) }`.
func recoverRethrow() []ast.Stmt {
	return []ast.Stmt{&ast.IfStmt{
		Init: &ast.AssignStmt{
			Lhs: []ast.Expr{ident("r")},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{call(ident("recover"))},
		},
		Cond: &ast.BinaryExpr{X: ident("r"), Op: token.NEQ, Y: ident("nil")},
		Body: &ast.BlockStmt{List: []ast.Stmt{
			exprStmt(call(ident("panic"), ident("r"))),
		}},
	}}
}

func incrementStmt(x ast.Expr) ast.Stmt {
	return &ast.IncDecStmt{X: x, Tok: token.INC}
}

func decrementStmt(x ast.Expr) ast.Stmt {
	return &ast.IncDecStmt{X: x, Tok: token.DEC}
}
