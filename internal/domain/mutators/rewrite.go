// Package mutators implements the block-oriented mutation algebra: primitive
// rewrites over Go blocks plus the combinators that compose them.
package mutators

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"math/rand"
)

// blockCtx carries the enclosing-construct facts a primitive needs to decide
// whether a block is eligible.
type blockCtx struct {
	// inLoop is true when the block executes inside a for/range body.
	inLoop bool

	// inHandler is true when the block executes inside a deferred function
	// literal, the closest Go analog of a catch/finally funclet.
	inHandler bool

	// needsTerminator is true when the block must end in a terminating
	// statement (it is a function body with results, or the trailing position
	// of such a body). Rewrites that would strip that property must skip.
	needsTerminator bool
}

// state threads the mutable bookkeeping of one Apply through the traversal:
// the seeded random source, fire/skip counters and the set of runtime support
// declarations the rewrites ended up needing.
type state struct {
	fset       *token.FileSet
	rng        *rand.Rand
	transforms int
	skips      int
	support    supportSet
}

// rewriter applies one mutator to a single block, reporting whether it fired.
type rewriter func(b *ast.BlockStmt, ctx blockCtx, st *state) bool

// rewriteFile walks every function body of the file in post-order, handing
// each block to rw exactly once. Children are visited before their parent so
// freshly synthesized wrappers are never re-entered.
func rewriteFile(file *ast.File, st *state, rw rewriter) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		ctx := blockCtx{needsTerminator: funcNeedsTerminator(fn.Type)}
		walkBlock(fn.Body, ctx, st, rw)
	}
}

func funcNeedsTerminator(t *ast.FuncType) bool {
	return t != nil && t.Results != nil && len(t.Results.List) > 0
}

// walkBlock descends into every statement of b, then applies rw to b itself.
func walkBlock(b *ast.BlockStmt, ctx blockCtx, st *state, rw rewriter) {
	for i, s := range b.List {
		childCtx := ctx
		childCtx.needsTerminator = ctx.needsTerminator && i == len(b.List)-1
		walkStmt(s, childCtx, st, rw)
	}

	rw(b, ctx, st)
}

// walkStmt dispatches the traversal over the statement forms that can contain
// nested blocks. The needsTerminator flag only survives through positions
// where Go's terminating-statement analysis looks: trailing blocks, both arms
// of a trailing if, and the clause bodies of a trailing switch/select.
func walkStmt(s ast.Stmt, ctx blockCtx, st *state, rw rewriter) {
	switch stmt := s.(type) {
	case *ast.BlockStmt:
		walkBlock(stmt, ctx, st, rw)

	case *ast.IfStmt:
		walkExprFuncLits(stmt.Cond, ctx, st, rw)
		walkBlock(stmt.Body, ctx, st, rw)

		if stmt.Else != nil {
			walkStmt(stmt.Else, ctx, st, rw)
		}

	case *ast.ForStmt:
		loopCtx := ctx
		loopCtx.inLoop = true
		loopCtx.needsTerminator = false
		walkBlock(stmt.Body, loopCtx, st, rw)

	case *ast.RangeStmt:
		loopCtx := ctx
		loopCtx.inLoop = true
		loopCtx.needsTerminator = false
		walkBlock(stmt.Body, loopCtx, st, rw)

	case *ast.SwitchStmt:
		walkCaseBodies(stmt.Body, ctx, st, rw)

	case *ast.TypeSwitchStmt:
		walkCaseBodies(stmt.Body, ctx, st, rw)

	case *ast.SelectStmt:
		walkCommBodies(stmt.Body, ctx, st, rw)

	case *ast.LabeledStmt:
		walkStmt(stmt.Stmt, ctx, st, rw)

	case *ast.DeferStmt:
		if lit, ok := stmt.Call.Fun.(*ast.FuncLit); ok && lit.Body != nil {
			handlerCtx := blockCtx{inHandler: true, needsTerminator: funcNeedsTerminator(lit.Type)}
			walkBlock(lit.Body, handlerCtx, st, rw)
		}

	case *ast.GoStmt:
		if lit, ok := stmt.Call.Fun.(*ast.FuncLit); ok && lit.Body != nil {
			walkBlock(lit.Body, blockCtx{needsTerminator: funcNeedsTerminator(lit.Type)}, st, rw)
		}

	case *ast.ExprStmt:
		walkExprFuncLits(stmt.X, ctx, st, rw)

	case *ast.AssignStmt:
		for _, rhs := range stmt.Rhs {
			walkExprFuncLits(rhs, ctx, st, rw)
		}

	case *ast.DeclStmt:
		walkDeclFuncLits(stmt.Decl, ctx, st, rw)

	case *ast.ReturnStmt:
		for _, res := range stmt.Results {
			walkExprFuncLits(res, ctx, st, rw)
		}
	}
}

func walkCaseBodies(body *ast.BlockStmt, ctx blockCtx, st *state, rw rewriter) {
	for _, clause := range body.List {
		cc, ok := clause.(*ast.CaseClause)
		if !ok {
			continue
		}

		for i, s := range cc.Body {
			childCtx := ctx
			childCtx.needsTerminator = ctx.needsTerminator && i == len(cc.Body)-1
			walkStmt(s, childCtx, st, rw)
		}
	}
}

func walkCommBodies(body *ast.BlockStmt, ctx blockCtx, st *state, rw rewriter) {
	for _, clause := range body.List {
		cc, ok := clause.(*ast.CommClause)
		if !ok {
			continue
		}

		for i, s := range cc.Body {
			childCtx := ctx
			childCtx.needsTerminator = ctx.needsTerminator && i == len(cc.Body)-1
			walkStmt(s, childCtx, st, rw)
		}
	}
}

// walkExprFuncLits finds function literals nested in an expression and walks
// their bodies. Literal bodies run in their own frame, so loop and handler
// context do not carry across.
func walkExprFuncLits(e ast.Expr, ctx blockCtx, st *state, rw rewriter) {
	if e == nil {
		return
	}

	ast.Inspect(e, func(n ast.Node) bool {
		lit, ok := n.(*ast.FuncLit)
		if !ok {
			return true
		}

		if lit.Body != nil {
			walkBlock(lit.Body, blockCtx{needsTerminator: funcNeedsTerminator(lit.Type)}, st, rw)
		}

		return false
	})
}

func walkDeclFuncLits(d ast.Decl, ctx blockCtx, st *state, rw rewriter) {
	gd, ok := d.(*ast.GenDecl)
	if !ok {
		return
	}

	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}

		for _, v := range vs.Values {
			walkExprFuncLits(v, ctx, st, rw)
		}
	}
}

// closureSafe reports whether the statements can be moved into a function
// literal without changing meaning: no return, branch, defer or label may
// cross the closure boundary, and no direct recover call may change frame.
// recover only intercepts a panic when the deferred function the panic
// machinery invokes calls it directly; relocating it into a synthesized
// closure silently disarms the handler. Nested function literals keep their
// own statements, so the scan does not descend into them.
func closureSafe(stmts []ast.Stmt) bool {
	safe := true

	inspectStmts(stmts, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.ReturnStmt, *ast.BranchStmt, *ast.DeferStmt, *ast.LabeledStmt:
			safe = false
			return false
		case *ast.FuncLit:
			return false
		case *ast.CallExpr:
			if id, ok := node.Fun.(*ast.Ident); ok && id.Name == "recover" {
				safe = false
				return false
			}
		}

		return true
	})

	return safe
}

// containsPanic reports whether the statements call panic outside nested
// function literals.
func containsPanic(stmts []ast.Stmt) bool {
	found := false

	inspectStmts(stmts, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.CallExpr:
			if id, ok := node.Fun.(*ast.Ident); ok && id.Name == "panic" {
				found = true
				return false
			}
		}

		return true
	})

	return found
}

// containsLabel reports whether the statements define a branch-target label
// outside nested function literals.
func containsLabel(stmts []ast.Stmt) bool {
	found := false

	inspectStmts(stmts, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.LabeledStmt:
			found = true
			return false
		case *ast.FuncLit:
			return false
		}

		return true
	})

	return found
}

func inspectStmts(stmts []ast.Stmt, fn func(ast.Node) bool) {
	for _, s := range stmts {
		ast.Inspect(s, fn)
	}
}

// cloneStmts deep-copies a statement list by printing it and re-parsing the
// result. Returns nil when the round trip fails; callers treat that as an
// ineligible site.
func cloneStmts(fset *token.FileSet, stmts []ast.Stmt) []ast.Stmt {
	var buf bytes.Buffer

	buf.WriteString("package clone\n\nfunc _() {\n")

	for _, s := range stmts {
		if err := printer.Fprint(&buf, fset, s); err != nil {
			return nil
		}

		buf.WriteString("\n")
	}

	buf.WriteString("}\n")

	file, err := parser.ParseFile(token.NewFileSet(), "clone.go", buf.String(), 0)
	if err != nil {
		return nil
	}

	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Body != nil {
			return fn.Body.List
		}
	}

	return nil
}
