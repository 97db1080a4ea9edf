// Package adapter contains infrastructure adapters for the jolt CLI: Go
// parsing, toolchain execution, filesystem access and report persistence.
package adapter

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can
// focus on mutation rules while delegating front-end details to an
// infrastructure component.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and optional source
	// bytes.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// HasMainEntry reports whether the file declares the conventional test
	// program entry point, func main in package main.
	HasMainEntry(file *ast.File) bool
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// HasMainEntry reports whether file is a package main unit declaring main().
func (a *LocalGoFileAdapter) HasMainEntry(file *ast.File) bool {
	if file.Name.Name != "main" {
		return false
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}

		if fn.Name.Name == "main" {
			return true
		}
	}

	return false
}
