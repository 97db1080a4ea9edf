// Package model defines the data structures for mutation stress runs.
package model

import (
	"go/ast"
	"go/token"
)

// Path represents a file system path.
type Path string

// SourceFile is one compilation unit of a program under test: its on-disk
// identity, raw text and parsed tree.
type SourceFile struct {
	Path Path
	Text []byte
	Tree *ast.File
}

// Program is a parsed test program: a single self-contained file, or the set
// of package files of a project in project mode. A Program is immutable once
// built; mutation re-parses the stored text and produces a new Program.
type Program struct {
	// Name identifies the program in reports (base name of the file or
	// project directory).
	Name string

	// Dir is the directory the program was loaded from. Project mode uses it
	// to locate the module manifest.
	Dir Path

	Files   []SourceFile
	FileSet *token.FileSet

	// Manifest is the project's own go.mod content, nil for single-file
	// programs. Variants of a project build under the real manifest so
	// intra-module imports keep resolving.
	Manifest []byte

	// DependentModules lists local module paths a project depends on via
	// replace directives. Project mode rejects programs that have any: the
	// driver does not resolve transitive project graphs.
	DependentModules []string
}

// Size returns the aggregate textual size of the program in bytes.
func (p *Program) Size() int {
	total := 0
	for _, f := range p.Files {
		total += len(f.Text)
	}

	return total
}

// MainPath returns the path of the first source file, which by loader
// convention holds the entry point.
func (p *Program) MainPath() Path {
	if len(p.Files) == 0 {
		return ""
	}

	return p.Files[0].Path
}
