// Package domain contains the mutation stress workflow: program loading, the
// per-file driver state machine and run-wide accounting.
package domain

import (
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"jolt.dev/pkg/jolt/internal/adapter"
	m "jolt.dev/pkg/jolt/internal/model"
)

// Loader turns an input path into one or more in-memory Programs.
type Loader interface {
	// Load resolves path into programs. Single-file mode parses exactly one
	// compilation unit; recursive mode enumerates matching test files (or
	// project manifests when projectMode) in stable lexical order.
	Load(path m.Path, recursive, projectMode bool) ([]*m.Program, error)
}

type localLoader struct {
	fs       adapter.SourceFSAdapter
	goFiles  adapter.GoFileAdapter
	projects adapter.ProjectAdapter
}

// NewLoader constructs a Loader over the provided adapters.
func NewLoader(fs adapter.SourceFSAdapter, goFiles adapter.GoFileAdapter, projects adapter.ProjectAdapter) Loader {
	return &localLoader{fs: fs, goFiles: goFiles, projects: projects}
}

// Load discovers and parses programs under path.
func (l *localLoader) Load(path m.Path, recursive, projectMode bool) ([]*m.Program, error) {
	info, err := l.fs.FileInfo(path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	if !info.IsDir() {
		program, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}

		return []*m.Program{program}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("input %s is a directory; pass --recursive to enumerate it", path)
	}

	if projectMode {
		return l.loadProjects(path)
	}

	return l.loadFiles(path)
}

// loadFile parses one self-contained test file. A file that fails to parse is
// still returned: the baseline compile records the authoritative failure.
func (l *localLoader) loadFile(path m.Path) (*m.Program, error) {
	text, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fset := token.NewFileSet()

	tree, err := l.goFiles.Parse(fset, string(path), text)
	if err != nil {
		slog.Warn("input does not parse; deferring to baseline compile", "path", path, "error", err)

		tree = nil
	}

	return &m.Program{
		Name:    filepath.Base(string(path)),
		Dir:     m.Path(filepath.Dir(string(path))),
		FileSet: fset,
		Files:   []m.SourceFile{{Path: path, Text: text, Tree: tree}},
	}, nil
}

// loadFiles enumerates test files under root, one program per file.
func (l *localLoader) loadFiles(root m.Path) ([]*m.Program, error) {
	var programs []*m.Program

	err := l.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if path != string(root) && (name == "testdata" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}

			return nil
		}

		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		program, err := l.loadFile(m.Path(path))
		if err != nil {
			return err
		}

		programs = append(programs, program)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", root, err)
	}

	return programs, nil
}

// loadProjects enumerates module manifests under root, one program per
// project. Local dependencies are recorded on the program so the driver can
// reject projects it will not resolve transitively.
func (l *localLoader) loadProjects(root m.Path) ([]*m.Program, error) {
	var dirs []m.Path

	err := l.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Base(path) == "go.mod" {
			dirs = append(dirs, m.Path(filepath.Dir(path)))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate projects under %s: %w", root, err)
	}

	var programs []*m.Program

	for _, dir := range dirs {
		program, err := l.loadProject(dir)
		if err != nil {
			return nil, err
		}

		programs = append(programs, program)
	}

	return programs, nil
}

func (l *localLoader) loadProject(dir m.Path) (*m.Program, error) {
	sources, manifest, dependents, err := l.projects.OpenProject(dir)
	if err != nil {
		return nil, fmt.Errorf("open project %s: %w", dir, err)
	}

	program := &m.Program{
		Name:             filepath.Base(string(dir)),
		Dir:              dir,
		FileSet:          token.NewFileSet(),
		Manifest:         manifest,
		DependentModules: dependents,
	}

	for _, src := range sources {
		text, err := l.fs.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}

		tree, err := l.goFiles.Parse(program.FileSet, string(src), text)
		if err != nil {
			slog.Warn("project file does not parse; deferring to baseline compile", "path", src, "error", err)

			tree = nil
		}

		program.Files = append(program.Files, m.SourceFile{Path: src, Text: text, Tree: tree})
	}

	return program, nil
}
