package adapter

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "jolt.dev/pkg/jolt/internal/model"
)

// ProjectAdapter abstracts project-mode discovery: opening a module manifest
// and collecting the source files and local dependencies behind it.
type ProjectAdapter interface {
	// OpenProject resolves the directory of a go.mod into the project's
	// non-test source files, the manifest content itself and the local module
	// paths it depends on. Projects with local dependencies are rejected by
	// the driver: it does not resolve transitive project graphs.
	OpenProject(dir m.Path) (sources []m.Path, manifest []byte, dependentProjects []string, err error)
}

// LocalProjectAdapter reads module manifests straight off the disk.
type LocalProjectAdapter struct {
	fs SourceFSAdapter
}

// NewLocalProjectAdapter constructs a LocalProjectAdapter.
func NewLocalProjectAdapter(fs SourceFSAdapter) *LocalProjectAdapter {
	return &LocalProjectAdapter{fs: fs}
}

// OpenProject collects the project's .go files in lexical order and scans its
// go.mod for replace directives pointing at sibling directories, the marker
// for an in-repo project dependency. Subdirectories carrying their own go.mod
// are separate modules and are left to their own enumeration.
func (a *LocalProjectAdapter) OpenProject(dir m.Path) ([]m.Path, []byte, []string, error) {
	manifest, err := a.fs.ReadFile(a.fs.JoinPath(string(dir), "go.mod"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	dependents := localReplacements(manifest)

	var sources []m.Path

	err = a.fs.Walk(dir, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == string(dir) {
				return nil
			}

			name := info.Name()
			if name == "testdata" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if _, err := a.fs.FileInfo(a.fs.JoinPath(path, "go.mod")); err == nil {
				return filepath.SkipDir
			}

			return nil
		}

		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		sources = append(sources, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("walk project: %w", err)
	}

	return sources, manifest, dependents, nil
}

// localReplacements extracts replace targets that point into the local tree.
func localReplacements(manifest []byte) []string {
	var local []string

	inBlock := false
	scanner := bufio.NewScanner(bytes.NewReader(manifest))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "replace ("):
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		}

		directive := line
		if !inBlock {
			if !strings.HasPrefix(line, "replace ") {
				continue
			}

			directive = strings.TrimPrefix(line, "replace ")
		}

		if target, ok := replaceTarget(directive); ok {
			local = append(local, target)
		}
	}

	return local
}

func replaceTarget(directive string) (string, bool) {
	parts := strings.Split(directive, "=>")
	if len(parts) != 2 {
		return "", false
	}

	target := strings.Fields(strings.TrimSpace(parts[1]))
	if len(target) == 0 {
		return "", false
	}

	// A filesystem replacement starts with ./ or ../ by go.mod convention.
	if strings.HasPrefix(target[0], "./") || strings.HasPrefix(target[0], "../") {
		return target[0], true
	}

	return "", false
}
