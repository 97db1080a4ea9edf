package adapter

import (
	"os"
	"path/filepath"

	m "jolt.dev/pkg/jolt/internal/model"
)

// SourceFSAdapter abstracts filesystem operations the domain layer relies on
// when discovering test programs and materializing variants. It hides direct
// `os` access so driver logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Walk traverses the provided root path in lexical order. When recursive
	// is false the implementation limits itself to the root directory.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path so the domain can check existence
	// or distinguish files from directories.
	FileInfo(path m.Path) (os.FileInfo, error)

	// CreateTempDir creates a scratch directory for building one variant.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// MkdirAll creates a directory along with any missing parents.
	MkdirAll(path m.Path, perm os.FileMode) error

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape of filepath.Walk. It is defined
// here to avoid leaking the standard-library type into the domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the concrete implementation backed by os and
// path/filepath.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into
// subdirectories. filepath.Walk visits entries in lexical order, which gives
// the stable enumeration recursive runs rely on.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// FileInfo stats the path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// CreateTempDir creates a scratch directory under the system temp root.
func (a *LocalSourceFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	dir, err := os.MkdirTemp("", pattern)

	return m.Path(dir), err
}

// RemoveAll removes the directory tree at path.
func (a *LocalSourceFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// WriteFile writes content with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// MkdirAll creates the directory path and any missing parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path, perm os.FileMode) error {
	return os.MkdirAll(string(path), perm)
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
