package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jolt.dev/pkg/jolt/internal/adapter"
	m "jolt.dev/pkg/jolt/internal/model"
)

func newTestLoader() Loader {
	fs := adapter.NewLocalSourceFSAdapter()
	return NewLoader(fs, adapter.NewLocalGoFileAdapter(), adapter.NewLocalProjectAdapter(fs))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestLoader_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"prog.go": validMain})

	programs, err := newTestLoader().Load(m.Path(filepath.Join(dir, "prog.go")), false, false)
	require.NoError(t, err)
	require.Len(t, programs, 1)

	program := programs[0]
	assert.Equal(t, "prog.go", program.Name)
	assert.Equal(t, m.Path(dir), program.Dir)
	require.Len(t, program.Files, 1)
	assert.NotNil(t, program.Files[0].Tree)
	assert.Equal(t, []byte(validMain), program.Files[0].Text)
}

func TestLoader_SingleFile_ParseFailureDefersToBaseline(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"broken.go": "package main\n\nfunc main() {\n"})

	programs, err := newTestLoader().Load(m.Path(filepath.Join(dir, "broken.go")), false, false)
	require.NoError(t, err, "unparsable inputs load; the baseline compile records the failure")
	require.Len(t, programs, 1)
	assert.Nil(t, programs[0].Files[0].Tree)
	assert.NotEmpty(t, programs[0].Files[0].Text)
}

func TestLoader_MissingInput(t *testing.T) {
	_, err := newTestLoader().Load("does/not/exist.go", false, false)
	require.Error(t, err)
}

func TestLoader_DirectoryRequiresRecursive(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestLoader().Load(m.Path(dir), false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--recursive")
}

func TestLoader_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.go":               validMain,
		"sub/b.go":           validMain,
		"a_test.go":          validMain,
		"notes.txt":          "not go",
		"testdata/fix.go":    validMain,
		".hidden/skip.go":    validMain,
		"sub/deep/c_ok.go":   validMain,
		"sub/deep/d_test.go": validMain,
	})

	programs, err := newTestLoader().Load(m.Path(dir), true, false)
	require.NoError(t, err)

	var names []string
	for _, p := range programs {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"a.go", "b.go", "c_ok.go"}, names, "lexical order, test files and special dirs skipped")
}

func TestLoader_Projects(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"solo/go.mod":    "module solo\n\ngo 1.21\n",
		"solo/main.go":   validMain,
		"solo/extra.go":  "package main\n\nfunc helper() {}\n",
		"linked/go.mod":  "module linked\n\ngo 1.21\n\nreplace shared => ../shared\n",
		"linked/main.go": validMain,
	})

	programs, err := newTestLoader().Load(m.Path(dir), true, true)
	require.NoError(t, err)
	require.Len(t, programs, 2)

	byName := make(map[string]*m.Program)
	for _, p := range programs {
		byName[p.Name] = p
	}

	solo := byName["solo"]
	require.NotNil(t, solo)
	assert.Len(t, solo.Files, 2)
	assert.Empty(t, solo.DependentModules)
	assert.Equal(t, "module solo\n\ngo 1.21\n", string(solo.Manifest), "the project's own manifest is kept for materialization")

	linked := byName["linked"]
	require.NotNil(t, linked)
	assert.Equal(t, []string{"../shared"}, linked.DependentModules)
}
