package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jolt.dev/pkg/jolt/internal/model"
)

func TestReportStore_SaveAndLoadRun(t *testing.T) {
	store, err := NewReportStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.AppendFile(m.FileReport{Name: "ok.go", Verdict: "PASS"}))
	require.NoError(t, store.AppendFile(m.FileReport{
		Name:    "bad.go",
		Verdict: "FAIL",
		Reason:  "mutant returned unexpected exit code (3)",
		Variants: []m.VariantReport{
			{Mutator: "guardedWrap", Transforms: 1, Result: "mutant returned unexpected exit code (3)"},
		},
	}))

	dir := t.TempDir()

	path, err := store.SaveRun(m.Path(dir), m.RunReport{
		Seed:      42,
		StartedAt: "2026-08-26T10:00:00Z",
		Totals:    m.ReportTotals{Files: 2, Passed: 1, Failed: 1},
	})
	require.NoError(t, err)
	assert.Contains(t, string(path), "run-")
	assert.Equal(t, ".yaml", filepath.Ext(string(path)))

	loaded, err := store.LoadRun(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), loaded.Seed)
	assert.Equal(t, "2026-08-26T10:00:00Z", loaded.StartedAt)
	assert.Equal(t, 2, loaded.Totals.Files)
	require.Len(t, loaded.Files, 2, "buffered per-file reports are folded into the document")
	assert.Equal(t, "ok.go", loaded.Files[0].Name)
	assert.Equal(t, "bad.go", loaded.Files[1].Name)
	require.Len(t, loaded.Files[1].Variants, 1)
	assert.Equal(t, "guardedWrap", loaded.Files[1].Variants[0].Mutator)
}

func TestReportStore_SaveRunCreatesDirectory(t *testing.T) {
	store, err := NewReportStore()
	require.NoError(t, err)
	defer store.Close()

	dir := filepath.Join(t.TempDir(), "nested", "reports")

	path, err := store.SaveRun(m.Path(dir), m.RunReport{Seed: 1})
	require.NoError(t, err)

	_, err = os.Stat(string(path))
	require.NoError(t, err)
}

func TestReportStore_LoadRunErrors(t *testing.T) {
	store, err := NewReportStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.LoadRun("does/not/exist.yaml")
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("files: notalist\n"), 0o600))

	_, err = store.LoadRun(m.Path(bad))
	require.Error(t, err)
}
