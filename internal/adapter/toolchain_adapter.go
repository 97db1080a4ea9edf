package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	m "jolt.dev/pkg/jolt/internal/model"
)

// variantModFile is the manifest materialized for single-file variants: such
// test programs are self-contained, so no dependencies are ever listed.
// Project variants build under their own go.mod instead.
const variantModFile = "module joltvariant\n\ngo 1.21\n"

// ToolchainAdapter abstracts compiling a program into a runnable unit and
// executing its entry point, the two blocking operations of a run.
type ToolchainAdapter interface {
	// CompileAndExecute builds the program, runs it with output discarded and
	// classifies the outcome. The isMutant flag maps failure kinds onto their
	// mutant counterparts so reports can tell test-input problems from
	// backend divergence. timeout bounds the execution phase.
	CompileAndExecute(ctx context.Context, program *m.Program, isMutant bool, timeout time.Duration) m.ExecutionResult

	// Cleanup is the explicit teardown point for the scratch directories
	// accumulated over a run.
	Cleanup()
}

// LocalToolchainAdapter drives the installed Go toolchain through os/exec.
// Each variant is materialized into its own scratch directory; directories
// are retained until Cleanup so a run's compiled units have an explicit
// lifetime boundary instead of leaking by process exit.
type LocalToolchainAdapter struct {
	fs      SourceFSAdapter
	verbose bool

	mu       sync.Mutex
	retained []m.Path
}

// NewLocalToolchainAdapter constructs a LocalToolchainAdapter. With verbose
// set, compile diagnostics and program output are logged instead of silently
// discarded.
func NewLocalToolchainAdapter(fs SourceFSAdapter, verbose bool) *LocalToolchainAdapter {
	return &LocalToolchainAdapter{fs: fs, verbose: verbose}
}

// CompileAndExecute materializes, builds and runs one program.
func (a *LocalToolchainAdapter) CompileAndExecute(ctx context.Context, program *m.Program, isMutant bool, timeout time.Duration) m.ExecutionResult {
	result := a.compileAndExecute(ctx, program, timeout)
	if isMutant {
		result = result.AsMutant()
	}

	return result
}

func (a *LocalToolchainAdapter) compileAndExecute(ctx context.Context, program *m.Program, timeout time.Duration) m.ExecutionResult {
	dir, err := a.materialize(program)
	if err != nil {
		slog.Error("failed to materialize variant", "program", program.Name, "error", err)
		return m.Result(m.NoFileAccess)
	}

	binary := string(a.fs.JoinPath(string(dir), "prog"))

	if res, ok := a.compile(ctx, string(dir), binary, program.Name); !ok {
		return res
	}

	return a.execute(ctx, binary, program.Name, timeout)
}

// materialize writes the program sources and its manifest into a fresh
// scratch directory, retained until Cleanup. Projects keep their package
// layout and their own go.mod so intra-module imports resolve; single-file
// programs collapse to a base name under a synthetic manifest.
func (a *LocalToolchainAdapter) materialize(program *m.Program) (m.Path, error) {
	dir, err := a.fs.CreateTempDir("jolt-variant-*")
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.retained = append(a.retained, dir)
	a.mu.Unlock()

	for _, f := range program.Files {
		dest := a.fs.JoinPath(string(dir), relativeSourcePath(program, f.Path))

		if parent := filepath.Dir(string(dest)); parent != string(dir) {
			if err := a.fs.MkdirAll(m.Path(parent), 0o700); err != nil {
				return "", err
			}
		}

		if err := a.fs.WriteFile(dest, f.Text, 0o600); err != nil {
			return "", err
		}
	}

	manifest := program.Manifest
	if manifest == nil {
		manifest = []byte(variantModFile)
	}

	modPath := a.fs.JoinPath(string(dir), "go.mod")
	if err := a.fs.WriteFile(modPath, manifest, 0o600); err != nil {
		return "", err
	}

	return dir, nil
}

// relativeSourcePath places a source file inside the scratch directory at the
// position it held under the program's own directory. Paths that do not
// resolve under Dir fall back to their base name.
func relativeSourcePath(program *m.Program, path m.Path) string {
	if program.Dir != "" {
		rel, err := filepath.Rel(string(program.Dir), string(path))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
			return rel
		}
	}

	return filepath.Base(string(path))
}

func (a *LocalToolchainAdapter) compile(ctx context.Context, dir, binary, name string) (m.ExecutionResult, bool) {
	cmd := exec.CommandContext(ctx, "go", "build", "-o", binary, ".")
	cmd.Dir = dir

	var diagnostics bytes.Buffer

	cmd.Stdout = &diagnostics
	cmd.Stderr = &diagnostics

	err := cmd.Run()
	if err == nil {
		return m.ExecutionResult{}, true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if a.verbose {
			slog.Debug("compile diagnostics", "program", name, "output", diagnostics.String())
		}

		return m.Result(m.CompilationFailed), false
	}

	// The toolchain itself could not be launched.
	slog.Error("compiler invocation faulted", "program", name, "error", err)

	return m.Result(m.CompilationException), false
}

// execute runs the built binary with its standard output wired to a discard
// sink. The redirect is scoped to the exec.Cmd, so it is released on every
// exit path, including faults. Standard error is captured in a bounded buffer
// purely to classify runtime panics.
func (a *LocalToolchainAdapter) execute(ctx context.Context, binary, name string, timeout time.Duration) m.ExecutionResult {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary)
	cmd.Stdout = io.Discard

	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, remaining: 64 * 1024}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if a.verbose && stderr.Len() > 0 {
		slog.Debug("program stderr", "program", name, "output", stderr.String())
	}

	switch {
	case err == nil:
		// Exited zero: ran to completion but without the sentinel.
		return m.ResultWithValue(m.BadExitCode, 0)

	case runCtx.Err() != nil:
		return m.ResultWithValue(m.RanTooLong, int(elapsed.Milliseconds()))
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// The binary could not be started at all.
		slog.Error("failed to load compiled unit", "program", name, "error", err)
		return m.Result(m.LoadFailed)
	}

	code := exitErr.ExitCode()

	switch {
	case code == m.SentinelExitCode:
		return m.Result(m.RanNormally)
	case code < 0:
		// Terminated by signal.
		return m.Result(m.ThrewException)
	case code == 2 && strings.Contains(stderr.String(), "panic:"):
		return m.Result(m.ThrewException)
	default:
		return m.ResultWithValue(m.BadExitCode, code)
	}
}

// Cleanup removes every scratch directory retained during the run.
func (a *LocalToolchainAdapter) Cleanup() {
	a.mu.Lock()
	retained := a.retained
	a.retained = nil
	a.mu.Unlock()

	for _, dir := range retained {
		if err := a.fs.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove scratch directory", "dir", dir, "error", err)
		}
	}
}

// limitedWriter keeps classification buffers bounded against runaway mutant
// output.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.remaining <= 0 {
		return len(p), nil
	}

	chunk := p
	if len(chunk) > lw.remaining {
		chunk = chunk[:lw.remaining]
	}

	n, err := lw.w.Write(chunk)
	lw.remaining -= n

	if err != nil {
		return n, err
	}

	return len(p), nil
}
