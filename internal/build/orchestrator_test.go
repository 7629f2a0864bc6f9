//go:build !windows

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/launchpad/internal/source"
	"github.com/roach88/launchpad/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.py")
	require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0o644))
	return path
}

func newTestOrchestrator(t *testing.T, body string, opts ...Option) *Orchestrator {
	t.Helper()
	tmpl := MustParseTemplate(testutil.PackagerTemplate(t, body))
	opts = append([]Option{WithLogger(quietLogger()), WithTempRoot(t.TempDir())}, opts...)
	return NewOrchestrator(tmpl, opts...)
}

// processAlive reports whether pid names a live, non-zombie process.
func processAlive(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return !os.IsNotExist(err)
	}
	s := string(data)
	fields := strings.Fields(s[strings.LastIndexByte(s, ')')+1:])
	return len(fields) == 0 || fields[0] != "Z"
}

func TestBuild_Success(t *testing.T) {
	o := newTestOrchestrator(t, testutil.PackagerOK)
	out := filepath.Join(t.TempDir(), "exe_programs", "snake")

	result, err := o.Build(context.Background(), "snake", writeSource(t), out)
	require.NoError(t, err)
	require.NotNil(t, result)

	abs, _ := filepath.Abs(out)
	assert.Equal(t, abs, result.ArtifactDir)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, string(result.Stdout), "building snake")
	assert.FileExists(t, filepath.Join(out, "snake"))
}

func TestBuild_RemovesTempDir(t *testing.T) {
	tempRoot := t.TempDir()
	o := newTestOrchestrator(t, `echo "$3" > "$2/tempdir.txt"`+"\n", WithTempRoot(tempRoot))
	out := t.TempDir()

	_, err := o.Build(context.Background(), "snake", writeSource(t), out)
	require.NoError(t, err)

	recorded, err := os.ReadFile(filepath.Join(out, "tempdir.txt"))
	require.NoError(t, err)
	tempDir := strings.TrimSpace(string(recorded))
	assert.Contains(t, filepath.Base(tempDir), "launchpad-snake-")
	assert.NoDirExists(t, tempDir)

	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_NonZeroExit(t *testing.T) {
	o := newTestOrchestrator(t, testutil.PackagerFails)

	result, err := o.Build(context.Background(), "snake", writeSource(t), t.TempDir())
	require.Error(t, err)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindNonZeroExit, be.Kind)
	assert.Equal(t, 3, be.ExitCode)
	assert.Equal(t, "ModuleNotFoundError: No module named 'pygame'", be.Summary)
	assert.Equal(t, "snake", be.Program)

	require.NotNil(t, result, "output is kept for failed builds")
	assert.Contains(t, string(result.Stderr), "Traceback")
}

func TestBuild_NonZeroExitStdoutFallback(t *testing.T) {
	o := newTestOrchestrator(t, "echo 'fatal: spec file invalid'\nexit 1\n")

	_, err := o.Build(context.Background(), "snake", writeSource(t), t.TempDir())
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindNonZeroExit, be.Kind)
	assert.Equal(t, "fatal: spec file invalid", be.Summary)
}

func TestBuild_TimeoutKillsProcessGroup(t *testing.T) {
	o := newTestOrchestrator(t, testutil.PackagerHangs, WithTimeout(500*time.Millisecond))
	out := t.TempDir()

	start := time.Now()
	result, err := o.Build(context.Background(), "snake", writeSource(t), out)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, elapsed, 15*time.Second)
	require.NotNil(t, result)

	data, readErr := os.ReadFile(filepath.Join(out, "child.pid"))
	require.NoError(t, readErr)
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, convErr)

	assert.Eventually(t, func() bool { return !processAlive(pid) },
		5*time.Second, 50*time.Millisecond, "packager child %d survived the timeout", pid)
}

func TestBuild_ToolInvocationFailed(t *testing.T) {
	tmpl := MustParseTemplate(`/nonexistent/packager {source_file} --name {program_name}`)
	o := NewOrchestrator(tmpl, WithLogger(quietLogger()), WithTempRoot(t.TempDir()))

	result, err := o.Build(context.Background(), "snake", writeSource(t), t.TempDir())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, KindToolInvocationFailed, KindOf(err))
}

func TestBuild_PathsWithSpaces(t *testing.T) {
	o := newTestOrchestrator(t, testutil.PackagerOK)

	srcDir := filepath.Join(t.TempDir(), "my programs")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	src := filepath.Join(srcDir, "source.py")
	require.NoError(t, os.WriteFile(src, []byte("x = 1\n"), 0o644))
	out := filepath.Join(t.TempDir(), "exe dir", "snake")

	_, err := o.Build(context.Background(), "snake", src, out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "snake"))
}

func TestBuild_ConcurrentBuildsUseDistinctTempDirs(t *testing.T) {
	o := newTestOrchestrator(t, `echo "$3" > "$2/tempdir.txt"`+"\nsleep 0.2\n")
	src := writeSource(t)

	names := []string{"alpha", "beta", "gamma"}
	outs := make([]string, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		outs[i] = t.TempDir()
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = o.Build(context.Background(), name, src, outs[i])
		}(i, name)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range names {
		require.NoError(t, errs[i])
		data, err := os.ReadFile(filepath.Join(outs[i], "tempdir.txt"))
		require.NoError(t, err)
		dir := strings.TrimSpace(string(data))
		assert.False(t, seen[dir], "temp dir %s reused", dir)
		seen[dir] = true
	}
}

type rejectAll struct{ called bool }

func (r *rejectAll) Check(context.Context, string) (*source.SyntaxError, error) {
	r.called = true
	return &source.SyntaxError{Message: "invalid syntax", Line: 1}, nil
}

func TestBuild_SourceRecheck(t *testing.T) {
	fe := &rejectAll{}
	o := newTestOrchestrator(t, testutil.PackagerOK, WithSourceRecheck(fe))
	out := t.TempDir()

	_, err := o.Build(context.Background(), "snake", writeSource(t), out)
	require.Error(t, err)
	assert.True(t, fe.called)
	assert.Equal(t, KindToolInvocationFailed, KindOf(err))

	var syntaxErr *source.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
	assert.NoFileExists(t, filepath.Join(out, "snake"), "packager must not run")
}

func TestBuild_ParentCancellation(t *testing.T) {
	o := newTestOrchestrator(t, testutil.PackagerHangs)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	_, err := o.Build(ctx, "snake", writeSource(t), t.TempDir())
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, context.Canceled)
}
