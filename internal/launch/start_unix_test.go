//go:build !windows

package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExec(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), mode))
	return p
}

func launchCode(t *testing.T, path string) int {
	t.Helper()
	code, err := startDetached(path)
	require.NoError(t, err)
	return code
}

func TestStartDetached_Runs(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := writeExec(t, dir, "snake", "#!/bin/sh\ntouch \""+marker+"\"\n", 0o755)

	code := launchCode(t, script)
	assert.True(t, Succeeded(code))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartDetached_DoesNotWait(t *testing.T) {
	dir := t.TempDir()
	script := writeExec(t, dir, "slow", "#!/bin/sh\nsleep 2\n", 0o755)

	start := time.Now()
	code := launchCode(t, script)
	assert.True(t, Succeeded(code))
	assert.Less(t, time.Since(start), time.Second)
}

func TestStartDetached_Codes(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, 2, launchCode(t, filepath.Join(dir, "missing")))

	noExec := writeExec(t, dir, "noexec", "#!/bin/sh\n", 0o644)
	if os.Geteuid() != 0 {
		assert.Equal(t, 5, launchCode(t, noExec))
	}

	garbage := writeExec(t, dir, "garbage", "\x00\x01\x02 not a program", 0o755)
	assert.Equal(t, 11, launchCode(t, garbage))
}

func TestLauncher_RealMissingArtifact(t *testing.T) {
	l := New(WithLogger(testLogger()))
	err := l.Launch(context.Background(), filepath.Join(t.TempDir(), "snake"))

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, FileNotFound, le.Kind)
	assert.Equal(t, "file-not-found", le.Meaning)
}

func TestStartDetached_SymlinkLoop(t *testing.T) {
	dir := t.TempDir()
	loop := filepath.Join(dir, "loop")
	require.NoError(t, os.Symlink(loop, loop))

	assert.Equal(t, 3, launchCode(t, loop))

	l := New(WithLogger(testLogger()))
	err := l.Launch(context.Background(), loop)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, PathNotFound, le.Kind)
}

func TestStartDetached_NameTooLong(t *testing.T) {
	long := filepath.Join(t.TempDir(), strings.Repeat("a", 300))
	assert.Equal(t, 3, launchCode(t, long))
}

func TestStartFailure(t *testing.T) {
	code, err := startFailure("/x/snake", &os.PathError{Op: "fork/exec", Path: "/x/snake", Err: syscall.ENOTDIR})
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	code, err = startFailure("/x/snake", &os.PathError{Op: "fork/exec", Path: "/x/snake", Err: syscall.EIO})
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Zero(t, code)
	assert.False(t, Succeeded(code))

	_, err = startFailure("/x/snake", errors.New("boom"))
	assert.EqualError(t, err, "start /x/snake: boom")
}
