package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func TestExecutableSuffix(t *testing.T) {
	assert.Equal(t, ".exe", ExecutableSuffix("windows"))
	assert.Equal(t, "", ExecutableSuffix("linux"))
	assert.Equal(t, "", ExecutableSuffix("darwin"))
}

func TestLocate(t *testing.T) {
	base := t.TempDir()
	loc := NewLocatorWith(base, ".exe", DefaultStrategies(base))
	outDir := filepath.Join(base, "snake")
	writeFile(t, filepath.Join(outDir, "snake.exe"), "binary")

	path, err := loc.Locate("snake", outDir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "snake.exe", filepath.Base(path))
}

func TestLocate_NoGuessing(t *testing.T) {
	base := t.TempDir()
	loc := NewLocatorWith(base, ".exe", DefaultStrategies(base))
	outDir := filepath.Join(base, "snake")
	writeFile(t, filepath.Join(outDir, "Snake.exe"), "binary")
	writeFile(t, filepath.Join(outDir, "snake"), "binary")
	writeFile(t, filepath.Join(outDir, "build", "snake.exe"), "nested")
	writeFile(t, filepath.Join(base, "snake.exe"), "stray")

	_, err := loc.Locate("snake", outDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "snake", nf.Program)
	assert.Len(t, nf.Tried, 1)
}

func TestLocate_DirectoryIsNotArtifact(t *testing.T) {
	base := t.TempDir()
	loc := NewLocatorWith(base, "", DefaultStrategies(base))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "snake", "snake"), 0o755))

	_, err := loc.Locate("snake", filepath.Join(base, "snake"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReference_BaseRelative(t *testing.T) {
	base := t.TempDir()
	loc := NewLocator(base)
	exe := filepath.Join(base, "snake", "snake")
	writeFile(t, exe, "binary")

	ref, err := loc.StoreReference(exe)
	require.NoError(t, err)
	assert.Equal(t, "snake/snake", ref)
}

func TestStoreReference_AbsoluteFallback(t *testing.T) {
	base := t.TempDir()
	elsewhere := t.TempDir()
	strategies := []Strategy{
		RelativeTo("base", func() (string, error) { return base, nil }),
		Absolute(),
	}
	loc := NewLocatorWith(base, "", strategies)
	exe := filepath.Join(elsewhere, "snake")
	writeFile(t, exe, "binary")

	ref, err := loc.StoreReference(exe)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(filepath.FromSlash(ref)))

	got, err := loc.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, canonical(exe), canonical(got))
}

func TestStoreReference_RejectsRelative(t *testing.T) {
	loc := NewLocator(t.TempDir())
	_, err := loc.StoreReference("snake/snake")
	assert.Error(t, err)
}

func TestResolve_RoundTrip(t *testing.T) {
	base := t.TempDir()
	loc := NewLocator(base)

	names := []string{"snake", "tetris_2", "game"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			exe := filepath.Join(base, name, loc.ExecutableName(name))
			writeFile(t, exe, name)

			ref, err := loc.StoreReference(exe)
			require.NoError(t, err)

			got, err := loc.Resolve(ref)
			require.NoError(t, err)
			assert.Equal(t, canonical(exe), canonical(got))
		})
	}
}

func TestResolve_Missing(t *testing.T) {
	base := t.TempDir()
	loc := NewLocator(base)

	_, err := loc.Resolve("ghost/ghost")
	require.Error(t, err)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost/ghost", nf.Ref)
	assert.NotEmpty(t, nf.Tried)
	assert.Contains(t, err.Error(), "ghost/ghost")
}

func TestResolve_Empty(t *testing.T) {
	loc := NewLocator(t.TempDir())
	_, err := loc.Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_BaseSymlink(t *testing.T) {
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	loc := NewLocator(link)
	exe := filepath.Join(target, "snake", "snake")
	writeFile(t, exe, "binary")

	ref, err := loc.StoreReference(exe)
	require.NoError(t, err)
	assert.Equal(t, "snake/snake", ref)

	got, err := loc.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, canonical(exe), canonical(got))
}

func workdirStrategies(base, workdir string) []Strategy {
	return []Strategy{
		RelativeTo("base", func() (string, error) { return base, nil }),
		RelativeTo("workdir", func() (string, error) { return workdir, nil }),
		Absolute(),
	}
}

func TestStoreReference_WorkdirRelative(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()
	loc := NewLocatorWith(base, "", workdirStrategies(base, workdir))
	exe := filepath.Join(workdir, "out", "snake")
	writeFile(t, exe, "binary")

	ref, err := loc.StoreReference(exe)
	require.NoError(t, err)
	assert.Equal(t, "out/snake", ref)

	got, err := loc.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, canonical(exe), canonical(got))
}

func TestResolve_FallsBackToWorkdir(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()
	loc := NewLocatorWith(base, "", workdirStrategies(base, workdir))
	exe := filepath.Join(workdir, "tetris", "tetris")
	writeFile(t, exe, "binary")
	_, err := os.Stat(filepath.Join(base, "tetris", "tetris"))
	require.True(t, os.IsNotExist(err))

	got, err := loc.Resolve("tetris/tetris")
	require.NoError(t, err)
	assert.Equal(t, canonical(exe), canonical(got))
}

func TestResolve_PrefersBaseOverWorkdir(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()
	loc := NewLocatorWith(base, "", workdirStrategies(base, workdir))
	inBase := filepath.Join(base, "snake", "snake")
	writeFile(t, inBase, "base")
	writeFile(t, filepath.Join(workdir, "snake", "snake"), "workdir")

	got, err := loc.Resolve("snake/snake")
	require.NoError(t, err)
	assert.Equal(t, canonical(inBase), canonical(got))
}

func TestDefaultStrategies_WorkdirUsesGetwd(t *testing.T) {
	base := t.TempDir()
	workdir := t.TempDir()
	t.Chdir(workdir)
	loc := NewLocator(base)
	exe := filepath.Join(workdir, "game", "game")
	writeFile(t, exe, "binary")

	ref, err := loc.StoreReference(exe)
	require.NoError(t, err)
	assert.Equal(t, "game/game", ref)
}
