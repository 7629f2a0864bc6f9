package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("icon-%d", n)
	}
}

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		filename string
		ext      string
		ok       bool
	}{
		{"a.png", ".png", true},
		{"a.PNG", ".png", true},
		{"a.jpeg", ".jpeg", true},
		{"a.Ico", ".ico", true},
		{"a.gif", ".gif", true},
		{"a.bmp", "", false},
		{"noext", "", false},
		{"a.png.exe", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			ext, ok := AllowedExtension(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestIconStore_Save(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout).WithIDFunc(sequentialIDs())

	ref, err := icons.Save("Logo.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "program_icons/icon-1.png", ref)
	assert.True(t, icons.Exists(ref))

	data, err := os.ReadFile(layout.StaticPath(ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = icons.Save("logo.bmp", []byte("x"))
	assert.ErrorIs(t, err, ErrIconExtension)
}

func TestIconStore_Save_UniqueNames(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)

	a, err := icons.Save("a.png", []byte("a"))
	require.NoError(t, err)
	b, err := icons.Save("a.png", []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIconStore_EnsurePlaceholder(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)
	p := layout.StaticPath(icons.Placeholder())

	require.NoError(t, icons.EnsurePlaceholder())
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	// An empty file is replaced.
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	require.NoError(t, icons.EnsurePlaceholder())
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// A custom placeholder is kept.
	require.NoError(t, os.WriteFile(p, []byte("custom"), 0o644))
	require.NoError(t, icons.EnsurePlaceholder())
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))
}

func TestIconStore_Remove(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)
	require.NoError(t, icons.EnsurePlaceholder())

	require.NoError(t, icons.Remove(icons.Placeholder()))
	assert.FileExists(t, layout.StaticPath(icons.Placeholder()))

	require.NoError(t, icons.Remove("program_icons/missing.png"))
	require.NoError(t, icons.Remove(""))
}

func TestIconStore_Display(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)
	ref, err := icons.Save("a.gif", []byte("gif"))
	require.NoError(t, err)

	assert.Equal(t, ref, icons.Display(ref))
	assert.Equal(t, "placeholder_icon.png", icons.Display("program_icons/gone.gif"))
	assert.Equal(t, "placeholder_icon.png", icons.Display(""))
}

func TestIconStore_Sweep(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)
	dir := layout.IconsPath()
	for _, name := range []string{"a.png", "b.ico", "placeholder_icon.png", "default_icon.png"} {
		mustWrite(t, filepath.Join(dir, name), "x")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0o755))

	removed, errs := icons.Sweep()
	assert.Empty(t, errs)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, filepath.Join(dir, "placeholder_icon.png"))
	assert.FileExists(t, filepath.Join(dir, "default_icon.png"))
	assert.NoFileExists(t, filepath.Join(dir, "a.png"))
	assert.DirExists(t, filepath.Join(dir, "subdir"))
}

func TestIconStore_Sweep_MissingDir(t *testing.T) {
	layout := testLayout(t)
	require.NoError(t, os.RemoveAll(layout.IconsPath()))

	removed, errs := NewIconStore(layout).Sweep()
	assert.Zero(t, removed)
	assert.Empty(t, errs)
}

func TestIconStore_Remove_StaysInIconsDir(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout)
	outside := filepath.Join(layout.StaticRoot, "outside.txt")
	above := filepath.Join(filepath.Dir(layout.StaticRoot), "x")
	mustWrite(t, outside, "keep")
	mustWrite(t, above, "keep")

	for _, ref := range []string{
		"../outside.txt",
		"outside.txt",
		"program_icons/../outside.txt",
		"program_icons/../../x",
		"program_icons/..",
		"program_icons/",
	} {
		t.Run(ref, func(t *testing.T) {
			err := icons.Remove(ref)
			assert.ErrorIs(t, err, ErrIconRef)
			assert.False(t, icons.Exists(ref))
			assert.Equal(t, icons.Placeholder(), icons.Display(ref))
		})
	}
	assert.FileExists(t, outside)
	assert.FileExists(t, above)
}

func TestIconStore_Remove_SavedIcon(t *testing.T) {
	layout := testLayout(t)
	icons := NewIconStore(layout).WithIDFunc(sequentialIDs())
	ref, err := icons.Save("a.png", []byte("png"))
	require.NoError(t, err)

	require.NoError(t, icons.Remove("./"+ref))
	assert.False(t, icons.Exists(ref))
}
