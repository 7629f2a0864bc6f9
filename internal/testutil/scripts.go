package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Packager script bodies. Each receives the expanded slots as positional
// arguments: $1 source file, $2 output dir, $3 temp dir, $4 program name.
const (
	// PackagerOK writes an executable artifact named after the program.
	PackagerOK = `test -d "$3" || exit 9
echo "building $4 from $1"
printf '#!/bin/sh\nexit 0\n' > "$2/$4"
chmod 755 "$2/$4"
`

	// PackagerFails prints a traceback to stderr and exits 3.
	PackagerFails = `echo "collecting modules"
echo "Traceback (most recent call last):" >&2
echo "ModuleNotFoundError: No module named 'pygame'" >&2
echo "" >&2
exit 3
`

	// PackagerNoArtifact succeeds without writing the artifact.
	PackagerNoArtifact = `echo "nothing to do"
`

	// PackagerHangs starts a background child, records its pid in the
	// output dir, and waits forever.
	PackagerHangs = `sleep 300 &
echo $! > "$2/child.pid"
wait
`
)

// SkipOnWindows skips tests that drive /bin/sh scripts.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

// WriteScript writes an executable shell script into dir and returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}

// PackagerTemplate writes body as a packager script and returns a build
// command template that runs it with all four slots.
func PackagerTemplate(t *testing.T, body string) string {
	t.Helper()
	SkipOnWindows(t)
	script := WriteScript(t, t.TempDir(), "packager.sh", body)
	return fmt.Sprintf(`/bin/sh %q "{source_file}" "{output_dir}" "{temp_dir}" "{program_name}"`, script)
}

// FakeInterpreter writes a script that speaks the Python front end's
// protocol and accepts every submission, unless the code contains the
// word SYNTAX_ERROR. Literal scans report no multi-line strings.
func FakeInterpreter(t *testing.T) string {
	t.Helper()
	SkipOnWindows(t)
	return WriteScript(t, t.TempDir(), "python", `src=$(cat)
case "$2" in
*tokenize*) echo '[]'; exit 0 ;;
esac
case "$src" in
*SYNTAX_ERROR*) echo '{"ok": false, "msg": "invalid syntax", "lineno": 1, "offset": 1, "text": ""}' ;;
*) echo '{"ok": true}' ;;
esac
`)
}
