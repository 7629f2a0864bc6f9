package source

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return path
}

func TestPythonFrontEnd_Valid(t *testing.T) {
	fe := NewPythonFrontEnd(requirePython(t))

	diag, err := fe.Check(context.Background(), "def main():\n    print('ok')\n\nmain()\n")
	require.NoError(t, err)
	assert.Nil(t, diag)
}

func TestPythonFrontEnd_SyntaxError(t *testing.T) {
	fe := NewPythonFrontEnd(requirePython(t))

	diag, err := fe.Check(context.Background(), "x = 1\nif x\n    pass\n")
	require.NoError(t, err)
	require.NotNil(t, diag)
	assert.Equal(t, 2, diag.Line)
	assert.NotEmpty(t, diag.Message)
}

func TestPythonFrontEnd_DoesNotExecute(t *testing.T) {
	fe := NewPythonFrontEnd(requirePython(t))

	diag, err := fe.Check(context.Background(), "raise SystemExit(3)\n")
	require.NoError(t, err)
	assert.Nil(t, diag)
}

func TestPythonFrontEnd_ReindentRecovers(t *testing.T) {
	v := NewValidator(NewPythonFrontEnd(requirePython(t)))

	got, err := v.Validate(context.Background(), "    def f():\n        return 1\n    f()\n")
	require.NoError(t, err)
	assert.True(t, got.Reindented)
	assert.Equal(t, "def f():\n    return 1\nf()\n", got.Code)
}

func TestPythonFrontEnd_LiteralLines(t *testing.T) {
	fe := NewPythonFrontEnd(requirePython(t))

	code := "x = 1\ns = \"\"\"a\n   b\n c\"\"\"\nt = 'one line'\nu = f\"\"\"{x}\n  y\"\"\"\n"
	lines, err := fe.LiteralLines(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 7}, lines)
}

func TestPythonFrontEnd_ReindentKeepsStringContents(t *testing.T) {
	v := NewValidator(NewPythonFrontEnd(requirePython(t)))

	code := "  x = 1\n  s = \"\"\"a\n     b\"\"\"\n  print(s)\n"
	got, err := v.Validate(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, got.Reindented)
	assert.Equal(t, "x = 1\ns = \"\"\"a\n     b\"\"\"\nprint(s)\n", got.Code)
}

func TestPythonFrontEnd_MissingInterpreter(t *testing.T) {
	fe := NewPythonFrontEnd("/nonexistent/python-interpreter")
	_, err := fe.Check(context.Background(), "x = 1\n")
	assert.Error(t, err)
}
