package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCheckTimeout bounds a single front-end run.
const DefaultCheckTimeout = 30 * time.Second

// pythonCheckScript compiles stdin without executing it and reports the
// outcome as one JSON object on stdout.
const pythonCheckScript = `import json, sys
src = sys.stdin.buffer.read().decode("utf-8", "replace")
try:
    compile(src, "<source>", "exec")
except SyntaxError as e:
    json.dump({"ok": False, "msg": e.msg or str(e), "lineno": e.lineno or 0,
               "offset": e.offset or 0, "text": (e.text or "").rstrip("\n")}, sys.stdout)
except ValueError as e:
    json.dump({"ok": False, "msg": str(e), "lineno": 0, "offset": 0, "text": ""}, sys.stdout)
else:
    json.dump({"ok": True}, sys.stdout)
`

// pythonLiteralScript tokenizes stdin and prints the line numbers that
// continue a multi-line string literal as a JSON array.
const pythonLiteralScript = `import io, json, sys, tokenize
src = sys.stdin.buffer.read().decode("utf-8", "replace")
starts = {getattr(tokenize, n) for n in ("FSTRING_START", "TSTRING_START") if hasattr(tokenize, n)}
ends = {getattr(tokenize, n) for n in ("FSTRING_END", "TSTRING_END") if hasattr(tokenize, n)}
lines, depth, first = set(), 0, 0
for tok in tokenize.generate_tokens(io.StringIO(src).readline):
    if tok.type == tokenize.STRING:
        lines.update(range(tok.start[0] + 1, tok.end[0] + 1))
    elif tok.type in starts:
        if depth == 0:
            first = tok.start[0]
        depth += 1
    elif tok.type in ends:
        depth -= 1
        if depth == 0:
            lines.update(range(first + 1, tok.end[0] + 1))
json.dump(sorted(lines), sys.stdout)
`

// PythonFrontEnd checks Python code with a Python interpreter.
type PythonFrontEnd struct {
	// Interpreter is the executable name or path, e.g. "python3".
	Interpreter string

	// Timeout bounds one check. Zero means DefaultCheckTimeout.
	Timeout time.Duration
}

// NewPythonFrontEnd creates a front end for the given interpreter.
func NewPythonFrontEnd(interpreter string) *PythonFrontEnd {
	return &PythonFrontEnd{Interpreter: interpreter, Timeout: DefaultCheckTimeout}
}

type pythonCheckResult struct {
	OK     bool   `json:"ok"`
	Msg    string `json:"msg"`
	Lineno int    `json:"lineno"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// Check implements FrontEnd.
func (p *PythonFrontEnd) Check(ctx context.Context, code string) (*SyntaxError, error) {
	var result pythonCheckResult
	if err := p.run(ctx, pythonCheckScript, code, &result); err != nil {
		return nil, err
	}
	if result.OK {
		return nil, nil
	}
	return &SyntaxError{
		Message: result.Msg,
		Line:    result.Lineno,
		Column:  result.Offset,
		Text:    result.Text,
	}, nil
}

// LiteralLines implements LiteralScanner using the interpreter's own
// tokenizer.
func (p *PythonFrontEnd) LiteralLines(ctx context.Context, code string) ([]int, error) {
	var lines []int
	if err := p.run(ctx, pythonLiteralScript, code, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// run feeds code to script on stdin and decodes its JSON output into out.
func (p *PythonFrontEnd) run(ctx context.Context, script, code string, out any) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Interpreter, "-c", script)
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("python front end timed out after %s", timeout)
		}
		return fmt.Errorf("run %s: %w: %s", p.Interpreter, err, strings.TrimSpace(stderr.String()))
	}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("decode python front end output: %w", err)
	}
	return nil
}
