package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/launchpad/internal/source"
)

// DefaultTimeout is the hard wall-clock limit for one build.
const DefaultTimeout = 20 * time.Minute

// summaryPrefixLen bounds the stdout prefix used when stderr is empty.
const summaryPrefixLen = 200

// waitDelay bounds how long Wait blocks on inherited pipes after the
// packager has been killed.
const waitDelay = 5 * time.Second

// Result describes a finished packager run, successful or not.
type Result struct {
	ArtifactDir string
	Command     []string
	Stdout      []byte
	Stderr      []byte
	ExitCode    int
	Duration    time.Duration
}

// Orchestrator runs packager builds.
//
// Thread-safety: an Orchestrator holds no per-build state and is safe for
// concurrent use.
type Orchestrator struct {
	template *Template
	timeout  time.Duration
	tempRoot string
	recheck  source.FrontEnd
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithTempRoot sets the parent of per-build temporary directories.
// Empty means os.TempDir().
func WithTempRoot(dir string) Option {
	return func(o *Orchestrator) { o.tempRoot = dir }
}

// WithSourceRecheck makes every build re-check the persisted source with
// the given front end before the packager starts.
func WithSourceRecheck(front source.FrontEnd) Option {
	return func(o *Orchestrator) { o.recheck = front }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an Orchestrator for the given command template.
func NewOrchestrator(tmpl *Template, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		template: tmpl,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Template returns the command template.
func (o *Orchestrator) Template() *Template {
	return o.template
}

// Timeout returns the configured build timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}

// Build packages sourcePath into outputDir.
//
// The packager runs in a fresh temp directory under the orchestrator's
// temp root with the expanded command template as argv. The temp
// directory is removed when Build returns, whatever the outcome. The
// source is re-validated first when a recheck front end is configured,
// and the whole run is bounded by the build timeout as well as ctx.
//
// On success the returned Result names outputDir as ArtifactDir. On
// failure the error is a *Error; the Result is still returned whenever the
// packager actually ran, so callers can keep its output.
//
// Thread-safety: concurrent Builds are independent. Callers building the
// same program name must serialize on their own; Build does not lock
// outputDir.
func (o *Orchestrator) Build(ctx context.Context, programName, sourcePath, outputDir string) (*Result, error) {
	fail := func(err error) (*Result, error) {
		return nil, &Error{Kind: KindToolInvocationFailed, Program: programName, Err: err}
	}

	sourceAbs, err := filepath.Abs(sourcePath)
	if err != nil {
		return fail(fmt.Errorf("resolve source path: %w", err))
	}
	if o.recheck != nil {
		if err := o.recheckSource(ctx, sourceAbs); err != nil {
			return fail(err)
		}
	}

	outputAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return fail(fmt.Errorf("resolve output dir: %w", err))
	}
	if err := os.MkdirAll(outputAbs, 0o755); err != nil {
		return fail(fmt.Errorf("create output dir: %w", err))
	}

	tempDir, err := os.MkdirTemp(o.tempRoot, "launchpad-"+programName+"-*")
	if err != nil {
		return fail(fmt.Errorf("create temp dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			o.logger.Warn("failed to remove build temp dir", "dir", tempDir, "error", err)
		}
	}()
	tempAbs, err := filepath.Abs(tempDir)
	if err != nil {
		return fail(fmt.Errorf("resolve temp dir: %w", err))
	}

	argv := o.template.Expand(Slots{
		SourceFile:  filepath.ToSlash(sourceAbs),
		OutputDir:   filepath.ToSlash(outputAbs),
		TempDir:     filepath.ToSlash(tempAbs),
		ProgramName: programName,
	})

	o.logger.Info("build starting",
		"program", programName,
		"command", Render(argv),
		"temp_dir", tempAbs,
		"timeout", o.timeout,
	)

	result, runErr := o.run(ctx, argv, tempAbs)
	result.ArtifactDir = outputAbs

	o.logger.Debug("build output",
		"program", programName,
		"exit_code", result.ExitCode,
		"stdout", string(result.Stdout),
		"stderr", string(result.Stderr),
	)

	if runErr != nil {
		runErr.Program = programName
		o.logger.Warn("build failed",
			"program", programName,
			"kind", runErr.Kind,
			"error", runErr,
			"duration", result.Duration,
		)
		if runErr.Kind == KindToolInvocationFailed && result.Duration == 0 {
			return nil, runErr
		}
		return result, runErr
	}

	o.logger.Info("build finished", "program", programName, "duration", result.Duration)
	return result, nil
}

// run starts argv in dir and waits for it under the build timeout.
func (o *Orchestrator) run(ctx context.Context, argv []string, dir string) (*Result, *Error) {
	result := &Result{Command: argv}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result, &Error{Kind: KindToolInvocationFailed, Err: fmt.Errorf("start packager: %w", err)}
	}
	err := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	result.ExitCode = -1
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return result, &Error{Kind: KindTimeout, Timeout: o.timeout, Err: runCtx.Err()}
	}
	if ctx.Err() != nil {
		return result, &Error{Kind: KindToolInvocationFailed, Err: fmt.Errorf("build cancelled: %w", ctx.Err())}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && result.ExitCode > 0 {
		return result, &Error{
			Kind:     KindNonZeroExit,
			ExitCode: result.ExitCode,
			Summary:  Summarize(result.Stderr, result.Stdout),
			Err:      err,
		}
	}
	return result, &Error{Kind: KindToolInvocationFailed, Err: fmt.Errorf("wait for packager: %w", err)}
}

func (o *Orchestrator) recheckSource(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	diag, err := o.recheck.Check(ctx, string(code))
	if err != nil {
		return fmt.Errorf("recheck source: %w", err)
	}
	if diag != nil {
		return diag
	}
	return nil
}

// Summarize picks the error summary for a failed build: the last non-empty
// line of stderr, or a truncated prefix of stdout when stderr is empty.
func Summarize(stderr, stdout []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(stderr), "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		return ""
	}
	runes := []rune(out)
	if len(runes) > summaryPrefixLen {
		return string(runes[:summaryPrefixLen]) + "..."
	}
	return out
}
