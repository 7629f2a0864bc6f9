package launch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// StartFunc starts the executable at path without waiting for it and
// returns the platform result code. A non-nil error means the start
// facility itself could not be used.
type StartFunc func(path string) (int, error)

// Launcher starts artifacts.
//
// Launch resolves the path, hands it to the platform start facility and
// turns the numeric result into an *Error when it denotes failure. It
// never waits for the started program.
//
// Thread-safety: a Launcher is safe for concurrent use.
type Launcher struct {
	start  StartFunc
	logger *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithStartFunc replaces the platform start facility.
func WithStartFunc(fn StartFunc) Option {
	return func(l *Launcher) {
		l.start = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// New creates a Launcher using the platform start facility.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		start:  startDetached,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the artifact at path and returns once the platform has
// accepted or refused it. A refusal is reported as an *Error.
func (l *Launcher) Launch(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}

	code, err := l.start(abs)
	if err != nil {
		return fmt.Errorf("launch %s: %w", abs, err)
	}
	if err := FromCode(abs, code); err != nil {
		l.logger.Warn("launch refused", "path", abs, "code", code, "meaning", Describe(code))
		return err
	}
	l.logger.Info("launched", "path", abs, "code", code)
	return nil
}
