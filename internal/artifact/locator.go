package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound is the sentinel wrapped by NotFoundError.
var ErrNotFound = errors.New("artifact not found")

// NotFoundError reports an artifact that is not where it should be.
type NotFoundError struct {
	Program string
	Ref     string
	Tried   []string
}

func (e *NotFoundError) Error() string {
	subject := e.Ref
	if subject == "" {
		subject = e.Program
	}
	if len(e.Tried) == 0 {
		return fmt.Sprintf("artifact not found: %s", subject)
	}
	return fmt.Sprintf("artifact not found: %s (tried %s)", subject, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExecutableSuffix returns the executable file suffix for goos.
func ExecutableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}

// Locator resolves artifact paths for one artifacts base directory.
type Locator struct {
	base       string
	suffix     string
	strategies []Strategy
}

// NewLocator creates a Locator for the given artifacts base directory,
// using the host's executable suffix and the default strategy order.
func NewLocator(base string) *Locator {
	return NewLocatorWith(base, ExecutableSuffix(runtime.GOOS), DefaultStrategies(base))
}

// NewLocatorWith creates a Locator with an explicit suffix and strategy list.
func NewLocatorWith(base, suffix string, strategies []Strategy) *Locator {
	return &Locator{base: base, suffix: suffix, strategies: strategies}
}

// Base returns the artifacts base directory.
func (l *Locator) Base() string {
	return l.base
}

// ExecutableName returns the artifact file name for a program.
func (l *Locator) ExecutableName(program string) string {
	return program + l.suffix
}

// Locate confirms that the build left programName's executable directly
// under outputDir and returns its absolute path. Alternate names are never
// guessed.
func (l *Locator) Locate(programName, outputDir string) (string, error) {
	path := filepath.Join(outputDir, l.ExecutableName(programName))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("locate %s: %w", programName, err)
	}
	if !isFile(abs) {
		return "", &NotFoundError{Program: programName, Tried: []string{abs}}
	}
	return abs, nil
}

// StoreReference converts an absolute artifact path to the reference kept
// in the record. The first strategy that accepts the path wins.
func (l *Locator) StoreReference(absPath string) (string, error) {
	if !filepath.IsAbs(absPath) {
		return "", fmt.Errorf("store reference: %q is not absolute", absPath)
	}
	for _, s := range l.strategies {
		if ref, ok := s.Store(absPath); ok {
			return ref, nil
		}
	}
	return "", fmt.Errorf("store reference: no strategy accepted %q", absPath)
}

// Resolve converts a stored reference back to an existing file's absolute
// path. It fails with a *NotFoundError if no strategy yields a file.
func (l *Locator) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", &NotFoundError{Ref: ref}
	}
	var tried []string
	for _, s := range l.strategies {
		path, ok := s.Candidate(ref)
		if !ok {
			continue
		}
		if isFile(path) {
			return path, nil
		}
		tried = append(tried, path)
	}
	return "", &NotFoundError{Ref: ref, Tried: tried}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
