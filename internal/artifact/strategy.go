package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

// Strategy is one way of representing an artifact location.
type Strategy interface {
	// Name identifies the strategy in logs and tests.
	Name() string

	// Store returns the reference for absPath, or false if this strategy
	// does not apply to it.
	Store(absPath string) (string, bool)

	// Candidate returns the absolute path ref would denote under this
	// strategy, or false if ref is not in this strategy's form. The path
	// is not checked for existence.
	Candidate(ref string) (string, bool)
}

// DefaultStrategies returns the standard order: base-relative, then
// working-directory-relative, then absolute.
func DefaultStrategies(base string) []Strategy {
	return []Strategy{
		RelativeTo("base", func() (string, error) { return filepath.Abs(base) }),
		RelativeTo("workdir", os.Getwd),
		Absolute(),
	}
}

type relativeStrategy struct {
	name string
	root func() (string, error)
}

// RelativeTo stores paths under the directory returned by root as
// slash-separated relative references.
func RelativeTo(name string, root func() (string, error)) Strategy {
	return &relativeStrategy{name: name, root: root}
}

func (s *relativeStrategy) Name() string {
	return s.name
}

func (s *relativeStrategy) Store(absPath string) (string, bool) {
	root, err := s.root()
	if err != nil {
		return "", false
	}
	rel, ok := within(canonical(root), canonical(absPath))
	if !ok {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (s *relativeStrategy) Candidate(ref string) (string, bool) {
	local := filepath.FromSlash(ref)
	if filepath.IsAbs(local) {
		return "", false
	}
	root, err := s.root()
	if err != nil {
		return "", false
	}
	return filepath.Join(canonical(root), local), true
}

type absoluteStrategy struct{}

// Absolute stores paths verbatim.
func Absolute() Strategy {
	return absoluteStrategy{}
}

func (absoluteStrategy) Name() string {
	return "absolute"
}

func (absoluteStrategy) Store(absPath string) (string, bool) {
	return filepath.Clean(absPath), filepath.IsAbs(absPath)
}

func (absoluteStrategy) Candidate(ref string) (string, bool) {
	local := filepath.FromSlash(ref)
	if !filepath.IsAbs(local) {
		return "", false
	}
	return filepath.Clean(local), true
}

// canonical returns an absolute, symlink-free form of path when the path
// exists, and the cleaned absolute path otherwise.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// within returns path relative to root if path lies strictly under root.
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}
