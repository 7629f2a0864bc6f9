package registry

import (
	"fmt"
	"os"
	"path/filepath"
)

// RecordFile is the name of the record inside a program directory.
const RecordFile = "record.json"

// SourceBase is the base name of the persisted source file; the language
// extension is appended.
const SourceBase = "source"

// Layout describes where programs, artifacts and icons live on disk.
type Layout struct {
	ProgramsRoot    string
	ArtifactsRoot   string
	StaticRoot      string
	IconsDir        string // relative to StaticRoot
	PlaceholderIcon string // relative to StaticRoot
}

// ProgramDir returns the directory holding name's source and record.
func (l Layout) ProgramDir(name string) string {
	return filepath.Join(l.ProgramsRoot, name)
}

// ArtifactDir returns the packager output directory for name.
func (l Layout) ArtifactDir(name string) string {
	return filepath.Join(l.ArtifactsRoot, name)
}

// SourceFile returns the source file name for a language extension.
func SourceFile(ext string) string {
	return SourceBase + ext
}

// SourcePath returns the persisted source path for name.
func (l Layout) SourcePath(name, ext string) string {
	return filepath.Join(l.ProgramDir(name), SourceFile(ext))
}

// RecordPath returns the record file path for name.
func (l Layout) RecordPath(name string) string {
	return filepath.Join(l.ProgramDir(name), RecordFile)
}

// IconsPath returns the uploaded icons directory.
func (l Layout) IconsPath() string {
	return filepath.Join(l.StaticRoot, l.IconsDir)
}

// StaticPath converts a static-relative reference to a filesystem path.
func (l Layout) StaticPath(ref string) string {
	return filepath.Join(l.StaticRoot, filepath.FromSlash(ref))
}

// Ensure creates the programs, artifacts and icons directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.ProgramsRoot, l.ArtifactsRoot, l.IconsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "create directory", Path: dir, Err: err}
		}
	}
	return nil
}

// IOError reports a failed disk operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
