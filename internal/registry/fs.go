package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/launchpad/internal/program"
)

// FSRegistry stores one record file per program directory.
//
// Each program owns ProgramsRoot/<name>/ holding its source file and
// record.json, plus ArtifactsRoot/<name>/ holding the build output. The
// record file is written last and atomically, so its presence alongside
// the source marks the entry as committed.
//
// Thread-safety: methods are safe to call from multiple goroutines but do
// not serialize work on one name. Callers coordinate with Locks.
type FSRegistry struct {
	layout   Layout
	resolver Resolver
	icons    *IconStore
	logger   *slog.Logger
}

// FSOption configures an FSRegistry.
type FSOption func(*FSRegistry)

// WithLogger sets the logger used for skipped entries and removals.
func WithLogger(logger *slog.Logger) FSOption {
	return func(r *FSRegistry) {
		r.logger = logger
	}
}

// NewFS creates a filesystem registry over layout. resolver checks
// artifact references on commit.
func NewFS(layout Layout, resolver Resolver, icons *IconStore, opts ...FSOption) *FSRegistry {
	r := &FSRegistry{
		layout:   layout,
		resolver: resolver,
		icons:    icons,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the registry's directory layout.
func (r *FSRegistry) Layout() Layout {
	return r.layout
}

// State classifies name by inspecting its program directory.
//
// A directory holds a well-formed program only when it has a parseable
// record plus at least one other file. Anything else present under the
// name is Stale. A record whose name differs from name only in case is
// another program seen through a case-insensitive filesystem, so it
// counts as WellFormed and is never treated as leftovers.
//
// Thread-safety: State takes no locks. Callers that act on the result
// hold the name's lock from Locks.
func (r *FSRegistry) State(name string) (State, error) {
	dir := r.layout.ProgramDir(name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Absent, nil
		}
		return Absent, &IOError{Op: "read program directory", Path: dir, Err: err}
	}

	hasRecord, hasOther := false, false
	for _, e := range entries {
		if e.Name() == RecordFile {
			hasRecord = true
		} else if !strings.HasPrefix(e.Name(), RecordFile+".tmp") {
			hasOther = true
		}
	}
	if !hasRecord || !hasOther {
		return Stale, nil
	}
	if _, err := r.read(name); err != nil {
		if program.IsDuplicate(err) {
			return WellFormed, nil
		}
		return Stale, nil
	}
	return WellFormed, nil
}

// Reserve fails for a well-formed name and purges a stale one. Names are
// unique regardless of case, so a well-formed program whose name folds to
// the same key also makes Reserve fail.
func (r *FSRegistry) Reserve(name string) error {
	state, err := r.State(name)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", name, err)
	}
	if state != WellFormed {
		if other, err := r.foldedTwin(name); err != nil {
			return fmt.Errorf("reserve %s: %w", name, err)
		} else if other != "" {
			return &program.DuplicateNameError{Name: other}
		}
	}
	switch state {
	case WellFormed:
		if _, err := r.read(name); program.IsDuplicate(err) {
			return err
		}
		return &program.DuplicateNameError{Name: name}
	case Stale:
		r.logger.Info("purging stale program directory", "program", name)
		if err := r.Purge(name); err != nil {
			return fmt.Errorf("reserve %s: %w", name, err)
		}
	}
	return nil
}

// foldedTwin returns the name of a well-formed program that differs from
// name only in case, or "" if there is none.
func (r *FSRegistry) foldedTwin(name string) (string, error) {
	entries, err := os.ReadDir(r.layout.ProgramsRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", &IOError{Op: "list programs", Path: r.layout.ProgramsRoot, Err: err}
	}
	key := foldKey(name)
	for _, e := range entries {
		if !e.IsDir() || e.Name() == name || foldKey(e.Name()) != key {
			continue
		}
		if state, err := r.State(e.Name()); err == nil && state == WellFormed {
			return e.Name(), nil
		}
	}
	return "", nil
}

// Purge removes the program and artifact directories for name.
func (r *FSRegistry) Purge(name string) error {
	return purge(r.layout, name)
}

func purge(layout Layout, name string) error {
	var errs []error
	for _, dir := range []string{layout.ProgramDir(name), layout.ArtifactDir(name)} {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, &IOError{Op: "purge", Path: dir, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Commit validates rec and writes its record file atomically.
func (r *FSRegistry) Commit(rec program.Record) error {
	if err := checkCommit(rec, r.resolver); err != nil {
		return err
	}
	p := r.layout.RecordPath(rec.Name)
	if _, err := os.Stat(p); err == nil {
		return &program.DuplicateNameError{Name: rec.Name}
	}

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("commit %s: %w", rec.Name, err)
	}
	if err := writeFileAtomic(p, append(data, '\n'), 0o644); err != nil {
		return &IOError{Op: "write record", Path: p, Err: err}
	}
	return nil
}

func checkCommit(rec program.Record, resolver Resolver) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if resolver != nil {
		if _, err := resolver.Resolve(rec.ArtifactRef); err != nil {
			return fmt.Errorf("commit %s: %w", rec.Name, err)
		}
	}
	return nil
}

// Get reads the record for name.
func (r *FSRegistry) Get(name string) (program.Record, error) {
	rec, err := r.read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || program.IsDuplicate(err) {
			return program.Record{}, &program.NotFoundError{Name: name}
		}
		return program.Record{}, err
	}
	return rec, nil
}

func (r *FSRegistry) read(name string) (program.Record, error) {
	p := r.layout.RecordPath(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return program.Record{}, err
		}
		return program.Record{}, &IOError{Op: "read record", Path: p, Err: err}
	}
	var rec program.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return program.Record{}, &CorruptRecordError{Name: name, Err: err}
	}
	if rec.Name != name {
		if foldKey(rec.Name) == foldKey(name) {
			return program.Record{}, &program.DuplicateNameError{Name: rec.Name}
		}
		return program.Record{}, &CorruptRecordError{Name: name, Err: fmt.Errorf("record names %q", rec.Name)}
	}
	if err := rec.Validate(); err != nil {
		return program.Record{}, &CorruptRecordError{Name: name, Err: err}
	}
	return rec, nil
}

// List reads every program directory. Entries that are not well-formed
// are logged and skipped. Icons whose files are gone are reported as the
// placeholder.
func (r *FSRegistry) List() ([]program.Record, error) {
	entries, err := os.ReadDir(r.layout.ProgramsRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "list programs", Path: r.layout.ProgramsRoot, Err: err}
	}

	records := make([]program.Record, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		state, err := r.State(e.Name())
		if err != nil || state != WellFormed {
			r.logger.Warn("skipping program entry", "program", e.Name(), "state", state, "error", err)
			continue
		}
		rec, err := r.read(e.Name())
		if err != nil {
			r.logger.Warn("skipping program entry", "program", e.Name(), "error", err)
			continue
		}
		rec.IconRef = r.icons.Display(rec.IconRef)
		records = append(records, rec)
	}
	return records, nil
}

// Remove deletes name's source directory, artifact directory and icon.
// The icon reference comes from the record when one is readable. A
// directory that belongs to a program differing only in case is left
// alone and reported as an error.
func (r *FSRegistry) Remove(name string) RemoveOutcome {
	iconRef := ""
	var readErr error
	if rec, err := r.read(name); err == nil {
		iconRef = rec.IconRef
	} else if program.IsDuplicate(err) {
		return RemoveOutcome{Name: name, Errors: []error{fmt.Errorf("remove %s: %w", name, err)}}
	} else if !errors.Is(err, os.ErrNotExist) {
		readErr = fmt.Errorf("read icon reference: %w", err)
	}

	out := removeResources(r.layout, r.icons, name, iconRef)
	if readErr != nil {
		out.Errors = append(out.Errors, readErr)
		out.IconRemoved = false
	}
	r.logger.Debug("removed program resources",
		"program", name,
		"existed", out.Existed,
		"source", out.SourceRemoved,
		"artifact", out.ArtifactRemoved,
		"icon", out.IconRemoved,
	)
	return out
}

// writeFileAtomic writes data to a temp file in path's directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ Registry = (*FSRegistry)(nil)
