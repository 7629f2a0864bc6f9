package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/launchpad/internal/program"
)

// State classifies what currently occupies a program name.
type State int

const (
	// Absent means nothing exists for the name.
	Absent State = iota
	// Stale means leftovers exist but no well-formed record.
	Stale
	// WellFormed means a valid record and at least one other file exist.
	WellFormed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Stale:
		return "stale"
	case WellFormed:
		return "well-formed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Resolver turns a stored artifact reference into an existing file path.
// *artifact.Locator implements it.
type Resolver interface {
	Resolve(ref string) (string, error)
}

// Registry is the program catalogue. Implementations are safe for
// concurrent use across different names; callers serialize operations on
// the same name (see Locks).
type Registry interface {
	// State classifies the name.
	State(name string) (State, error)

	// Reserve prepares a name for a new program. It fails with a
	// *program.DuplicateNameError if a well-formed record exists and
	// purges the name if it is stale.
	Reserve(name string) error

	// Commit writes the record. The artifact reference must resolve to an
	// existing file and no record may already exist for the name.
	Commit(rec program.Record) error

	// Get returns the record for name or a *program.NotFoundError.
	Get(name string) (program.Record, error)

	// List returns every well-formed record ordered by name. Malformed
	// entries are skipped.
	List() ([]program.Record, error)

	// Remove deletes every resource owned by name, best effort.
	Remove(name string) RemoveOutcome

	// Purge deletes the program and artifact directories for name without
	// consulting the record.
	Purge(name string) error
}

// CorruptRecordError reports a record file that exists but cannot be used.
type CorruptRecordError struct {
	Name string
	Err  error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("record for %q is corrupt: %v", e.Name, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// RemoveOutcome reports what Remove did. A resource that was already
// absent counts as removed.
type RemoveOutcome struct {
	Name            string
	Existed         bool
	SourceRemoved   bool
	ArtifactRemoved bool
	IconRemoved     bool
	Errors          []error
}

// OK reports whether every resource is gone.
func (o RemoveOutcome) OK() bool {
	return o.SourceRemoved && o.ArtifactRemoved && o.IconRemoved && len(o.Errors) == 0
}

// Err joins the outcome's errors, or returns nil.
func (o RemoveOutcome) Err() error {
	return errors.Join(o.Errors...)
}

// removeResources deletes the program directory, the artifact directory
// and the icon (unless it is the placeholder). Each step runs regardless
// of the others.
func removeResources(layout Layout, icons *IconStore, name, iconRef string) RemoveOutcome {
	out := RemoveOutcome{Name: name}

	existed, err := removeAll(layout.ProgramDir(name))
	out.Existed = out.Existed || existed
	if err != nil {
		out.Errors = append(out.Errors, &IOError{Op: "remove source", Path: layout.ProgramDir(name), Err: err})
	} else {
		out.SourceRemoved = true
	}

	existed, err = removeAll(layout.ArtifactDir(name))
	out.Existed = out.Existed || existed
	if err != nil {
		out.Errors = append(out.Errors, &IOError{Op: "remove artifact", Path: layout.ArtifactDir(name), Err: err})
	} else {
		out.ArtifactRemoved = true
	}

	if err := icons.Remove(iconRef); err != nil {
		out.Errors = append(out.Errors, err)
	} else {
		out.IconRemoved = true
	}
	return out
}

// removeAll is os.RemoveAll that also reports whether path existed.
func removeAll(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, os.RemoveAll(path)
}
