package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/registry"
)

// ErrNoNames is returned by BulkDelete for an empty request.
var ErrNoNames = errors.New("no programs selected")

// Status is the overall result of a cleanup operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// statusOf derives the overall status from success and total counts.
func statusOf(succeeded, total int) Status {
	switch {
	case total > 0 && succeeded == total:
		return StatusSuccess
	case succeeded > 0:
		return StatusPartial
	default:
		return StatusError
	}
}

// Outcome is the result of deleting one program.
type Outcome struct {
	Name    string
	Deleted bool
	Err     error
}

// Report is the result of BulkDelete.
type Report struct {
	Status   Status
	Outcomes []Outcome
}

// DeletedCount returns how many programs were fully deleted.
func (r Report) DeletedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Deleted {
			n++
		}
	}
	return n
}

// FailedNames returns the names that were not fully deleted, in request
// order.
func (r Report) FailedNames() []string {
	var names []string
	for _, o := range r.Outcomes {
		if !o.Deleted {
			names = append(names, o.Name)
		}
	}
	return names
}

// Errors returns one message per failed name.
func (r Report) Errors() []string {
	var msgs []string
	for _, o := range r.Outcomes {
		if !o.Deleted && o.Err != nil {
			msgs = append(msgs, fmt.Sprintf("program %q: %v", o.Name, o.Err))
		}
	}
	return msgs
}

// SweepReport is the result of CleanAll.
type SweepReport struct {
	Status  Status
	Removed int
	Errors  []error
}

// Service deletes programs through a registry.
//
// Deletes take the program's name lock, so they wait for an in-flight add
// of the same name to finish. CleanAll takes every lock at once.
//
// Thread-safety: Service is safe for concurrent use.
type Service struct {
	registry registry.Registry
	layout   registry.Layout
	icons    *registry.IconStore
	locks    *registry.Locks
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a cleanup Service. locks must be the same set the build
// pipeline uses so deletes never overlap a build of the same name.
func New(reg registry.Registry, layout registry.Layout, icons *registry.IconStore, locks *registry.Locks, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		layout:   layout,
		icons:    icons,
		locks:    locks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BulkDelete deletes each named program. Duplicate names are handled once.
// A name with nothing to delete counts as failed.
func (s *Service) BulkDelete(ctx context.Context, names []string) (Report, error) {
	if len(names) == 0 {
		return Report{Status: StatusError}, ErrNoNames
	}

	seen := make(map[string]bool, len(names))
	var report Report
	for _, raw := range names {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		report.Outcomes = append(report.Outcomes, s.deleteOne(ctx, raw))
	}

	report.Status = statusOf(report.DeletedCount(), len(report.Outcomes))
	s.logger.Info("bulk delete finished",
		"status", report.Status,
		"deleted", report.DeletedCount(),
		"failed", len(report.Outcomes)-report.DeletedCount(),
	)
	return report, nil
}

func (s *Service) deleteOne(ctx context.Context, raw string) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Name: raw, Err: err}
	}
	name, err := program.NormalizeName(raw)
	if err != nil {
		return Outcome{Name: raw, Err: err}
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	out := s.registry.Remove(name)
	switch {
	case !out.Existed:
		return Outcome{Name: raw, Err: &program.NotFoundError{Name: name}}
	case !out.OK():
		s.logger.Warn("delete incomplete", "program", name, "error", out.Err())
		return Outcome{Name: raw, Err: out.Err()}
	}
	s.logger.Debug("deleted program", "program", name)
	return Outcome{Name: raw, Deleted: true}
}

// CleanAll removes every entry under the programs and artifacts roots and
// every icon except the protected ones. A missing directory is not an
// error.
func (s *Service) CleanAll(ctx context.Context) SweepReport {
	unlock := s.locks.LockAll()
	defer unlock()

	var report SweepReport
	for _, root := range []string{s.layout.ProgramsRoot, s.layout.ArtifactsRoot} {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err)
			break
		}
		removed, errs := sweepDir(root)
		report.Removed += removed
		report.Errors = append(report.Errors, errs...)
	}
	removed, errs := s.icons.Sweep()
	report.Removed += removed
	report.Errors = append(report.Errors, errs...)

	report.Status = StatusSuccess
	if len(report.Errors) > 0 {
		report.Status = StatusError
	}
	s.logger.Info("clean all finished", "removed", report.Removed, "errors", len(report.Errors))
	return report
}

// sweepDir removes every entry directly under root.
func sweepDir(root string) (int, []error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, []error{&registry.IOError{Op: "read directory", Path: root, Err: err}}
	}
	var errs []error
	removed := 0
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, &registry.IOError{Op: "remove", Path: p, Err: err})
			continue
		}
		removed++
	}
	return removed, errs
}
