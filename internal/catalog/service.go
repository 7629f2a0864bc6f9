package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/roach88/launchpad/internal/artifact"
	"github.com/roach88/launchpad/internal/build"
	"github.com/roach88/launchpad/internal/cleanup"
	"github.com/roach88/launchpad/internal/journal"
	"github.com/roach88/launchpad/internal/launch"
	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/registry"
	"github.com/roach88/launchpad/internal/source"
)

// Toolchain is everything needed to accept and build one language.
type Toolchain struct {
	Extension string
	Validator *source.Validator
	Builder   *build.Orchestrator
}

// Options wires a Service. Journal and Clock are optional.
type Options struct {
	Layout     registry.Layout
	Registry   registry.Registry
	Icons      *registry.IconStore
	Locks      *registry.Locks
	Locator    *artifact.Locator
	Toolchains map[program.Language]Toolchain
	Launcher   *launch.Launcher
	Cleanup    *cleanup.Service
	Journal    *journal.Journal
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Service implements the program pipelines.
//
// It ties the registry, toolchains, launcher, cleanup service and build
// journal together behind the operations the CLI exposes. Every mutation
// of a program name happens while holding that name's lock, so an add and
// a delete of the same program never interleave. Journal writes are best effort: a journal failure is logged
// and never fails the pipeline that produced it.
//
// Thread-safety: Service is safe for concurrent use once constructed.
type Service struct {
	layout     registry.Layout
	registry   registry.Registry
	icons      *registry.IconStore
	locks      *registry.Locks
	locator    *artifact.Locator
	toolchains map[program.Language]Toolchain
	launcher   *launch.Launcher
	cleanup    *cleanup.Service
	journal    *journal.Journal
	clock      func() time.Time
	logger     *slog.Logger
}

// New creates a Service from opts.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Registry == nil:
		return nil, errors.New("catalog: registry is required")
	case opts.Icons == nil:
		return nil, errors.New("catalog: icon store is required")
	case opts.Locks == nil:
		return nil, errors.New("catalog: locks are required")
	case opts.Locator == nil:
		return nil, errors.New("catalog: artifact locator is required")
	case len(opts.Toolchains) == 0:
		return nil, errors.New("catalog: at least one toolchain is required")
	case opts.Launcher == nil:
		return nil, errors.New("catalog: launcher is required")
	case opts.Cleanup == nil:
		return nil, errors.New("catalog: cleanup service is required")
	}
	s := &Service{
		layout:     opts.Layout,
		registry:   opts.Registry,
		icons:      opts.Icons,
		locks:      opts.Locks,
		locator:    opts.Locator,
		toolchains: opts.Toolchains,
		launcher:   opts.Launcher,
		cleanup:    opts.Cleanup,
		journal:    opts.Journal,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Close releases the journal, if any.
func (s *Service) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// AddRequest is a program submission.
type AddRequest struct {
	Name     string
	Code     string
	Language string
	IconName string // original upload file name, used for its extension
	Icon     []byte
}

// AddProgram validates, persists, builds and commits a new program. On any
// failure after the source is written, everything this call created is
// removed again.
func (s *Service) AddProgram(ctx context.Context, req AddRequest) (program.Record, error) {
	name, err := program.NormalizeName(req.Name)
	if err != nil {
		return program.Record{}, err
	}
	lang, err := program.ParseLanguage(req.Language)
	if err != nil {
		return program.Record{}, err
	}
	tc, ok := s.toolchains[lang]
	if !ok {
		return program.Record{}, fmt.Errorf("%w: %s", program.ErrUnsupportedLanguage, lang)
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if err := s.registry.Reserve(name); err != nil {
		return program.Record{}, err
	}
	normalized, err := tc.Validator.Validate(ctx, req.Code)
	if err != nil {
		return program.Record{}, err
	}
	if normalized.Reindented {
		s.logger.Info("source re-indented", "program", name)
	}

	p := &pipeline{s: s, name: name, lang: lang, tc: tc}
	rec, err := p.run(ctx, normalized.Code, req.IconName, req.Icon)
	if err != nil {
		p.rollback(ctx, err)
		return program.Record{}, err
	}
	return rec, nil
}

// pipeline tracks what one AddProgram call created.
type pipeline struct {
	s    *Service
	name string
	lang program.Language
	tc   Toolchain

	iconRef     string
	buildID     string
	touched     bool
	buildFailed bool
}

func (p *pipeline) run(ctx context.Context, code, iconName string, icon []byte) (program.Record, error) {
	s := p.s
	sourcePath := s.layout.SourcePath(p.name, p.tc.Extension)

	p.touched = true
	if err := os.MkdirAll(s.layout.ProgramDir(p.name), 0o755); err != nil {
		return program.Record{}, &registry.IOError{Op: "create program directory", Path: s.layout.ProgramDir(p.name), Err: err}
	}
	if err := os.WriteFile(sourcePath, []byte(code), 0o644); err != nil {
		return program.Record{}, &registry.IOError{Op: "write source", Path: sourcePath, Err: err}
	}

	p.iconRef = s.saveIcon(p.name, iconName, icon)

	p.buildID = s.beginBuild(ctx, p.name, p.lang, p.tc.Builder.Template().String())
	result, err := p.tc.Builder.Build(ctx, p.name, sourcePath, s.layout.ArtifactDir(p.name))
	s.finishBuild(ctx, p.buildID, result, err)
	if err != nil {
		p.buildFailed = true
		return program.Record{}, err
	}

	exe, err := s.locator.Locate(p.name, result.ArtifactDir)
	if err != nil {
		s.logArtifactDir(p.name, result.ArtifactDir)
		return program.Record{}, err
	}
	ref, err := s.locator.StoreReference(exe)
	if err != nil {
		return program.Record{}, err
	}
	digest, err := artifact.Digest(exe)
	if err != nil {
		return program.Record{}, err
	}

	rec := program.Record{
		Name:           p.name,
		Language:       p.lang,
		SourcePath:     path.Join(p.name, registry.SourceFile(p.tc.Extension)),
		ArtifactRef:    ref,
		ArtifactDigest: digest,
		IconRef:        p.iconRef,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.registry.Commit(rec); err != nil {
		return program.Record{}, err
	}
	s.logger.Info("program added", "program", p.name, "artifact", ref)
	return rec, nil
}

// rollback removes the program directory, the artifact directory and the
// icon created by this call.
func (p *pipeline) rollback(ctx context.Context, cause error) {
	s := p.s
	if !p.touched {
		return
	}
	if err := s.registry.Purge(p.name); err != nil {
		s.logger.Error("rollback: purge failed", "program", p.name, "error", err)
	}
	if err := s.icons.Remove(p.iconRef); err != nil {
		s.logger.Error("rollback: icon removal failed", "program", p.name, "error", err)
	}
	if p.buildID != "" && !p.buildFailed && s.journal != nil {
		if err := s.journal.Amend(context.WithoutCancel(ctx), p.buildID, journal.StatusRolledBack, cause.Error()); err != nil {
			s.logger.Warn("journal amend failed", "build", p.buildID, "error", err)
		}
	}
	s.logger.Warn("add program rolled back", "program", p.name, "error", cause)
}

// saveIcon stores an uploaded icon. Anything unusable falls back to the
// placeholder.
func (s *Service) saveIcon(name, filename string, data []byte) string {
	if filename == "" || len(data) == 0 {
		return s.icons.Placeholder()
	}
	ref, err := s.icons.Save(filename, data)
	if err != nil {
		s.logger.Warn("icon not saved, using placeholder", "program", name, "file", filename, "error", err)
		return s.icons.Placeholder()
	}
	return ref
}

func (s *Service) beginBuild(ctx context.Context, name string, lang program.Language, command string) string {
	if s.journal == nil {
		return ""
	}
	id, err := s.journal.Begin(ctx, name, string(lang), command)
	if err != nil {
		s.logger.Warn("journal begin failed", "program", name, "error", err)
		return ""
	}
	return id
}

func (s *Service) finishBuild(ctx context.Context, id string, result *build.Result, buildErr error) {
	if s.journal == nil || id == "" {
		return
	}
	out := journal.Outcome{Status: journal.StatusSucceeded}
	if result != nil {
		code := result.ExitCode
		out.ExitCode = &code
		out.Stdout = result.Stdout
		out.Stderr = result.Stderr
	}
	if buildErr != nil {
		out.Status = journal.StatusFailed
		if build.IsTimeout(buildErr) {
			out.Status = journal.StatusTimeout
		}
		out.Summary = buildErr.Error()
	}
	// The build may have been cancelled; the journal write must not be.
	if err := s.journal.Finish(context.WithoutCancel(ctx), id, out); err != nil {
		s.logger.Warn("journal finish failed", "build", id, "error", err)
	}
}

// logArtifactDir logs what the packager left in dir when the expected
// executable is missing.
func (s *Service) logArtifactDir(name, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("artifact missing; output directory unreadable", "program", name, "dir", dir, "error", err)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	s.logger.Warn("artifact missing", "program", name, "dir", dir, "contents", names)
}

// RunProgram launches the program's artifact and returns once the
// platform has accepted it.
func (s *Service) RunProgram(ctx context.Context, rawName string) error {
	name, err := program.NormalizeName(rawName)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(name)
	defer unlock()

	rec, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	exe, err := s.locator.Resolve(rec.ArtifactRef)
	if err != nil {
		return err
	}
	return s.launcher.Launch(ctx, exe)
}

// DeletePrograms removes each named program.
func (s *Service) DeletePrograms(ctx context.Context, names []string) (cleanup.Report, error) {
	return s.cleanup.BulkDelete(ctx, names)
}

// CleanAll removes every program, artifact and non-placeholder icon.
func (s *Service) CleanAll(ctx context.Context) cleanup.SweepReport {
	return s.cleanup.CleanAll(ctx)
}

// Listing is one entry of ListPrograms.
type Listing struct {
	program.Record
	ArtifactStatus artifact.Status
}

// ListPrograms returns every well-formed program with its artifact status.
func (s *Service) ListPrograms(ctx context.Context) ([]Listing, error) {
	records, err := s.registry.List()
	if err != nil {
		return nil, err
	}
	listings := make([]Listing, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		listings = append(listings, Listing{
			Record:         rec,
			ArtifactStatus: s.locator.Check(rec.ArtifactRef, rec.ArtifactDigest),
		})
	}
	return listings, nil
}

// BuildHistory returns journaled builds newest first. An empty name
// returns builds of every program.
func (s *Service) BuildHistory(ctx context.Context, rawName string, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, nil
	}
	name := ""
	if rawName != "" {
		var err error
		if name, err = program.NormalizeName(rawName); err != nil {
			return nil, err
		}
	}
	return s.journal.History(ctx, name, limit)
}

// Validate checks code without storing anything.
func (s *Service) Validate(ctx context.Context, language, code string) (source.Normalized, error) {
	lang, err := program.ParseLanguage(language)
	if err != nil {
		return source.Normalized{}, err
	}
	tc, ok := s.toolchains[lang]
	if !ok {
		return source.Normalized{}, fmt.Errorf("%w: %s", program.ErrUnsupportedLanguage, lang)
	}
	return tc.Validator.Validate(ctx, code)
}
