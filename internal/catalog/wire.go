package catalog

import (
	"fmt"
	"log/slog"

	"github.com/roach88/launchpad/internal/artifact"
	"github.com/roach88/launchpad/internal/build"
	"github.com/roach88/launchpad/internal/cleanup"
	"github.com/roach88/launchpad/internal/config"
	"github.com/roach88/launchpad/internal/journal"
	"github.com/roach88/launchpad/internal/launch"
	"github.com/roach88/launchpad/internal/program"
	"github.com/roach88/launchpad/internal/registry"
	"github.com/roach88/launchpad/internal/source"
)

// Open builds a Service from cfg: it creates the directory layout and the
// placeholder icon, opens the journal and prepares one toolchain per
// configured language. Close the Service when done.
func Open(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	layout := cfg.Layout()
	if err := layout.Ensure(); err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	icons := registry.NewIconStore(layout)
	if err := icons.EnsurePlaceholder(); err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	toolchains := make(map[program.Language]Toolchain, len(cfg.Languages))
	for name, lc := range cfg.Languages {
		lang, err := program.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		tmpl, err := build.ParseTemplate(lc.BuildCommand)
		if err != nil {
			return nil, fmt.Errorf("open catalog: language %s: %w", name, err)
		}
		front := source.NewPythonFrontEnd(lc.Interpreter)
		toolchains[lang] = Toolchain{
			Extension: lc.Extension,
			Validator: source.NewValidator(front),
			Builder: build.NewOrchestrator(tmpl,
				build.WithTimeout(cfg.BuildTimeout.Duration),
				build.WithTempRoot(cfg.TempRoot),
				build.WithSourceRecheck(front),
				build.WithLogger(logger),
			),
		}
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	locator := artifact.NewLocator(layout.ArtifactsRoot)
	reg := registry.NewFS(layout, locator, icons, registry.WithLogger(logger))
	locks := registry.NewLocks()

	svc, err := New(Options{
		Layout:     layout,
		Registry:   reg,
		Icons:      icons,
		Locks:      locks,
		Locator:    locator,
		Toolchains: toolchains,
		Launcher:   launch.New(launch.WithLogger(logger)),
		Cleanup:    cleanup.New(reg, layout, icons, locks, cleanup.WithLogger(logger)),
		Journal:    j,
		Logger:     logger,
	})
	if err != nil {
		j.Close()
		return nil, err
	}
	return svc, nil
}
