package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/launchpad/internal/catalog"
	"github.com/roach88/launchpad/internal/config"
)

// session is an opened catalogue for one command invocation.
type session struct {
	api       *catalog.API
	svc       *catalog.Service
	formatter *OutputFormatter
	ctx       context.Context
	stop      context.CancelFunc
}

func (s *session) Close() {
	s.stop()
	if err := s.svc.Close(); err != nil {
		slog.Error("error closing catalog", "error", err)
	}
}

// openSession configures logging, loads the config and opens the catalogue.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	svc, err := catalog.Open(cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open catalog", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)

	return &session{
		api: catalog.NewAPI(svc, logger),
		svc: svc,
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
		ctx:  ctx,
		stop: stop,
	}, nil
}

// loadConfig reads an explicit config path strictly; without one, the
// default file is optional.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(config.DefaultPath)
}
