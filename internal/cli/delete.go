package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete programs and their executables",
		Long: `Delete each named program: its record, source, executable and icon.
Every name is attempted; the command fails if any of them could not be
deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.DeletePrograms(s.ctx, args)
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Message)
				for _, msg := range resp.Errors {
					fmt.Fprintf(w, "  %s\n", msg)
				}
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}
}

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions
	Yes bool
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every program, executable and uploaded icon",
		Long: `Remove every program directory, every executable directory and every
uploaded icon. The placeholder icon is kept. Requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return NewExitError(ExitCommandError, "refusing to remove all programs without --yes")
			}
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.CleanAllPrograms(s.ctx)
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Message)
				for _, msg := range resp.Errors {
					fmt.Fprintf(w, "  %s\n", msg)
				}
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm removal of everything")

	return cmd
}
