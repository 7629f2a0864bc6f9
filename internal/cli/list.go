package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/launchpad/internal/catalog"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.ListPrograms(s.ctx)
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				writeProgramTable(w, resp)
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}
}

func writeProgramTable(w io.Writer, resp catalog.ListResponse) {
	if resp.Status != catalog.StatusSuccess {
		fmt.Fprintln(w, resp.Message)
		return
	}
	if len(resp.Programs) == 0 {
		fmt.Fprintln(w, "no programs")
		return
	}
	fmt.Fprintf(w, "%-24s %-8s %-9s %-20s %s\n", "NAME", "LANGUAGE", "ARTIFACT", "CREATED", "ICON")
	for _, p := range resp.Programs {
		fmt.Fprintf(w, "%-24s %-8s %-9s %-20s %s\n",
			p.Name, p.Language, p.ArtifactStatus, p.CreatedAt.Format(time.DateTime), p.Icon)
	}
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Show recorded build attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.BuildHistory(s.ctx, name, opts.Limit)
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				writeHistoryTable(w, resp)
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of builds to show (0 for all)")

	return cmd
}

func writeHistoryTable(w io.Writer, resp catalog.HistoryResponse) {
	if resp.Status != catalog.StatusSuccess {
		fmt.Fprintln(w, resp.Message)
		return
	}
	if len(resp.Builds) == 0 {
		fmt.Fprintln(w, "no builds recorded")
		return
	}
	for _, b := range resp.Builds {
		line := fmt.Sprintf("%s  %-20s %-11s %s", b.StartedAt.Format(time.DateTime), b.Program, b.Status, b.ID)
		if b.FinishedAt != nil {
			line += fmt.Sprintf("  (%s)", b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond))
		}
		fmt.Fprintln(w, line)
		if b.Summary != "" {
			fmt.Fprintf(w, "    %s\n", b.Summary)
		}
	}
}
