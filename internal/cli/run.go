package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Launch a registered program",
		Long: `Launch the packaged executable of a registered program. The command
returns as soon as the program has been started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.RunProgram(s.ctx, args[0])
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Message)
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}
}
