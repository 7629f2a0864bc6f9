package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Language string
	Print    bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check source code without packaging it",
		Long: `Check that source code parses, applying the same normalization as add.
Use - to read from stdin and --print to show the normalized code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read source", err)
			}
			s, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp := s.api.Validate(s.ctx, opts.Language, code)
			if !opts.Print {
				resp.Code = ""
			}
			if err := s.formatter.Emit(resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Message)
				if resp.Reindented {
					fmt.Fprintln(w, "indentation was normalized")
				}
				if resp.Code != "" {
					fmt.Fprint(w, resp.Code)
				}
			}); err != nil {
				return err
			}
			return statusError(resp.Status, resp.Message)
		},
	}

	cmd.Flags().StringVarP(&opts.Language, "language", "l", "python", "source language")
	cmd.Flags().BoolVar(&opts.Print, "print", false, "print the normalized source")

	return cmd
}
