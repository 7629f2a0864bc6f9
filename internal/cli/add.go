package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/launchpad/internal/catalog"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	File     string
	Language string
	Icon     string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Validate, package and register a program",
		Long: `Validate the source code, package it into a standalone executable and
register it under the given name. Nothing is kept if any step fails.

Example:
  launchpad add snake --file snake.py --icon snake.png
  cat dice.py | launchpad add dice --file -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "source file, or - for stdin (required)")
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "python", "source language")
	cmd.Flags().StringVar(&opts.Icon, "icon", "", "icon image (png, jpg, jpeg, gif, ico)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runAdd(opts *AddOptions, name string, cmd *cobra.Command) error {
	code, err := readSource(opts.File, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}
	req := catalog.AddRequest{Name: name, Code: code, Language: opts.Language}
	if opts.Icon != "" {
		data, err := os.ReadFile(opts.Icon)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read icon", err)
		}
		req.IconName = filepath.Base(opts.Icon)
		req.Icon = data
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	s.formatter.VerboseLog("Adding %s (%s, %d bytes)", name, opts.Language, len(code))
	resp := s.api.AddProgram(s.ctx, req)
	if err := s.formatter.Emit(resp, func(w io.Writer) {
		fmt.Fprintln(w, resp.Message)
		if resp.IconPath != "" {
			fmt.Fprintf(w, "icon: %s\n", resp.IconPath)
		}
	}); err != nil {
		return err
	}
	return statusError(resp.Status, resp.Message)
}

// readSource reads path, or in when path is "-".
func readSource(path string, in io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
