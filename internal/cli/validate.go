package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/standin-dev/standin/internal/fixture"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult reports the outcome for one fixture file.
type ValidateResult struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Stubs int    `json:"stubs"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <fixture.cue>...",
		Short: "Validate fixture files",
		Long: `Compile fixture CUE files and report errors without applying them.

Examples:
  standin validate fixtures/reader.cue
  standin validate fixtures/*.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, paths []string) error {
	results := make([]ValidateResult, 0, len(paths))
	failed := 0

	for _, path := range paths {
		res := ValidateResult{Path: path}
		f, err := fixture.Load(path)
		if err != nil {
			res.Error = err.Error()
			failed++
		} else {
			res.Name = f.Name
			res.Stubs = len(f.Stubs)
		}
		results = append(results, res)
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, res := range results {
			if res.Error != "" {
				fmt.Fprintf(w, "FAIL %s\n     %s\n", res.Path, res.Error)
				continue
			}
			fmt.Fprintf(w, "OK   %s (%d stubs)\n", res.Path, res.Stubs)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d fixtures invalid", failed, len(paths)))
	}
	return nil
}
