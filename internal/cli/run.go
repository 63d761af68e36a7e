package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/standin-dev/standin/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a dispatch scenario",
		Long: `Run a scenario YAML file through the interception pipeline and print
the resulting dispatch trace. Fixture paths in the scenario resolve
relative to the scenario file.

A step with a failing expectation aborts the run with exit code 1.

Examples:
  standin run scenarios/unconfigured-defaults.yaml
  standin run scenarios/fixture-stubs.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, cmd, args[0])
		},
	}

	return cmd
}

func runScenario(opts *RunOptions, cmd *cobra.Command, path string) error {
	s, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	tr, err := harness.Run(s, filepath.Dir(path))
	if err != nil {
		return WrapExitError(ExitFailure, "scenario failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), tr)
	}
	return outputTraceRun(cmd.OutOrStdout(), tr, opts.Verbose)
}

// outputTraceRun renders a scenario trace as text.
func outputTraceRun(w io.Writer, tr *harness.Trace, verbose bool) error {
	fmt.Fprintf(w, "Scenario: %s\n", tr.ScenarioName)
	fmt.Fprintf(w, "Faked type: %s\n", tr.FakedType)

	for _, ev := range tr.Events {
		fmt.Fprintf(w, "  [%d] %s -> %s\n", ev.Seq, ev.Method, ev.Rule)
		if verbose {
			if len(ev.Args) > 0 {
				fmt.Fprintf(w, "       args:    %v\n", ev.Args)
			}
			if len(ev.Returns) > 0 {
				fmt.Fprintf(w, "       returns: %v\n", ev.Returns)
			}
		}
	}
	return nil
}
