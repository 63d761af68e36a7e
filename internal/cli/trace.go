package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/standin-dev/standin/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Manager  string // optional - filter to one manager token
}

// TraceRow is one recorded call in the trace output.
type TraceRow struct {
	Seq          int64  `json:"seq"`
	ManagerToken string `json:"manager_token"`
	FakedType    string `json:"faked_type"`
	Method       string `json:"method"`
	Rule         string `json:"rule"`
	Args         string `json:"args"`
	Returns      string `json:"returns"`
	BaseCall     bool   `json:"base_call"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Manager string     `json:"manager,omitempty"`
	Calls   []TraceRow `json:"calls"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the recorded-call log",
		Long: `Dump the recorded-call log from a trace database.

Records are ordered deterministically (seq, then record id). With
--manager the output is limited to one substitute's calls.

Examples:
  standin trace --db ./standin.db
  standin trace --db ./standin.db --manager 0190a6e4-...
  standin trace --db ./standin.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Manager, "manager", "", "filter to one manager token")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	var records []trace.CallRecord
	if opts.Manager != "" {
		records, err = st.ReadCalls(ctx, opts.Manager)
	} else {
		records, err = st.ReadAllCalls(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read call log", err)
	}

	result := TraceResult{Manager: opts.Manager, Calls: make([]TraceRow, len(records))}
	for i, rec := range records {
		result.Calls[i] = TraceRow{
			Seq:          rec.Seq,
			ManagerToken: rec.ManagerToken,
			FakedType:    rec.FakedType,
			Method:       rec.Method,
			Rule:         rec.Rule,
			Args:         rec.Args,
			Returns:      rec.Returns,
			BaseCall:     rec.BaseCall,
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// outputTraceText renders the call log as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.Manager != "" {
		fmt.Fprintf(w, "Calls for manager: %s\n", result.Manager)
	} else {
		fmt.Fprintln(w, "All recorded calls")
	}

	if len(result.Calls) == 0 {
		fmt.Fprintln(w, "  (no calls)")
		return nil
	}

	for _, row := range result.Calls {
		fmt.Fprintf(w, "  [%d] %s -> %s\n", row.Seq, row.Method, row.Rule)
		if verbose {
			fmt.Fprintf(w, "       manager: %s\n", row.ManagerToken)
			fmt.Fprintf(w, "       args:    %s\n", row.Args)
			fmt.Fprintf(w, "       returns: %s\n", row.Returns)
			if row.BaseCall {
				fmt.Fprintln(w, "       base call requested")
			}
		}
	}
	return nil
}
