package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	Sessions []string
}

// VerifyResult reports a trace comparison.
type VerifyResult struct {
	A          string            `json:"a"`
	B          string            `json:"b"`
	Deliveries int               `json:"deliveries"`
	Match      bool              `json:"match"`
	Divergence *store.Divergence `json:"divergence,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare two stored delivery traces",
		Long: `Compare the delivery traces of two sessions, typically a recording and its
replay. The traces match when every delivery carries the same event in the
same frame.

Exit codes:
  0 - Traces match
  1 - Traces diverge
  2 - Command error (database or session not found, etc.)

Examples:
  vlayer verify --db ./trace.db --session <record-id> --session <replay-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringArrayVar(&opts.Sessions, "session", nil, "session ID (exactly two)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	if len(opts.Sessions) != 2 {
		return NewExitError(ExitCommandError, fmt.Sprintf("need exactly two --session flags, got %d", len(opts.Sessions)))
	}
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	a, b := opts.Sessions[0], opts.Sessions[1]
	div, err := st.CompareSessions(ctx, a, b)
	if errors.Is(err, store.ErrSessionNotFound) {
		return WrapExitError(ExitCommandError, "unknown session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare sessions", err)
	}

	trace, err := st.ReadDeliveries(ctx, a)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read deliveries", err)
	}

	result := VerifyResult{A: a, B: b, Deliveries: len(trace), Match: div == nil, Divergence: div}
	if div != nil {
		return fail(cmd, opts.RootOptions, "E_DIVERGED",
			WrapExitError(ExitFailure, "traces diverge", div), result)
	}

	return respond(cmd, opts.RootOptions, result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Traces match (%d deliveries)\n", result.Deliveries)
	})
}
