package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/layers/autoreplay"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Frames    int
	Database  string
	Terminate bool
}

// ReplayResult describes a replay run.
type ReplayResult struct {
	Log       string `json:"log"`
	Frames    int    `json:"frames"`
	Quit      bool   `json:"quit"`
	Delivered int64  `json:"delivered"`
	Pending   int    `json:"pending"`
	Processed int    `json:"processed"`
	Session   string `json:"session,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <log>",
		Short: "Replay a log through the simulated host",
		Long: `Run the simulated host with the record/replay layer in replay mode. Each
recorded event is delivered in the frame it was recorded in.

With --terminate the host quits once every event has been delivered; this
is a normal exit.

Exit codes:
  0 - Replay ran (or quit after the log was exhausted)
  1 - Log is corrupt or truncated
  2 - Command error (log not found, database error, etc.)

Examples:
  vlayer replay /tmp/sim.bin --frames 600 --terminate
  vlayer replay /tmp/sim.bin --frames 600 --db ./trace.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "frames to run (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the delivery trace into this SQLite database")
	cmd.Flags().BoolVar(&opts.Terminate, "terminate", false, "quit once the log is exhausted")
	_ = cmd.MarkFlagRequired("frames")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Frames <= 0 {
		return NewExitError(ExitCommandError, "--frames must be positive")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return WrapExitError(ExitCommandError, "log not found", err)
	}

	settings := autoreplay.Settings{
		Mode:              autoreplay.ModeReplay,
		ReplayPath:        path,
		TerminateOnFinish: opts.Terminate,
	}
	session, err := runSession(ctx, opts.Database, settings, opts.Frames)
	if err != nil {
		return err
	}
	if err := session.set.Autoreplay.LoadErr(); err != nil {
		return fail(cmd, opts.RootOptions, "E_LOG", logExitError(path, err), nil)
	}

	timer := session.set.Autoreplay.Timer()
	if timer == nil {
		return NewExitError(ExitCommandError, autoreplay.Name+" is disabled")
	}

	result := ReplayResult{
		Log:       path,
		Frames:    session.frames,
		Quit:      session.quit,
		Delivered: timer.Delivered(),
		Pending:   timer.Pending(),
		Processed: session.processed,
		Session:   session.id,
	}
	return respond(cmd, opts.RootOptions, result, func(w io.Writer) {
		writeReplayText(w, result)
	})
}

func writeReplayText(w io.Writer, result ReplayResult) {
	fmt.Fprintf(w, "Replay Summary: %s\n", result.Log)
	fmt.Fprintf(w, "  Frames: %d\n", result.Frames)
	fmt.Fprintf(w, "  Delivered: %d\n", result.Delivered)
	fmt.Fprintf(w, "  Pending: %d\n", result.Pending)
	if result.Session != "" {
		fmt.Fprintf(w, "  Session: %s\n", result.Session)
	}
	fmt.Fprintln(w)

	if result.Quit {
		fmt.Fprintln(w, "✓ Log exhausted, host quit")
		return
	}
	fmt.Fprintln(w, "✓ Frame budget reached")
}
