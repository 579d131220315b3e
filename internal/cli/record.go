package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/harness"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/intercept"
	"github.com/roach88/vlayer/internal/layers"
	"github.com/roach88/vlayer/internal/layers/autoreplay"
	"github.com/roach88/vlayer/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Script   string
	Out      string
	Database string
}

// RecordResult describes a recorded session.
type RecordResult struct {
	Log      string `json:"log"`
	Format   string `json:"format"`
	Frames   int    `json:"frames"`
	Recorded int    `json:"recorded"`
	Session  string `json:"session,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record scripted touch input into a replay log",
		Long: `Run the simulated host with the record/replay layer in record mode,
feeding the touches of a scenario script, and write the replay log.

Examples:
  vlayer record --script tap.yaml --out /tmp/sim.bin
  vlayer record --script tap.yaml --out /tmp/sim.bin --db ./trace.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "scenario YAML with touches (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "replay log to write (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the delivery trace into this SQLite database")
	_ = cmd.MarkFlagRequired("script")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runRecord(ctx context.Context, opts *RecordOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := harness.LoadScenario(opts.Script)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	format, err := scenario.LogFormat()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid script format", err)
	}

	settings := autoreplay.Settings{
		Mode:         autoreplay.ModeRecord,
		RecordPath:   opts.Out,
		RecordFormat: format,
	}
	session, err := runSession(ctx, opts.Database, settings, scenario.Frames, host.WithFrameStart(scenario.Script().Feed))
	if err != nil {
		return err
	}
	rec := session.set.Autoreplay.Recorder()
	if rec == nil {
		return NewExitError(ExitCommandError, autoreplay.Name+" is disabled")
	}
	if err := rec.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write log", err)
	}

	result := RecordResult{
		Log:      opts.Out,
		Format:   format.String(),
		Frames:   session.frames,
		Recorded: rec.Count(),
		Session:  session.id,
	}
	return respond(cmd, opts.RootOptions, result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Recorded %d event(s) over %d frame(s) to %s (%s)\n",
			result.Recorded, result.Frames, result.Log, result.Format)
		if result.Session != "" {
			fmt.Fprintf(w, "  Session: %s\n", result.Session)
		}
	})
}

// sessionRun is the outcome of one host run through the built-in layers.
type sessionRun struct {
	set       *layers.Set
	id        string
	frames    int
	quit      bool
	processed int
}

// runSession runs the host for frames frames with the autoreplay layer
// configured by settings. With a database path the delivery trace is
// stored under a new session. The layer set is closed before returning.
func runSession(ctx context.Context, dbPath string, settings autoreplay.Settings, frames int, hostOpts ...host.Option) (*sessionRun, error) {
	run := &sessionRun{}

	var opts []autoreplay.Option
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		logPath := settings.RecordPath
		if settings.Mode == autoreplay.ModeReplay {
			logPath = settings.ReplayPath
		}
		sess, err := st.CreateSession(ctx, settings.Mode.String(), logPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create session", err)
		}
		run.id = sess.ID
		opts = append(opts, autoreplay.WithObserver(st.Observer(ctx, sess.ID)))
	}

	run.set = layers.NewSet(append(opts, autoreplay.WithSettings(settings))...)

	rt, err := intercept.NewFromEnv(run.set.Source())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read environment", err)
	}
	if err := rt.Initialize(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to discover layers", err)
	}

	h := host.New(rt, hostOpts...)
	run.frames, run.quit = h.Run(ctx, frames)
	run.processed = len(h.Processed())

	if err := run.set.Close(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to close layers", err)
	}
	return run, nil
}
