package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/replay"
)

// InspectResult describes a decoded replay log.
type InspectResult struct {
	Path     string          `json:"path"`
	Format   string          `json:"format"`
	Records  int             `json:"records"`
	Payloads []input.Payload `json:"payloads"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <log>",
		Short: "Decode and print a replay log",
		Long: `Decode a replay log (framed or legacy) and print every record with its
target frame.

Exit codes:
  0 - Log decoded
  1 - Log is corrupt or truncated
  2 - Command error (file not found, etc.)

Examples:
  vlayer inspect /tmp/sim.bin
  vlayer inspect /tmp/sim.bin --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	payloads, format, err := replay.ReadLog(path)
	if err != nil {
		return fail(cmd, opts, "E_LOG", logExitError(path, err), nil)
	}

	result := InspectResult{
		Path:     path,
		Format:   format.String(),
		Records:  len(payloads),
		Payloads: payloads,
	}
	return respond(cmd, opts, result, func(w io.Writer) {
		writeInspectText(w, result)
	})
}

// logExitError classifies a log read failure: a missing file is a command
// error, anything else is a corrupt log.
func logExitError(path string, err error) *ExitError {
	if errors.Is(err, fs.ErrNotExist) {
		return WrapExitError(ExitCommandError, "log not found", err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("failed to decode %s", path), err)
}

func writeInspectText(w io.Writer, result InspectResult) {
	fmt.Fprintf(w, "Format: %s\n", result.Format)
	fmt.Fprintf(w, "Records: %d\n", result.Records)
	if result.Records == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%5s  %-5s  %6s  %s\n", "FRAME", "TYPE", "TIME", "POINTS")
	for _, p := range result.Payloads {
		points := make([]string, len(p.Event.Points))
		for i, pt := range p.Event.Points {
			points[i] = fmt.Sprintf("%s(%g,%g)", pt.State, pt.ScreenX, pt.ScreenY)
		}
		fmt.Fprintf(w, "%5d  %-5s  %6d  %s\n", p.Frame, p.Event.Type, p.Event.Time, strings.Join(points, " "))
	}
}
