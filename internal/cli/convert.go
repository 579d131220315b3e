package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/replay"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	To string
}

// ConvertResult describes a converted log.
type ConvertResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	From    string `json:"from"`
	To      string `json:"to"`
	Records int    `json:"records"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a replay log in another format",
		Long: `Read a replay log in either format and write it in the target format.
The default target is the framed format.

Examples:
  vlayer convert old.bin new.bin
  vlayer convert new.bin old.bin --to legacy`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "framed", "target format (framed|legacy)")

	return cmd
}

func runConvert(opts *ConvertOptions, in, out string, cmd *cobra.Command) error {
	to, err := input.ParseFormat(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}

	payloads, from, err := replay.ReadLog(in)
	if err != nil {
		return fail(cmd, opts.RootOptions, "E_LOG", logExitError(in, err), nil)
	}

	if err := replay.WriteLog(out, payloads, to); err != nil {
		return WrapExitError(ExitCommandError, "failed to write log", err)
	}

	result := ConvertResult{
		Input:   in,
		Output:  out,
		From:    from.String(),
		To:      to.String(),
		Records: len(payloads),
	}
	return respond(cmd, opts.RootOptions, result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Converted %d record(s) from %s to %s: %s\n", result.Records, result.From, result.To, out)
	})
}
