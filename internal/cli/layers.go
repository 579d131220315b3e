package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vlayer/internal/intercept"
	"github.com/roach88/vlayer/internal/layer"
	"github.com/roach88/vlayer/internal/layers"
	"github.com/roach88/vlayer/internal/layers/autoreplay"
)

// LayersResult lists discovered layers.
type LayersResult struct {
	Layers []layer.Info `json:"layers"`
}

// NewLayersCommand creates the layers command.
func NewLayersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List discovered layers",
		Long: `List the built-in layers and the plugins named in VLAYER_PRELOAD, in chain
order, with their enabled state under VLAYER_INSTANCE_LAYERS.

Examples:
  vlayer layers
  VLAYER_INSTANCE_LAYERS=sample_layer vlayer layers --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayers(rootOpts, cmd)
		},
	}
}

func runLayers(opts *RootOptions, cmd *cobra.Command) error {
	// Fixed settings keep enumeration from starting a session.
	set := layers.NewSet(autoreplay.WithSettings(autoreplay.Settings{}))
	defer set.Close()

	rt, err := intercept.NewFromEnv(set.Source())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read environment", err)
	}
	if err := rt.Initialize(); err != nil {
		return WrapExitError(ExitCommandError, "failed to discover layers", err)
	}

	result := LayersResult{Layers: rt.Registry.Enumerate()}
	return respond(cmd, opts, result, func(w io.Writer) {
		writeLayersText(w, result)
	})
}

func writeLayersText(w io.Writer, result LayersResult) {
	fmt.Fprintf(w, "%-24s %-8s %s\n", "NAME", "VERSION", "ENABLED")
	for _, l := range result.Layers {
		fmt.Fprintf(w, "%-24s %-8s %t\n", l.Name, l.Version, l.Enabled)
	}
}
