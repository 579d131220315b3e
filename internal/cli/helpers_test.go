package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/replay"
)

// hermeticEnv clears the layer environment so tests see only built-ins.
func hermeticEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VLAYER_INSTANCE_LAYERS", "")
	t.Setenv("VLAYER_PRELOAD", "")
	t.Setenv("DESKTOP_PREFIX", t.TempDir())
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals a CLIResponse and its data payload into data.
func decodeData(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.CLIResponse
}

// sampleLog writes three touches at frames 2, 2 and 5.
func sampleLog(t *testing.T, format input.Format) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.bin")
	payloads := []input.Payload{
		{Frame: 2, Event: input.Tap(0, input.PointStarted, 10, 20, 32)},
		{Frame: 2, Event: input.Tap(0, input.PointMotion, 12.5, 22, 32)},
		{Frame: 5, Event: input.Tap(0, input.PointFinished, 14, 24, 80)},
	}
	require.NoError(t, replay.WriteLog(path, payloads, format))
	return path
}

const tapScript = `name: tap
description: "tap and release"
frames: 6
touches:
  - {frame: 2, state: started, x: 10, y: 20}
  - {frame: 2, state: motion, x: 11, y: 21}
  - {frame: 5, state: finished, x: 12, y: 22}
`

func deliveryAt(seq int64, ev input.TouchEvent, frame uint32) engine.Delivery {
	return engine.Delivery{
		Seq:            seq,
		Payload:        input.Payload{Event: ev, Frame: frame},
		DeliveredFrame: frame,
	}
}
