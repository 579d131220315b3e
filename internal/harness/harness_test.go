package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/replay"
	"github.com/roach88/vlayer/internal/store"
)

func TestRun_TapAndDrag(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tap_and_drag.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, 8, result.Record.Frames)
	assert.False(t, result.Record.Quit)
	assert.Equal(t, 3, result.Record.Processed)

	assert.Equal(t, 5, result.Replay.Frames)
	assert.True(t, result.Replay.Quit)
	assert.Equal(t, 3, result.Replay.Processed)
}

func TestRun_LegacyFormat(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/legacy_long_press.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	result, err := New(WithWorkDir(dir)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.False(t, result.Replay.Quit)
	assert.Equal(t, 6, result.Replay.Frames)

	payloads, format, err := replay.ReadLog(filepath.Join(dir, s.Name+".log"))
	require.NoError(t, err)
	assert.Len(t, payloads, 3)
	assert.Equal(t, "legacy", format.String())
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectations
description: "expects a delivery in the wrong frame"
frames: 3
touches:
  - {frame: 2, state: started, x: 1, y: 1}
assertions:
  - {type: frame_count, frame: 1, count: 1}
  - {type: quit, count: 2}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "1 deliveries in frame 1")
	assert.Contains(t, result.Errors[1], "quit after 2 frames")
}

func TestRun_WithStoreComparesSessions(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer st.Close()

	s, err := LoadScenario("testdata/scenarios/tap_and_drag.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	result, err := New(WithStore(st)).Run(ctx, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotEmpty(t, result.Record.Session)
	require.NotEmpty(t, result.Replay.Session)

	stored, err := st.ReadDeliveries(ctx, result.Replay.Session)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, []uint32{2, 2, 5},
		[]uint32{stored[0].DeliveredFrame, stored[1].DeliveredFrame, stored[2].DeliveredFrame})

	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, PhaseRecord, sessions[0].Mode)
	assert.Equal(t, PhaseReplay, sessions[1].Mode)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tap_and_drag.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(Snapshot(s.Name, first))
	require.NoError(t, err)
	b, err := MarshalSnapshot(Snapshot(s.Name, second))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
