package autoreplay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/intercept"
	"github.com/roach88/vlayer/internal/kv"
	"github.com/roach88/vlayer/internal/layer"
	"github.com/roach88/vlayer/internal/replay"
)

// touchScript feeds taps at frames 2, 2 and 5.
func touchScript(h *host.Host, frame uint32) {
	switch frame {
	case 2:
		h.QueueEvent(input.Tap(0, input.PointStarted, 10, 10, 1000))
		h.QueueEvent(input.Tap(0, input.PointMotion, 12, 11, 1001))
	case 5:
		h.QueueEvent(input.Tap(0, input.PointFinished, 14, 12, 1002))
	}
}

func newRuntime(t *testing.T, l *Layer, opts ...intercept.Option) *intercept.Runtime {
	t.Helper()
	opts = append([]intercept.Option{intercept.WithConfigDirs(t.TempDir())}, opts...)
	rt := intercept.New(layer.StaticSource{l.Module()}, opts...)
	require.NoError(t, rt.Initialize())
	t.Cleanup(func() { _ = l.Close() })
	return rt
}

func record(t *testing.T, path string) {
	t.Helper()

	l := New(WithSettings(Settings{Mode: ModeRecord, RecordPath: path}))
	rt := newRuntime(t, l)
	h := host.New(rt, host.WithFrameStart(touchScript))

	n, quit := h.Run(context.Background(), 6)
	require.Equal(t, 6, n)
	require.False(t, quit)
	require.NoError(t, l.Close())
	require.NoError(t, l.Recorder().Err())
}

func TestRecord_WritesFrameBoundPayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	record(t, path)

	got, format, err := replay.ReadLog(path)
	require.NoError(t, err)
	assert.Equal(t, input.FormatFramed, format)

	require.Len(t, got, 3)
	assert.Equal(t, []uint32{2, 2, 5}, []uint32{got[0].Frame, got[1].Frame, got[2].Frame})
	assert.Equal(t, []uint32{32, 32, 80}, []uint32{got[0].Event.Time, got[1].Event.Time, got[2].Event.Time},
		"timestamps spoofed to frame x 16ms")
	assert.Equal(t, input.PointMotion, got[1].Event.Points[0].State)
}

func TestRecord_HostSeesInputInItsFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")

	l := New(WithSettings(Settings{Mode: ModeRecord, RecordPath: path}))
	rt := newRuntime(t, l)
	h := host.New(rt, host.WithFrameStart(touchScript))
	_, _ = h.Run(context.Background(), 6)

	var updates []uint32
	for _, p := range h.Processed() {
		updates = append(updates, p.Update)
	}
	assert.Equal(t, []uint32{2, 2, 5}, updates)
}

func TestReplay_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	record(t, path)

	l := New(WithSettings(Settings{Mode: ModeReplay, ReplayPath: path, TerminateOnFinish: true}))
	rt := newRuntime(t, l)
	h := host.New(rt)

	n, quit := h.Run(context.Background(), 20)
	assert.True(t, quit, "terminates when the log is exhausted")
	assert.Equal(t, 5, n, "quit at the start of frame 6")

	processed := h.Processed()
	require.Len(t, processed, 3)
	perUpdate := map[uint32]int{}
	for _, p := range processed {
		perUpdate[p.Update]++
	}
	assert.Equal(t, map[uint32]int{2: 2, 5: 1}, perUpdate)
	assert.Equal(t, uint32(80), processed[2].Event.Time)
	assert.Equal(t, 0, l.Timer().Pending())
	assert.Equal(t, int64(3), l.Timer().Delivered())
}

func TestReplay_WithoutTerminateKeepsRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	record(t, path)

	l := New(WithSettings(Settings{Mode: ModeReplay, ReplayPath: path}))
	rt := newRuntime(t, l)
	h := host.New(rt)

	n, quit := h.Run(context.Background(), 8)
	assert.False(t, quit)
	assert.Equal(t, 8, n)
	assert.Len(t, h.Processed(), 3)
}

func TestReplay_CorruptLogQueuesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	record(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o644))

	l := New(WithSettings(Settings{Mode: ModeReplay, ReplayPath: path, TerminateOnFinish: true}))
	rt := newRuntime(t, l)
	h := host.New(rt)

	n, quit := h.Run(context.Background(), 10)
	assert.ErrorIs(t, l.LoadErr(), input.ErrTruncated)
	assert.True(t, quit)
	assert.Zero(t, n)
	assert.Empty(t, h.Processed())
}

func TestUpdate_SpoofsFixedTimestep(t *testing.T) {
	l := New(WithSettings(Settings{Mode: ModeNone}))
	rt := newRuntime(t, l)
	h := host.New(rt)

	_, _ = h.Run(context.Background(), 3)

	in := h.LastUpdateInput()
	assert.InDelta(t, 0.016, in.ElapsedSeconds, 1e-6)
	assert.Equal(t, uint32(48), in.LastVSyncMillis)
	assert.Equal(t, uint32(64), in.NextVSyncMillis)
	assert.Equal(t, uint32(4), l.Frame())
}

func TestLayer_DisabledPassesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	l := New(WithSettings(Settings{Mode: ModeRecord, RecordPath: path}))
	rt := newRuntime(t, l, intercept.WithAllowList([]string{"some_other_layer"}))
	h := host.New(rt, host.WithFrameStart(touchScript))

	_, _ = h.Run(context.Background(), 3)

	assert.Nil(t, l.Timer(), "timer not started")
	assert.Len(t, h.Processed(), 2, "live input reaches the host directly")
	assert.NotEqual(t, uint32(32), h.LastUpdateInput().LastVSyncMillis)
	assert.Equal(t, uint32(4), l.Frame(), "frame counter still advances")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type capturePaths struct{ paths []string }

func (c *capturePaths) CaptureFrame(path string) error {
	c.paths = append(c.paths, path)
	return nil
}

func TestPostRender_CaptureSchedule(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     []string
	}{
		{
			name:     "interval",
			settings: Settings{CaptureEnabled: true, CapturePrefix: "/tmp/shot", CaptureInterval: 2},
			want:     []string{"/tmp/shot_2.png", "/tmp/shot_4.png", "/tmp/shot_6.png"},
		},
		{
			name:     "listed frames",
			settings: Settings{CaptureEnabled: true, CapturePrefix: "f", CaptureFrames: []uint32{1, 5}},
			want:     []string{"f_1.png", "f_5.png"},
		},
		{
			name:     "both",
			settings: Settings{CaptureEnabled: true, CapturePrefix: "b", CaptureInterval: 3, CaptureFrames: []uint32{2}},
			want:     []string{"b_2.png", "b_3.png", "b_6.png"},
		},
		{
			name:     "disabled",
			settings: Settings{CaptureEnabled: false, CapturePrefix: "x", CaptureInterval: 1},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capturePaths{}
			l := New(WithSettings(tt.settings), WithCapturer(c))
			rt := newRuntime(t, l)
			h := host.New(rt)

			_, _ = h.Run(context.Background(), 6)
			assert.Equal(t, tt.want, c.paths)
		})
	}
}

func TestPostRender_DefaultCapturerIsHost(t *testing.T) {
	l := New(WithSettings(Settings{CaptureEnabled: true, CapturePrefix: "h", CaptureInterval: 2}))
	rt := newRuntime(t, l)
	h := host.New(rt)

	_, _ = h.Run(context.Background(), 4)
	assert.Equal(t, []string{"h_2.png", "h_4.png"}, h.Captures())
}

func TestInit_PublishesToKeyValue(t *testing.T) {
	l := New(WithSettings(Settings{Mode: ModeReplay, ReplayPath: filepath.Join(t.TempDir(), "none.bin")}))
	rt := newRuntime(t, l)

	mode, ok := kv.GetValue[uint32](rt.Store, KeyMode)
	require.True(t, ok)
	assert.Equal(t, uint32(ModeReplay), mode)

	h := host.New(rt)
	_, _ = h.Run(context.Background(), 2)

	frame, ok := kv.GetValue[uint32](rt.Store, KeyFrame)
	require.True(t, ok)
	assert.Equal(t, uint32(3), frame)
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644))
}

func TestInit_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTOREPLAY_TEST_PREFIX", "/var/shots/run")
	writeConfig(t, dir, `{
  "layer": {
    "name": "autoreplay_layer",
    "version": "0.0.1",
    "config": {
      "capturePrefix": "$AUTOREPLAY_TEST_PREFIX=/tmp/capture",
      "replaySimFilePath": "/tmp/sim.bin",
      "modeReplay": true,
      "terminateOnFinish": "$AUTOREPLAY_TEST_TERMINATE=true",
      "captureEnabled": true,
      "captureInterval": 10,
      "captureFrames": [3, 7],
      "drainTimeoutMillis": 250
    }
  }
}`)

	l := New()
	rt := intercept.New(layer.StaticSource{l.Module()}, intercept.WithConfigDirs(dir))
	require.NoError(t, rt.Initialize())
	t.Cleanup(func() { _ = l.Close() })

	s := l.Settings()
	assert.Equal(t, ModeReplay, s.Mode)
	assert.Equal(t, "/tmp/sim.bin", s.ReplayPath)
	assert.Equal(t, "/var/shots/run", s.CapturePrefix)
	assert.True(t, s.TerminateOnFinish)
	assert.True(t, s.CaptureEnabled)
	assert.Equal(t, uint32(10), s.CaptureInterval)
	assert.Equal(t, []uint32{3, 7}, s.CaptureFrames)
	assert.Equal(t, int64(250), s.DrainTimeout.Milliseconds())
	assert.True(t, rt.Registry.IsEnabled(Name))
}

func TestInit_BothModesMeansNone(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"layer": {"config": {"modeRecord": true, "modeReplay": true}}}`))
	require.NoError(t, err)

	s, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeNone, s.Mode)
}

func TestInit_MissingConfigIsModeNone(t *testing.T) {
	l := New()
	rt := newRuntime(t, l)

	assert.Equal(t, ModeNone, l.Settings().Mode)
	assert.True(t, rt.Registry.IsEnabled(Name))
}

func TestInit_InvalidConfigDisablesLayer(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"layer": {"config": {"modeRecord": "yes please", "captureInterval": -4}}}`)

	l := New()
	rt := intercept.New(layer.StaticSource{l.Module()}, intercept.WithConfigDirs(dir))
	require.NoError(t, rt.Initialize())

	assert.False(t, rt.Registry.IsEnabled(Name), "fail closed")
}

func TestSettingsFromConfig_RecordFormat(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"layer": {"config": {"modeRecord": true, "recordFormat": "legacy"}}}`))
	require.NoError(t, err)

	s, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeRecord, s.Mode)
	assert.Equal(t, input.FormatLegacy, s.RecordFormat)

	bad, err := config.Parse([]byte(`{"layer": {"config": {"recordFormat": "xml"}}}`))
	require.NoError(t, err)
	_, err = SettingsFromConfig(bad)
	assert.Error(t, err)
}
