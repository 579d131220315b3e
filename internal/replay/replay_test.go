package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/input"
)

type collector struct {
	got []input.Payload
}

func (c *collector) QueueEvent(p input.Payload) bool {
	c.got = append(c.got, p)
	return true
}

func recordScript(t *testing.T, path string, opts ...RecorderOption) []input.Payload {
	t.Helper()

	want := []input.Payload{
		{Frame: 2, Event: input.Tap(0, input.PointStarted, 10, 10, 32)},
		{Frame: 2, Event: input.Tap(0, input.PointMotion, 11, 12, 32)},
		{Frame: 5, Event: input.Tap(0, input.PointFinished, 12, 14, 80)},
	}

	rec := NewRecorder(path, opts...)
	for _, p := range want {
		rec.Capture(p.Event, p.Frame)
	}
	require.NoError(t, rec.Err())
	assert.Equal(t, 3, rec.Count())
	require.NoError(t, rec.Close())

	return want
}

func TestRecorder_RoundTrip(t *testing.T) {
	for _, format := range []input.Format{input.FormatFramed, input.FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sim.bin")
			want := recordScript(t, path, WithFormat(format))

			got, gotFormat, err := ReadLog(path)
			require.NoError(t, err)
			assert.Equal(t, format, gotFormat)
			assert.Equal(t, want, got)
		})
	}
}

func TestRecorder_LazyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.bin")

	rec := NewRecorder(path)
	require.NoError(t, rec.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no capture, no file")
}

func TestRecorder_TruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	require.NoError(t, os.WriteFile(path, []byte("stale contents that are not a log"), 0o644))

	want := recordScript(t, path)
	got, _, err := ReadLog(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecorder_FlushesEveryCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	rec := NewRecorder(path)
	defer rec.Close()

	rec.Capture(input.Tap(0, input.PointStarted, 1, 1, 16), 1)

	got, _, err := ReadLog(path)
	require.NoError(t, err, "readable before close")
	assert.Len(t, got, 1)
}

func TestRecorder_CaptureAfterCloseKeepsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	rec := NewRecorder(path)

	rec.Capture(input.Tap(0, input.PointStarted, 1, 1, 16), 1)
	rec.Capture(input.Tap(0, input.PointMotion, 2, 2, 32), 2)
	require.NoError(t, rec.Close())

	rec.Capture(input.Tap(0, input.PointFinished, 3, 3, 48), 3)
	require.NoError(t, rec.Close(), "second close")

	assert.Equal(t, 2, rec.Count())
	assert.NoError(t, rec.Err())

	got, _, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, got, 2, "late capture neither appended nor truncated")
	assert.Equal(t, uint32(2), got[1].Frame)
}

func TestRecorder_CloseBeforeCaptureCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.bin")
	rec := NewRecorder(path)

	require.NoError(t, rec.Close())
	rec.Capture(input.Tap(0, input.PointStarted, 1, 1, 16), 1)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, rec.Count())
}

func TestRecorder_OpenFailureIsRemembered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "sim.bin")
	rec := NewRecorder(path)

	rec.Capture(input.Tap(0, input.PointStarted, 1, 1, 16), 1)
	rec.Capture(input.Tap(0, input.PointFinished, 1, 1, 32), 2)

	assert.Error(t, rec.Err())
	assert.Equal(t, 0, rec.Count())
	assert.NoError(t, rec.Close())
}

func TestReplayer_LoadQueuesInFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	want := recordScript(t, path)

	c := &collector{}
	n, err := NewReplayer(c).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, want, c.got)
}

func TestReplayer_MissingFile(t *testing.T) {
	c := &collector{}
	n, err := NewReplayer(c).Load(context.Background(), filepath.Join(t.TempDir(), "absent.bin"))

	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, c.got)
}

func TestReplayer_TruncatedLogQueuesNothing(t *testing.T) {
	for _, format := range []input.Format{input.FormatFramed, input.FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sim.bin")
			recordScript(t, path, WithFormat(format))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, data[:len(data)-7], 0o644))

			c := &collector{}
			n, err := NewReplayer(c).Load(context.Background(), path)
			assert.ErrorIs(t, err, input.ErrTruncated)
			assert.Zero(t, n)
			assert.Empty(t, c.got, "fail closed")
		})
	}
}

func TestReplayer_ClosedTimer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	recordScript(t, path)

	timer := engine.NewSyncTimer(engine.NewFrameClock(), engine.InjectorFunc(func(input.TouchEvent) {}))
	timer.Close()

	_, err := NewReplayer(timer).Load(context.Background(), path)
	assert.ErrorIs(t, err, engine.ErrTimerStopped)
}

func TestReplay_DeliversAtRecordedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.bin")
	recordScript(t, path)

	frames := engine.NewFrameClock()
	perFrame := make(map[uint32]int)
	timer := engine.NewSyncTimer(frames, engine.InjectorFunc(func(input.TouchEvent) {
		perFrame[frames.Current()]++
	}))

	_, err := NewReplayer(timer).Load(context.Background(), path)
	require.NoError(t, err)

	ctx := context.Background()
	for frames.Current() <= 5 {
		require.True(t, timer.RequestSync())
		timer.Tick(ctx)
		frames.Advance()
	}

	assert.Equal(t, map[uint32]int{2: 2, 5: 1}, perFrame)
	assert.Equal(t, int64(3), timer.Delivered())
	assert.Equal(t, 0, timer.Pending(), "nothing left for frame 6")
}
