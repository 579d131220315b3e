package threadcheck

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/intercept"
	"github.com/roach88/vlayer/internal/layer"
)

func newChecked(t *testing.T, tid func() int) (*Layer, *intercept.Runtime, *host.Host) {
	t.Helper()
	l := New()
	if tid != nil {
		l.tid = tid
	}
	rt := intercept.New(layer.StaticSource{l.Module()}, intercept.WithConfigDirs(t.TempDir()))
	require.NoError(t, rt.Initialize())
	return l, rt, host.New(rt)
}

func TestThreadCheck_SameThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l, _, h := newChecked(t, nil)
	h.Initialize()

	a := host.NewActor("a")
	h.AddActor(h.Root(), a)
	h.RemoveActor(h.Root(), a)

	assert.Zero(t, l.Violations())
	assert.Empty(t, h.Root().Children(), "calls forwarded")
}

func TestThreadCheck_DetectsOtherThread(t *testing.T) {
	current := 100
	l, rt, h := newChecked(t, func() int { return current })
	h.Initialize()

	current = 200
	a := host.NewActor("a")
	h.AddActor(h.Root(), a)
	h.RemoveActor(h.Root(), a)

	assert.Equal(t, uint32(2), l.Violations())
	assert.Empty(t, h.Root().Children(), "calls still forwarded")

	rt.Registry.Disable(Name)
	h.AddActor(h.Root(), a)
	assert.Equal(t, uint32(2), l.Violations(), "disabled layer does not check")
}

func TestThreadCheck_NotArmedBeforeInitialize(t *testing.T) {
	current := 1
	l, _, h := newChecked(t, func() int { current++; return current })

	h.AddActor(h.Root(), host.NewActor("early"))
	assert.Zero(t, l.Violations())
}

func TestThreadCheck_RunFrameHook(t *testing.T) {
	l := New()
	rt := intercept.New(layer.StaticSource{l.Module()}, intercept.WithConfigDirs(t.TempDir()))
	h := host.New(rt, host.WithFrameStart(func(h *host.Host, frame uint32) {
		h.AddActor(h.Root(), host.NewActor("child"))
	}))

	_, _ = h.Run(context.Background(), 3)

	assert.Len(t, h.Root().Children(), 3)
	assert.Zero(t, l.Violations(), "Run keeps the frame loop on one thread")
}
