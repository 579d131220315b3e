package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/layer"
)

func chainsFor(mods ...layer.Module) (*dispatch.Engine, *layer.Registry) {
	reg := layer.NewRegistry(layer.StaticSource(mods))
	return dispatch.New(reg), reg
}

func fixedClock() func() time.Duration {
	var t time.Duration
	return func() time.Duration {
		t += 20 * time.Millisecond
		return t
	}
}

func TestHost_BaseImplementations(t *testing.T) {
	h := New(nil, WithClock(fixedClock()))

	n, quit := h.Run(context.Background(), 3)
	assert.Equal(t, 3, n)
	assert.False(t, quit)
	assert.True(t, h.Initialized())
	assert.Equal(t, uint32(3), h.Updates())
	assert.Equal(t, uint32(3), h.Renders())
}

func TestHost_QueueEventReachesProcessor(t *testing.T) {
	h := New(nil, WithFrameStart(func(h *Host, frame uint32) {
		if frame == 2 {
			h.QueueEvent(input.Tap(0, input.PointStarted, 5, 5, 100))
		}
	}))

	_, _ = h.Run(context.Background(), 3)

	got := h.Processed()
	require.Len(t, got, 1)
	assert.Equal(t, uint32(2), got[0].Update)
	assert.Equal(t, uint32(100), got[0].Event.Time)
}

func TestHost_InterceptorForwarding(t *testing.T) {
	var order []string
	mod := func(name string) layer.Module {
		return layer.NewStaticModule("/lib/"+name+".so", layer.Symbols{
			layer.SymbolName: name,
			SymbolUpdate: func(self *dispatch.Node, h *Host, in UpdateInput, status *UpdateStatus) {
				if self.Enabled() {
					order = append(order, name)
					in.ElapsedSeconds = 0.5
				}
				h.NextUpdate(self, in, status)
			},
		})
	}
	chains, reg := chainsFor(mod("first"), mod("second"))
	h := New(chains)

	h.Update(UpdateInput{ElapsedSeconds: 0.1})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, float32(0.5), h.LastUpdateInput().ElapsedSeconds)
	assert.Equal(t, uint32(1), h.Updates())

	order = nil
	reg.Disable("first")
	reg.Disable("second")
	h.Update(UpdateInput{ElapsedSeconds: 0.1})
	assert.Empty(t, order)
	assert.Equal(t, float32(0.1), h.LastUpdateInput().ElapsedSeconds)
}

func TestHost_InterceptorMayConsumeCall(t *testing.T) {
	var seen []input.TouchEvent
	chains, _ := chainsFor(layer.NewStaticModule("/lib/eat.so", layer.Symbols{
		layer.SymbolName: "eater",
		SymbolQueueEvent: func(self *dispatch.Node, h *Host, ev input.TouchEvent) {
			seen = append(seen, ev)
		},
	}))
	h := New(chains)

	h.QueueEvent(input.Tap(0, input.PointStarted, 1, 1, 0))
	h.ProcessEvents()

	assert.Len(t, seen, 1)
	assert.Empty(t, h.Processed(), "event never reached the host")
}

func TestHost_QuitStopsRun(t *testing.T) {
	updates := 0
	chains, _ := chainsFor(layer.NewStaticModule("/lib/quit.so", layer.Symbols{
		layer.SymbolName: "quitter",
		SymbolUpdate: func(self *dispatch.Node, h *Host, in UpdateInput, status *UpdateStatus) {
			updates++
			if updates == 3 {
				status.Quit = true
				return
			}
			h.NextUpdate(self, in, status)
		},
	}))
	h := New(chains)

	n, quit := h.Run(context.Background(), 10)
	assert.True(t, quit)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint32(2), h.Renders())
}

func TestHost_RunCancelled(t *testing.T) {
	h := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, quit := h.Run(ctx, 5)
	assert.Zero(t, n)
	assert.False(t, quit)
}

func TestHost_MismatchedSignatureSkipped(t *testing.T) {
	chains, _ := chainsFor(layer.NewStaticModule("/lib/odd.so", layer.Symbols{
		layer.SymbolName:    "odd",
		SymbolPostRender: func(int) {},
	}))
	h := New(chains)

	h.PostRender()
	assert.Equal(t, uint32(1), h.Renders(), "base still runs")
}

func TestHost_PendingEventsRewrite(t *testing.T) {
	h := New(nil)
	h.InjectEvent(input.Tap(0, input.PointStarted, 1, 1, 999))

	h.PendingEvents(func(ev *input.TouchEvent) { ev.Time = 32 })
	h.ProcessEvents()

	require.Len(t, h.Processed(), 1)
	assert.Equal(t, uint32(32), h.Processed()[0].Event.Time)
}

func TestHost_Actors(t *testing.T) {
	var calls []string
	chains, _ := chainsFor(layer.NewStaticModule("/lib/watch.so", layer.Symbols{
		layer.SymbolName: "watch",
		SymbolActorAdd: func(self *dispatch.Node, h *Host, parent, child *Actor) {
			calls = append(calls, "add:"+child.Name)
			h.NextActor(self, parent, child)
		},
		SymbolActorRemove: func(self *dispatch.Node, h *Host, parent, child *Actor) {
			calls = append(calls, "remove:"+child.Name)
			h.NextActor(self, parent, child)
		},
	}))
	h := New(chains)

	a := NewActor("a")
	b := NewActor("b")
	h.AddActor(h.Root(), a)
	h.AddActor(a, b)
	assert.Equal(t, []*Actor{a}, h.Root().Children())
	assert.Same(t, a, b.Parent())

	h.AddActor(h.Root(), b)
	assert.Empty(t, a.Children(), "reparented")

	h.RemoveActor(h.Root(), a)
	assert.Nil(t, a.Parent())
	assert.Equal(t, []*Actor{b}, h.Root().Children())

	assert.Equal(t, []string{"add:a", "add:b", "add:b", "remove:a"}, calls)
}

func TestHost_CaptureFrame(t *testing.T) {
	h := New(nil)
	require.NoError(t, h.CaptureFrame("/tmp/shot_1.png"))
	assert.Equal(t, []string{"/tmp/shot_1.png"}, h.Captures())
}
