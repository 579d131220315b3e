package autoreplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/dispatch"
	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/kv"
	"github.com/roach88/vlayer/internal/layer"
	"github.com/roach88/vlayer/internal/replay"
)

const (
	// Name is the layer name used by allow-lists.
	Name = "autoreplay_layer"

	// Version is the layer version.
	Version = "0.0.1"

	// ConfigFile is the configuration file the layer loads.
	ConfigFile = Name + ".json"

	// FrameTimeMillis is the spoofed duration of every frame.
	FrameTimeMillis = 16

	// KeyFrame holds the current frame (uint32) in the key/value store.
	KeyFrame = "autoreplay.frame"

	// KeyMode holds the operating Mode (uint32) in the key/value store.
	KeyMode = "autoreplay.mode"
)

// Capturer writes the current frame to an image file.
type Capturer interface {
	CaptureFrame(path string) error
}

// Option configures a Layer.
type Option func(*Layer)

// WithSettings fixes the settings instead of reading ConfigFile.
func WithSettings(s Settings) Option {
	return func(l *Layer) {
		l.settings = s
		l.configured = true
	}
}

// WithObserver observes every payload the sync timer delivers.
func WithObserver(o engine.Observer) Option {
	return func(l *Layer) {
		l.observers = append(l.observers, o)
	}
}

// WithTickPeriod sets the sync timer period.
func WithTickPeriod(d time.Duration) Option {
	return func(l *Layer) {
		l.period = d
	}
}

// WithCapturer replaces the host as the frame capturer.
func WithCapturer(c Capturer) Option {
	return func(l *Layer) {
		l.capturer = c
	}
}

// Layer is one instance of the record/replay layer. Each runtime gets its
// own instance.
type Layer struct {
	settings   Settings
	configured bool
	observers  []engine.Observer
	period     time.Duration
	capturer   Capturer

	store    *kv.Store
	frames   *engine.FrameClock
	timer    *engine.SyncTimer
	recorder *replay.Recorder
	ctx      context.Context
	cancel   context.CancelFunc
	loadErr  error

	mu           sync.Mutex
	firstRender  time.Time
	captureQueue []uint32
	captureNext  uint32
}

// New creates a layer.
func New(opts ...Option) *Layer {
	l := &Layer{
		frames: engine.NewFrameClock(),
		period: engine.DefaultPeriod,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Module exposes the layer's probe symbols and interceptors.
func (l *Layer) Module() layer.Module {
	return layer.NewStaticModule("builtin:"+Name, layer.Symbols{
		layer.SymbolName:         func() string { return Name },
		layer.SymbolVersion:      func() string { return Version },
		layer.SymbolInit:         l.Init,
		host.SymbolInitialize:    l.Initialize,
		host.SymbolUpdate:        l.Update,
		host.SymbolQueueEvent:    l.QueueEvent,
		host.SymbolProcessEvents: l.ProcessEvents,
		host.SymbolPostRender:    l.PostRender,
	})
}

// Init reads the configuration. A missing configuration file is not an
// error: the layer stays in ModeNone.
func (l *Layer) Init(env layer.Env) error {
	if env != nil {
		l.store = env.KeyValue()
	}

	if !l.configured && env != nil {
		cfg, err := env.LoadConfig(ConfigFile)
		switch {
		case errors.Is(err, config.ErrNotFound):
			slog.Warn("autoreplay configuration not found", "file", ConfigFile)
		case err != nil:
			return err
		default:
			s, err := SettingsFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Path(), err)
			}
			l.settings = s
		}
		l.configured = true
	}

	if l.settings.DrainTimeout <= 0 {
		l.settings.DrainTimeout = DefaultDrainTimeout
	}

	l.captureQueue = append([]uint32(nil), l.settings.CaptureFrames...)
	l.popCaptureFrame()

	l.publish(KeyMode, uint32(l.settings.Mode))
	l.publish(KeyFrame, l.frames.Current())

	slog.Info("autoreplay configured",
		"mode", l.settings.Mode,
		"record_path", l.settings.RecordPath,
		"replay_path", l.settings.ReplayPath,
		"terminate_on_finish", l.settings.TerminateOnFinish,
		"capture", l.settings.CaptureEnabled,
	)
	return nil
}

func (l *Layer) publish(key string, v uint32) {
	if l.store == nil {
		return
	}
	if err := kv.SetValue(l.store, key, v); err != nil {
		slog.Warn("autoreplay publish failed", "key", key, "error", err)
	}
}

// Initialize starts the sync timer after the host initializes, then loads
// the replay log or prepares the recorder.
func (l *Layer) Initialize(self *dispatch.Node, h *host.Host) {
	h.NextInitialize(self)
	if !self.Enabled() {
		return
	}

	opts := []engine.TimerOption{engine.WithPeriod(l.period)}
	for _, o := range l.observers {
		opts = append(opts, engine.WithObserver(o))
	}
	l.timer = engine.NewSyncTimer(l.frames, h, opts...)
	l.timer.SetGated(l.settings.Mode != ModeRecord)

	l.ctx, l.cancel = context.WithCancel(context.Background())
	if err := l.timer.Start(l.ctx); err != nil {
		slog.Error("sync timer start failed", "error", err)
	}

	switch l.settings.Mode {
	case ModeReplay:
		if _, err := replay.NewReplayer(l.timer).Load(l.ctx, l.settings.ReplayPath); err != nil {
			l.loadErr = err
		}
	case ModeRecord:
		l.recorder = replay.NewRecorder(l.settings.RecordPath, replay.WithFormat(l.settings.RecordFormat))
	}
}

// Update drains due input and runs the update with a fixed timestep.
func (l *Layer) Update(self *dispatch.Node, h *host.Host, in host.UpdateInput, status *host.UpdateStatus) {
	if !self.Enabled() || l.timer == nil {
		h.NextUpdate(self, in, status)
		return
	}

	frame := l.frames.Current()

	if l.settings.Mode == ModeReplay && l.settings.TerminateOnFinish && l.timer.Pending() == 0 {
		slog.Info("replay finished", "frame", frame, "delivered", l.timer.Delivered())
		status.Quit = true
		return
	}

	if l.timer.Running() && l.timer.Pending() > 0 && l.timer.RequestSync() {
		if err := l.timer.WaitForDrain(l.ctx, l.settings.DrainTimeout); err != nil {
			slog.Warn("input drain incomplete", "frame", frame, "error", err)
		}
	}

	now := frame * FrameTimeMillis
	in.ElapsedSeconds = 0.001 * FrameTimeMillis
	in.LastVSyncMillis = now
	in.NextVSyncMillis = now + FrameTimeMillis
	h.NextUpdate(self, in, status)

	status.NeedsNotification = true
	status.KeepUpdating = true
}

// QueueEvent holds back live input in record mode, binding it to the
// current frame.
func (l *Layer) QueueEvent(self *dispatch.Node, h *host.Host, ev input.TouchEvent) {
	if self.Enabled() && l.settings.Mode == ModeRecord && l.timer != nil {
		p := input.Payload{Event: ev.Clone(), Frame: l.frames.Current()}
		if l.timer.QueueEvent(p) {
			return
		}
	}
	h.NextQueueEvent(self, ev)
}

// ProcessEvents stamps and records pending input in record mode.
func (l *Layer) ProcessEvents(self *dispatch.Node, h *host.Host) {
	if self.Enabled() && l.settings.Mode == ModeRecord && l.recorder != nil {
		frame := l.frames.Current()
		h.PendingEvents(func(ev *input.TouchEvent) {
			ev.Time = frame * FrameTimeMillis
			l.recorder.Capture(*ev, frame)
		})
	}
	h.NextProcessEvents(self)
}

// PostRender captures scheduled frames and advances the frame counter.
func (l *Layer) PostRender(self *dispatch.Node, h *host.Host) {
	l.mu.Lock()
	if l.firstRender.IsZero() {
		l.firstRender = time.Now()
		slog.Debug("first frame rendered", "frame", l.frames.Current())
	}
	l.mu.Unlock()

	h.NextPostRender(self)

	if self.Enabled() && l.settings.CaptureEnabled {
		l.capture(h)
	}

	l.publish(KeyFrame, l.frames.Advance())
}

func (l *Layer) capture(h *host.Host) {
	frame := l.frames.Current()

	l.mu.Lock()
	due := (l.captureNext != 0 && frame == l.captureNext) ||
		(l.settings.CaptureInterval > 0 && frame%l.settings.CaptureInterval == 0)
	if due && frame == l.captureNext {
		l.popCaptureFrame()
	}
	l.mu.Unlock()

	if !due {
		return
	}

	var c Capturer = h
	if l.capturer != nil {
		c = l.capturer
	}

	path := fmt.Sprintf("%s_%d.png", l.settings.CapturePrefix, frame)
	slog.Info("capturing frame", "frame", frame, "path", path)
	if err := c.CaptureFrame(path); err != nil {
		slog.Error("frame capture failed", "frame", frame, "path", path, "error", err)
	}
}

// popCaptureFrame advances to the next listed capture frame. Zero means
// none remain.
func (l *Layer) popCaptureFrame() {
	if len(l.captureQueue) == 0 {
		l.captureNext = 0
		return
	}
	l.captureNext = l.captureQueue[0]
	l.captureQueue = l.captureQueue[1:]
}

// Close stops the sync timer and closes the record log.
func (l *Layer) Close() error {
	if l.timer != nil {
		l.timer.Close()
	}
	if l.cancel != nil {
		l.cancel()
	}
	if l.recorder != nil {
		return l.recorder.Close()
	}
	return nil
}

// Settings returns the active settings.
func (l *Layer) Settings() Settings {
	return l.settings
}

// Frame returns the current frame.
func (l *Layer) Frame() uint32 {
	return l.frames.Current()
}

// Timer returns the sync timer, or nil before the host initializes.
func (l *Layer) Timer() *engine.SyncTimer {
	return l.timer
}

// Recorder returns the record log writer, or nil outside record mode.
func (l *Layer) Recorder() *replay.Recorder {
	return l.recorder
}

// LoadErr returns the replay log load failure, if any.
func (l *Layer) LoadErr() error {
	return l.loadErr
}
