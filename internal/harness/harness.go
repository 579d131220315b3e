package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/intercept"
	"github.com/roach88/vlayer/internal/layers"
	"github.com/roach88/vlayer/internal/layers/autoreplay"
	"github.com/roach88/vlayer/internal/store"
	"github.com/roach88/vlayer/internal/testutil"
)

// Option configures a Harness.
type Option func(*Harness)

// WithStore records both phases' traces into st and compares them there.
func WithStore(st *store.Store) Option {
	return func(h *Harness) {
		h.store = st
	}
}

// WithWorkDir keeps replay logs in dir instead of a removed temp dir.
func WithWorkDir(dir string) Option {
	return func(h *Harness) {
		h.workDir = dir
	}
}

// WithTickPeriod overrides the sync timer period.
func WithTickPeriod(d time.Duration) Option {
	return func(h *Harness) {
		h.period = d
	}
}

// Harness is the scenario execution engine.
type Harness struct {
	store   *store.Store
	workDir string
	period  time.Duration
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run records the scenario's touches, replays the log in a fresh runtime
// and evaluates the assertions.
//
// Execution flow:
//  1. Record phase: host + built-in layers in record mode, touches fed live
//  2. Replay phase: new runtime, layers in replay mode on the recorded log
//  3. Evaluate assertions (and compare stored sessions when a store is set)
//
// Returned errors are infrastructure failures; assertion failures land in
// Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	format, err := scenario.LogFormat()
	if err != nil {
		return nil, err
	}

	dir := h.workDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "vlayer-harness-*")
		if err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
		defer os.RemoveAll(dir)
	}
	logPath := filepath.Join(dir, scenario.Name+".log")

	slog.Debug("running scenario", "name", scenario.Name, "frames", scenario.Frames, "log", logPath)

	result := NewResult()

	rec, err := h.runPhase(ctx, scenario, dir, PhaseRecord, autoreplay.Settings{
		Mode:         autoreplay.ModeRecord,
		RecordPath:   logPath,
		RecordFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("record phase: %w", err)
	}
	result.Record = *rec

	rep, err := h.runPhase(ctx, scenario, dir, PhaseReplay, autoreplay.Settings{
		Mode:              autoreplay.ModeReplay,
		ReplayPath:        logPath,
		TerminateOnFinish: scenario.Terminate,
	})
	if err != nil {
		return nil, fmt.Errorf("replay phase: %w", err)
	}
	result.Replay = *rep

	if h.store != nil {
		div, err := h.store.CompareSessions(ctx, rec.Session, rep.Session)
		if err != nil {
			return nil, fmt.Errorf("compare sessions: %w", err)
		}
		if div != nil {
			result.AddError(div.Error())
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) runPhase(ctx context.Context, scenario *Scenario, dir, phase string, settings autoreplay.Settings) (*PhaseResult, error) {
	res := &PhaseResult{Deliveries: []TraceEvent{}}

	var mu sync.Mutex
	collect := func(d engine.Delivery) {
		mu.Lock()
		defer mu.Unlock()
		res.Deliveries = append(res.Deliveries, traceEvent(d))
	}

	opts := []autoreplay.Option{
		autoreplay.WithSettings(settings),
		autoreplay.WithObserver(collect),
	}
	if h.period > 0 {
		opts = append(opts, autoreplay.WithTickPeriod(h.period))
	}

	logPath := settings.RecordPath
	if phase == PhaseReplay {
		logPath = settings.ReplayPath
	}
	if h.store != nil {
		sess, err := h.store.CreateSession(ctx, phase, logPath)
		if err != nil {
			return nil, err
		}
		res.Session = sess.ID
		opts = append(opts, autoreplay.WithObserver(h.store.Observer(ctx, sess.ID)))
	}

	set := layers.NewSet(opts...)
	rt := intercept.New(set.Source(), intercept.WithConfigDirs(dir))
	if err := rt.Initialize(); err != nil {
		return nil, err
	}

	clock := testutil.NewStepClock(autoreplay.FrameTimeMillis * time.Millisecond)
	hostOpts := []host.Option{
		host.WithClock(clock.Now),
		host.WithFrameStart(sceneHook(scenario.Frames)),
	}
	if phase == PhaseRecord {
		hostOpts = append(hostOpts, host.WithFrameStart(scenario.Script().Feed))
	}
	hst := host.New(rt, hostOpts...)

	res.Frames, res.Quit = hst.Run(ctx, scenario.Frames)

	if err := set.Close(); err != nil {
		return nil, err
	}
	if err := set.Autoreplay.LoadErr(); err != nil {
		return nil, err
	}

	res.Processed = len(hst.Processed())
	res.ThreadViolations = set.ThreadCheck.Violations()

	slog.Debug("phase complete",
		"phase", phase,
		"frames", res.Frames,
		"quit", res.Quit,
		"deliveries", len(res.Deliveries),
	)
	return res, nil
}

// sceneHook mounts a scene actor on the first frame and unmounts it on the
// last, exercising the actor call sites from the frame thread.
func sceneHook(frames int) func(*host.Host, uint32) {
	scene := host.NewActor("scene")
	return func(h *host.Host, frame uint32) {
		if frame == 1 {
			h.AddActor(h.Root(), scene)
		}
		if int(frame) == frames {
			h.RemoveActor(h.Root(), scene)
		}
	}
}
