package autoreplay

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/roach88/vlayer/internal/config"
	"github.com/roach88/vlayer/internal/input"
)

//go:embed schema.cue
var schema string

// Mode is the layer's operating mode.
type Mode int

const (
	ModeNone Mode = iota
	ModeRecord
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	}
	return "none"
}

// Settings is the layer configuration.
type Settings struct {
	Mode              Mode
	RecordPath        string
	ReplayPath        string
	RecordFormat      input.Format
	TerminateOnFinish bool

	CaptureEnabled  bool
	CapturePrefix   string
	CaptureInterval uint32
	CaptureFrames   []uint32

	DrainTimeout time.Duration
}

// DefaultDrainTimeout bounds how long an update waits for the sync timer.
const DefaultDrainTimeout = time.Second

// SettingsFromConfig validates cfg against the layer schema and reads the
// layer.config fields. Setting both modeRecord and modeReplay selects
// ModeNone.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	if err := cfg.Validate(schema); err != nil {
		return Settings{}, err
	}

	const prefix = "layer.config."
	s := Settings{
		RecordPath:        cfg.GetString(prefix + "recordSimFilePath").Value,
		ReplayPath:        cfg.GetString(prefix + "replaySimFilePath").Value,
		TerminateOnFinish: cfg.GetBool(prefix + "terminateOnFinish").Value,
		CaptureEnabled:    cfg.GetBool(prefix + "captureEnabled").Value,
		CapturePrefix:     cfg.GetString(prefix + "capturePrefix").Value,
		DrainTimeout:      DefaultDrainTimeout,
	}

	if n := cfg.GetInteger(prefix + "captureInterval"); n.Found && n.Value > 0 {
		s.CaptureInterval = uint32(n.Value)
	}
	if frames := config.GetArrayOf[uint32](cfg, prefix+"captureFrames"); frames.Found {
		s.CaptureFrames = frames.Value
	}
	if ms := cfg.GetInteger(prefix + "drainTimeoutMillis"); ms.Found && ms.Value > 0 {
		s.DrainTimeout = time.Duration(ms.Value) * time.Millisecond
	}
	if f := cfg.GetString(prefix + "recordFormat"); f.Found {
		format, err := input.ParseFormat(f.Value)
		if err != nil {
			return Settings{}, fmt.Errorf("layer.config.recordFormat: %w", err)
		}
		s.RecordFormat = format
	}

	record := cfg.GetBool(prefix + "modeRecord").Value
	replay := cfg.GetBool(prefix + "modeReplay").Value
	switch {
	case record && replay:
		s.Mode = ModeNone
	case record:
		s.Mode = ModeRecord
	case replay:
		s.Mode = ModeReplay
	}

	return s, nil
}
