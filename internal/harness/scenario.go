package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vlayer/internal/input"
	"github.com/roach88/vlayer/internal/layers/autoreplay"
	"github.com/roach88/vlayer/internal/testutil"
)

// Scenario defines a record/replay conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Frames is how many frames each phase runs.
	Frames int `yaml:"frames"`

	// Terminate makes the replay phase quit once the log is exhausted.
	Terminate bool `yaml:"terminate,omitempty"`

	// Format selects the record log format: "framed" (default) or "legacy".
	Format string `yaml:"format,omitempty"`

	// Touches is the live input fed during the record phase.
	Touches []Touch `yaml:"touches"`

	// Assertions validate the collected traces.
	Assertions []Assertion `yaml:"assertions"`
}

// Touch is one single-point touch event fed at the start of Frame.
type Touch struct {
	Frame  uint32           `yaml:"frame"`
	Device int32            `yaml:"device,omitempty"`
	State  input.PointState `yaml:"state"`
	X      float32          `yaml:"x"`
	Y      float32          `yaml:"y"`

	// Time is the event timestamp in milliseconds. It defaults to the
	// frame's fixed timestamp so record and replay traces agree.
	Time *uint32 `yaml:"time,omitempty"`
}

// Event returns the touch as an input event.
func (t Touch) Event() input.TouchEvent {
	time := t.Frame * autoreplay.FrameTimeMillis
	if t.Time != nil {
		time = *t.Time
	}
	return input.Tap(t.Device, t.State, t.X, t.Y, time)
}

// Assertion validates a collected trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Phase selects the trace ("record" or "replay"). Defaults to replay.
	Phase string `yaml:"phase,omitempty"`

	// Frame is the delivery frame (used by frame_count).
	Frame uint32 `yaml:"frame,omitempty"`

	// Count is the expected number (used by frame_count, trace_count, quit).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFrameCount         = "frame_count"
	AssertTraceCount         = "trace_count"
	AssertTracesMatch        = "traces_match"
	AssertQuit               = "quit"
	AssertNoThreadViolations = "no_thread_violations"
)

// Phase names.
const (
	PhaseRecord = "record"
	PhaseReplay = "replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Script converts the touches into a frame script for the host.
func (s *Scenario) Script() testutil.FrameScript {
	script := testutil.FrameScript{}
	for _, t := range s.Touches {
		script.Add(t.Frame, t.Event())
	}
	return script
}

// LogFormat returns the record log format.
func (s *Scenario) LogFormat() (input.Format, error) {
	return input.ParseFormat(s.Format)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Frames <= 0 {
		return fmt.Errorf("frames must be positive")
	}

	if _, err := s.LogFormat(); err != nil {
		return err
	}

	for i, t := range s.Touches {
		if t.Frame == 0 {
			return fmt.Errorf("touches[%d]: frame is required (frames start at 1)", i)
		}
		if int(t.Frame) > s.Frames {
			return fmt.Errorf("touches[%d]: frame %d is past the last frame %d", i, t.Frame, s.Frames)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Phase {
	case "", PhaseRecord, PhaseReplay:
	default:
		return fmt.Errorf("unknown phase %q", a.Phase)
	}

	switch a.Type {
	case AssertFrameCount:
		if a.Frame == 0 {
			return fmt.Errorf("%s requires frame", a.Type)
		}
	case AssertTraceCount, AssertTracesMatch, AssertQuit, AssertNoThreadViolations:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
