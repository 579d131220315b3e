package input

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EventType identifies the kind of input event.
type EventType uint32

const (
	EventTouch EventType = iota
	EventHover
	EventKey
	EventWheel
)

func (t EventType) String() string {
	switch t {
	case EventTouch:
		return "touch"
	case EventHover:
		return "hover"
	case EventKey:
		return "key"
	case EventWheel:
		return "wheel"
	}
	return fmt.Sprintf("event(%d)", uint32(t))
}

// PointState is the phase of a single touch point.
type PointState uint32

const (
	PointStarted PointState = iota
	PointFinished
	PointMotion
	PointLeave
	PointStationary
	PointInterrupted
)

func (s PointState) String() string {
	switch s {
	case PointStarted:
		return "started"
	case PointFinished:
		return "finished"
	case PointMotion:
		return "motion"
	case PointLeave:
		return "leave"
	case PointStationary:
		return "stationary"
	case PointInterrupted:
		return "interrupted"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// ParsePointState parses the String form of a PointState.
func ParsePointState(s string) (PointState, error) {
	for st := PointStarted; st <= PointInterrupted; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown point state %q", s)
}

// UnmarshalYAML accepts either the state name or its number.
func (s *PointState) UnmarshalYAML(value *yaml.Node) error {
	if n, err := strconv.ParseUint(value.Value, 10, 32); err == nil {
		*s = PointState(n)
		return nil
	}
	st, err := ParsePointState(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = st
	return nil
}

// Point is one contact of a touch event.
type Point struct {
	Device   int32      `json:"device" yaml:"device"`
	State    PointState `json:"state" yaml:"state"`
	ScreenX  float32    `json:"screen_x" yaml:"x"`
	ScreenY  float32    `json:"screen_y" yaml:"y"`
	RadiusX  float32    `json:"radius_x" yaml:"radius_x"`
	RadiusY  float32    `json:"radius_y" yaml:"radius_y"`
	Pressure float32    `json:"pressure" yaml:"pressure"`
	Angle    float32    `json:"angle" yaml:"angle"`
}

// TouchEvent is a timestamped multi-point input event. Time is in
// milliseconds.
type TouchEvent struct {
	Type   EventType `json:"type"`
	Time   uint32    `json:"time"`
	Points []Point   `json:"points"`
}

// Clone returns a deep copy of e.
func (e TouchEvent) Clone() TouchEvent {
	out := e
	if e.Points != nil {
		out.Points = append([]Point(nil), e.Points...)
	}
	return out
}

// Payload is an event bound to the frame it must be delivered in.
type Payload struct {
	Event TouchEvent `json:"event"`
	Frame uint32     `json:"frame"`
}

// Tap returns a single-point touch event.
func Tap(device int32, state PointState, x, y float32, time uint32) TouchEvent {
	return TouchEvent{
		Type: EventTouch,
		Time: time,
		Points: []Point{{
			Device:   device,
			State:    state,
			ScreenX:  x,
			ScreenY:  y,
			RadiusX:  1,
			RadiusY:  1,
			Pressure: 1,
		}},
	}
}
