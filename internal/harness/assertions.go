package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Phase    string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Phase)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] frame %d (target %d) %s @%d\n",
				ev.Seq, ev.DeliveredFrame, ev.TargetFrame, ev.State, ev.Time)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	phaseName := a.Phase
	if phaseName == "" {
		phaseName = PhaseReplay
	}
	p := result.phase(phaseName)

	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:     a.Type,
			Phase:    phaseName,
			Expected: expected,
			Actual:   actual,
			Trace:    p.Deliveries,
		}
	}

	switch a.Type {
	case AssertFrameCount:
		if got := p.countInFrame(a.Frame); got != a.Count {
			return fail(
				fmt.Sprintf("%d deliveries in frame %d", a.Count, a.Frame),
				fmt.Sprintf("%d deliveries", got),
			)
		}
	case AssertTraceCount:
		if got := len(p.Deliveries); got != a.Count {
			return fail(fmt.Sprintf("%d deliveries", a.Count), fmt.Sprintf("%d deliveries", got))
		}
	case AssertTracesMatch:
		if i, ok := tracesMatch(result.Record.Deliveries, result.Replay.Deliveries); !ok {
			return fail("record and replay traces to match", fmt.Sprintf("first difference at delivery %d", i))
		}
	case AssertQuit:
		if !p.Quit || p.Frames != a.Count {
			return fail(
				fmt.Sprintf("quit after %d frames", a.Count),
				fmt.Sprintf("quit=%t after %d frames", p.Quit, p.Frames),
			)
		}
	case AssertNoThreadViolations:
		if p.ThreadViolations != 0 {
			return fail("no thread violations", fmt.Sprintf("%d violations", p.ThreadViolations))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// tracesMatch compares two traces ignoring seq. It returns the index of
// the first difference.
func tracesMatch(a, b []TraceEvent) (int, bool) {
	for i := 0; i < len(a) || i < len(b); i++ {
		if i >= len(a) || i >= len(b) {
			return i, false
		}
		x, y := a[i], b[i]
		x.Seq, y.Seq = 0, 0
		if x != y {
			return i, false
		}
	}
	return 0, true
}
