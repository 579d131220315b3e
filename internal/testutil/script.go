package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/roach88/vlayer/internal/host"
	"github.com/roach88/vlayer/internal/input"
)

// FrameScript maps 1-based frame numbers to the live input a host
// receives at the start of that frame.
type FrameScript map[uint32][]input.TouchEvent

// Add appends ev to frame's input.
func (s FrameScript) Add(frame uint32, ev input.TouchEvent) {
	s[frame] = append(s[frame], ev)
}

// Feed queues frame's input through the host's QueueEvent call site. Its
// signature matches host.WithFrameStart.
func (s FrameScript) Feed(h *host.Host, frame uint32) {
	for _, ev := range s[frame] {
		h.QueueEvent(ev)
	}
}

// Frames returns the scripted frames in ascending order.
func (s FrameScript) Frames() []uint32 {
	frames := make([]uint32, 0, len(s))
	for f := range s {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return frames
}

// Len returns the total number of scripted events.
func (s FrameScript) Len() int {
	n := 0
	for _, evs := range s {
		n += len(evs)
	}
	return n
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
