package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/input"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session or fails the test.
func createTestSession(t *testing.T, s *Store, mode string) Session {
	t.Helper()
	sess, err := s.CreateSession(context.Background(), mode, "/tmp/"+mode+".log")
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// createTestDelivery builds a one-point touch delivered at frame.
func createTestDelivery(seq int64, frame uint32) engine.Delivery {
	return engine.Delivery{
		Seq: seq,
		Payload: input.Payload{
			Event: input.Tap(0, input.PointStarted, 10, 20, frame*16),
			Frame: frame,
		},
		DeliveredFrame: frame,
	}
}
