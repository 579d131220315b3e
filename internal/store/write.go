package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/vlayer/internal/engine"
)

// Session identifies one recorded or replayed run.
type Session struct {
	ID      string `json:"id"`
	Mode    string `json:"mode"`
	LogPath string `json:"log_path"`
	Seq     int64  `json:"seq"`
}

// CreateSession inserts a new session with a UUIDv7 ID. Seq is one past
// the highest existing session seq.
func (s *Store) CreateSession(ctx context.Context, mode, logPath string) (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("create session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions`).Scan(&seq); err != nil {
		return Session{}, fmt.Errorf("create session: next seq: %w", err)
	}

	sess := Session{ID: id.String(), Mode: mode, LogPath: logPath, Seq: seq}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, log_path, seq)
		VALUES (?, ?, ?, ?)
	`, sess.ID, sess.Mode, sess.LogPath, sess.Seq)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("create session: commit: %w", err)
	}
	return sess, nil
}

// RecordDelivery inserts one delivery into sessionID's trace.
// Uses ON CONFLICT DO NOTHING for idempotency - a delivery already stored
// under the same seq is silently ignored.
//
// Note: The session referenced by sessionID must exist (foreign key constraint).
func (s *Store) RecordDelivery(ctx context.Context, sessionID string, d engine.Delivery) error {
	ev := d.Payload.Event
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries
		(session_id, seq, target_frame, delivered_frame, event_type, event_time, point_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		d.Seq,
		d.Payload.Frame,
		d.DeliveredFrame,
		uint32(ev.Type),
		ev.Time,
		len(ev.Points),
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Observer returns a timer observer that records every delivery into
// sessionID's trace. Write failures are logged; the drain never stops
// for them.
func (s *Store) Observer(ctx context.Context, sessionID string) engine.Observer {
	return func(d engine.Delivery) {
		if err := s.RecordDelivery(ctx, sessionID, d); err != nil {
			slog.Error("trace write failed", "session", sessionID, "seq", d.Seq, "error", err)
		}
	}
}
