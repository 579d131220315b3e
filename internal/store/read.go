package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/vlayer/internal/input"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// Delivery is one stored trace row.
type Delivery struct {
	Seq            int64           `json:"seq"`
	TargetFrame    uint32          `json:"target_frame"`
	DeliveredFrame uint32          `json:"delivered_frame"`
	EventType      input.EventType `json:"event_type"`
	EventTime      uint32          `json:"event_time"`
	PointCount     int             `json:"point_count"`
}

// Divergence describes the first point where two traces differ. A or B
// is nil when one trace ended before the other.
type Divergence struct {
	Index int       `json:"index"`
	A     *Delivery `json:"a,omitempty"`
	B     *Delivery `json:"b,omitempty"`
}

func (d *Divergence) Error() string {
	switch {
	case d.A == nil:
		return fmt.Sprintf("trace A ended at delivery %d", d.Index)
	case d.B == nil:
		return fmt.Sprintf("trace B ended at delivery %d", d.Index)
	default:
		return fmt.Sprintf("traces diverge at delivery %d: %+v != %+v", d.Index, *d.A, *d.B)
	}
}

// GetSession loads one session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode, log_path, seq FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Mode, &sess.LogPath, &sess.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns every session ordered by seq.
//
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, log_path, seq FROM sessions ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Mode, &sess.LogPath, &sess.Seq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadDeliveries returns sessionID's trace ordered by seq.
//
// Returns an empty slice (not nil) if the session has no deliveries.
func (s *Store) ReadDeliveries(ctx context.Context, sessionID string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, target_frame, delivered_frame, event_type, event_time, point_count
		FROM deliveries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.Seq, &d.TargetFrame, &d.DeliveredFrame, &d.EventType, &d.EventTime, &d.PointCount); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// CompareSessions compares two traces delivery by delivery. It returns
// nil when they match and the first Divergence otherwise. Seq values are
// not compared; only the order and content of deliveries matter.
func (s *Store) CompareSessions(ctx context.Context, a, b string) (*Divergence, error) {
	for _, id := range []string{a, b} {
		if _, err := s.GetSession(ctx, id); err != nil {
			return nil, err
		}
	}

	ta, err := s.ReadDeliveries(ctx, a)
	if err != nil {
		return nil, err
	}
	tb, err := s.ReadDeliveries(ctx, b)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(ta) || i < len(tb); i++ {
		switch {
		case i >= len(ta):
			return &Divergence{Index: i, B: &tb[i]}, nil
		case i >= len(tb):
			return &Divergence{Index: i, A: &ta[i]}, nil
		case !sameDelivery(ta[i], tb[i]):
			return &Divergence{Index: i, A: &ta[i], B: &tb[i]}, nil
		}
	}
	return nil, nil
}

func sameDelivery(a, b Delivery) bool {
	a.Seq, b.Seq = 0, 0
	return a == b
}
