package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/vlayer/internal/engine"
	"github.com/roach88/vlayer/internal/input"
)

// Queuer accepts payloads for frame-gated delivery. *engine.SyncTimer
// implements it.
type Queuer interface {
	QueueEvent(p input.Payload) bool
}

// Replayer feeds a recorded log into a Queuer.
type Replayer struct {
	q Queuer
}

// NewReplayer returns a replayer queuing into q.
func NewReplayer(q Queuer) *Replayer {
	return &Replayer{q: q}
}

// ReadLog reads and decodes a whole log file.
func ReadLog(path string) ([]input.Payload, input.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read replay log: %w", err)
	}

	payloads, format, err := input.Decode(data)
	if err != nil {
		return nil, format, fmt.Errorf("decode replay log %s: %w", path, err)
	}
	return payloads, format, nil
}

// WriteLog writes payloads to path as a complete log in format.
func WriteLog(path string, payloads []input.Payload, format input.Format) error {
	if err := os.WriteFile(path, input.Encode(payloads, format), 0o644); err != nil {
		return fmt.Errorf("write replay log: %w", err)
	}
	return nil
}

// Load reads the log at path and queues every record in file order. It
// returns the number of payloads queued. When the file cannot be read or
// any record fails to decode, nothing is queued.
func (r *Replayer) Load(ctx context.Context, path string) (int, error) {
	_, span := otel.Tracer("github.com/roach88/vlayer/internal/replay").Start(ctx, "replay.load")
	defer span.End()
	span.SetAttributes(attribute.String("vlayer.log_path", path))

	payloads, format, err := ReadLog(path)
	if err != nil {
		slog.Error("replay log rejected", "path", path, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "log rejected")
		return 0, err
	}

	n, err := r.Queue(payloads)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue failed")
		return n, err
	}

	span.SetAttributes(
		attribute.String("vlayer.log_format", format.String()),
		attribute.Int("vlayer.records", n),
	)
	slog.Info("replay log loaded", "path", path, "format", format, "records", n)
	return n, nil
}

// Queue queues already decoded payloads in order.
func (r *Replayer) Queue(payloads []input.Payload) (int, error) {
	for i, p := range payloads {
		if !r.q.QueueEvent(p) {
			return i, fmt.Errorf("queue record %d: %w", i, engine.ErrTimerStopped)
		}
	}
	return len(payloads), nil
}
