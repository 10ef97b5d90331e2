package ingest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"hindsight/internal/fanout"
	"hindsight/internal/frame"
	"hindsight/internal/history"
	"hindsight/internal/logging"
	"hindsight/internal/source"
)

// Ingestor is the single write path into the frame history. Every frame is
// appended to the ring and then mirrored to the fan-out registry; nothing
// else mutates the ring.
type Ingestor struct {
	ring     *history.Ring
	registry *fanout.Registry
	logger   *slog.Logger

	ingested atomic.Uint64
	bytes    atomic.Uint64
	lastTS   atomic.Int64
}

// New constructs an ingestor writing into ring and publishing to registry.
func New(ring *history.Ring, registry *fanout.Registry, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		ring:     ring,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "ingest"),
	}
}

// Ingest appends the frame to the ring and publishes it to every active
// subscription. Frames arriving out of timestamp order are still stored;
// the source owns the monotonicity guarantee and a violation is only logged.
func (i *Ingestor) Ingest(f *frame.Frame) {
	if f == nil {
		return
	}
	f.Sequence = i.ingested.Add(1)
	i.bytes.Add(uint64(f.Size()))

	if prev := i.lastTS.Load(); prev > 0 && f.Timestamp.UnixNano() < prev {
		i.logger.Warn("frame timestamp regression",
			logging.Int64("previous_ns", prev),
			logging.Int64("current_ns", f.Timestamp.UnixNano()),
		)
	}
	i.lastTS.Store(f.Timestamp.UnixNano())

	i.ring.Append(f)
	i.registry.Publish(f)
}

// Run drains src until ctx is cancelled or the source closes its stream.
func (i *Ingestor) Run(ctx context.Context, src source.Source) error {
	i.logger.Info("ingest loop started")
	for {
		select {
		case <-ctx.Done():
			i.logger.Info("ingest loop stopped", logging.Uint64("frames", i.ingested.Load()))
			return ctx.Err()
		case f, ok := <-src.Frames():
			if !ok {
				i.logger.Info("source closed", logging.Uint64("frames", i.ingested.Load()))
				return nil
			}
			i.Ingest(f)
		}
	}
}

// Stats reports ingest counters for the status surface.
func (i *Ingestor) Stats() Stats {
	var last time.Time
	if ns := i.lastTS.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		Ingested:      i.ingested.Load(),
		Bytes:         i.bytes.Load(),
		LastTimestamp: last,
		Buffered:      i.ring.Len(),
		Subscribers:   i.registry.Len(),
	}
}

// Stats summarizes the ingest path for status reporting.
type Stats struct {
	Ingested      uint64
	Bytes         uint64
	LastTimestamp time.Time
	Buffered      int
	Subscribers   int
}
