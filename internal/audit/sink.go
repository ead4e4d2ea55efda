// Package audit provides the asynchronous audit trail sink. Recording an
// event never blocks the calling turn: events go into a bounded buffer and a
// background writer persists them. When the buffer is full the event is
// dropped and counted instead of stalling the conversation flow.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/collectaai/collecta-backend/internal/domain"
)

// eventWriter persists a single audit event.
type eventWriter interface {
	Create(ctx context.Context, e domain.AuditEvent) error
}

// Sink is an asynchronous, bounded audit event recorder.
type Sink struct {
	writer       eventWriter
	log          *slog.Logger
	flushTimeout time.Duration

	events  chan domain.AuditEvent
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewSink creates a sink with the given buffer size and starts its background
// writer. flushTimeout bounds both a single write and the final drain on Close.
func NewSink(writer eventWriter, log *slog.Logger, bufferSize int, flushTimeout time.Duration) *Sink {
	s := &Sink{
		writer:       writer,
		log:          log,
		flushTimeout: flushTimeout,
		events:       make(chan domain.AuditEvent, bufferSize),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues an event without blocking. A zero ID and CreatedAt are
// filled in. If the buffer is full, or the sink is already closed, the event
// is dropped and counted.
func (s *Sink) Record(e domain.AuditEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		n := s.dropped.Add(1)
		s.log.Warn("audit sink closed, event dropped",
			slog.String("event_type", e.EventType),
			slog.Uint64("dropped_total", n),
		)
		return
	}

	select {
	case s.events <- e:
	default:
		n := s.dropped.Add(1)
		s.log.Warn("audit buffer full, event dropped",
			slog.String("event_type", e.EventType),
			slog.Uint64("dropped_total", n),
		)
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits for the buffer to drain, up to the
// flush timeout. Safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-time.After(s.flushTimeout):
		return context.DeadlineExceeded
	}
}

func (s *Sink) run() {
	defer close(s.done)

	for e := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
		if err := s.writer.Create(ctx, e); err != nil {
			s.log.Error("failed to persist audit event",
				slog.String("event_type", e.EventType),
				slog.String("event_id", e.ID.String()),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}
