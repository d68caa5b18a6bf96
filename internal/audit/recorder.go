package audit

import (
	"context"
	"sync"
	"time"

	"carconnect/internal/metrics"

	"go.uber.org/zap"
)

// Recorder decouples audit writes from the request path. Record enqueues and returns
// immediately; a single worker publishes to the sink. A full buffer drops the event.
type Recorder struct {
	sink    Sink
	events  chan Event
	timeout time.Duration
	logger  *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewRecorder(sink Sink, buffer int, logger *zap.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		sink:    sink,
		events:  make(chan Event, buffer),
		timeout: 2 * time.Second,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record never blocks and never fails the caller
func (r *Recorder) Record(_ context.Context, e Event) error {
	select {
	case r.events <- e:
	default:
		metrics.AuditEventCounter.WithLabelValues(string(e.Kind), "dropped").Inc()
		r.logger.Warn("audit buffer full, event dropped",
			zap.String("kind", string(e.Kind)),
			zap.String("action", e.Action),
			zap.String("username", e.Username),
		)
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain or ctx to end
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.events) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.sink.Record(ctx, e)
		cancel()
		if err != nil {
			metrics.AuditEventCounter.WithLabelValues(string(e.Kind), "failed").Inc()
			r.logger.Warn("audit event not recorded",
				zap.String("kind", string(e.Kind)),
				zap.String("action", e.Action),
				zap.Error(err),
			)
			continue
		}
		metrics.AuditEventCounter.WithLabelValues(string(e.Kind), "published").Inc()
	}
}
