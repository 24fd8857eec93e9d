package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpoint/auth-api/internal/api/metrics"
	"github.com/gridpoint/auth-api/internal/core/domain"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// AuditSink is where drained audit entries end up (the Mongo repository in
// production).
type AuditSink interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
}

// Dispatcher decouples audit persistence from the request path: Record is
// non-blocking and entries are drained to the sink by background workers.
// When the buffer is full entries are dropped and counted; audit delivery
// must never add latency or failure modes to authentication.
type Dispatcher struct {
	entries chan domain.AuditEntry
	sink    AuditSink
	log     zerolog.Logger
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers draining workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink AuditSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		entries: make(chan domain.AuditEntry, channelBuffer),
		sink:    sink,
		log:     log,
		workers: numWorkers,
	}
}

// Start launches the worker goroutines. Workers run until Stop closes the
// intake and keep draining whatever is buffered at that point.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(i)
	}
}

// Record enqueues an entry without blocking. Implements ports.AuditRecorder.
func (d *Dispatcher) Record(_ context.Context, entry domain.AuditEntry) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().Str("event", entry.Event).Msg("audit dispatcher stopped, entry dropped")
		return
	}
	select {
	case d.entries <- entry:
		metrics.AuditQueueDepth.Set(float64(len(d.entries)))
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().Str("event", entry.Event).Msg("audit buffer full, entry dropped")
	}
}

// Stop closes the intake and waits for the workers to drain the buffer.
// It returns once the buffer is empty or ctx expires; entries still
// buffered at the deadline are counted as dropped. Safe to call twice.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.entries)
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		if abandoned := len(d.entries); abandoned > 0 {
			metrics.AuditDroppedTotal.Add(float64(abandoned))
			d.log.Warn().Int("abandoned", abandoned).Msg("audit drain deadline exceeded, buffered entries dropped")
		}
	}
}

// Each insert gets its own timeout context so draining keeps working after
// the server's signal context is already cancelled.
func (d *Dispatcher) runWorker(id int) {
	defer d.wg.Done()
	for entry := range d.entries {
		metrics.AuditQueueDepth.Set(float64(len(d.entries)))
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		err := d.sink.Insert(ctx, entry)
		cancel()
		if err != nil {
			d.log.Error().Err(err).
				Str("event", entry.Event).
				Int("worker_id", id).
				Msg("audit persistence failed")
		}
	}
}
