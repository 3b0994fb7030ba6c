// Package archive buffers observed ticks and flushes them to a tick
// archive in batches. Archival never blocks the trading loop: a full
// buffer drops the oldest points and a failed flush drops the batch.
package archive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benhexie/sol-sniper/internal/storage"
)

const (
	defaultBatchSize     = 256
	defaultFlushInterval = 5 * time.Second
)

// bufferFactor bounds the buffer at a multiple of the batch size when
// the sink cannot keep up.
const bufferFactor = 4

// Batcher accumulates tick points and flushes on size or interval.
type Batcher struct {
	sink          storage.TickArchive
	batchSize     int
	maxBuffered   int
	flushInterval time.Duration
	log           zerolog.Logger

	mu  sync.Mutex
	buf []storage.TickPoint

	flushCh chan struct{}
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithBatchSize overrides the flush-on-size threshold.
func WithBatchSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithFlushInterval overrides the periodic flush cadence.
func WithFlushInterval(d time.Duration) Option {
	return func(b *Batcher) {
		if d > 0 {
			b.flushInterval = d
		}
	}
}

// NewBatcher creates a batcher writing to sink.
func NewBatcher(sink storage.TickArchive, log zerolog.Logger, opts ...Option) *Batcher {
	b := &Batcher{
		sink:          sink,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		log:           log,
		flushCh:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.maxBuffered = bufferFactor * b.batchSize
	b.buf = make([]storage.TickPoint, 0, b.batchSize)
	return b
}

// Add queues one tick point, dropping the oldest buffered points past
// the buffer bound. Safe for concurrent use.
func (b *Batcher) Add(p storage.TickPoint) {
	b.mu.Lock()
	b.buf = append(b.buf, p)
	if over := len(b.buf) - b.maxBuffered; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	full := len(b.buf) >= b.batchSize
	b.mu.Unlock()

	if full {
		select {
		case b.flushCh <- struct{}{}:
		default:
		}
	}
}

// Run flushes on size and interval until the context is cancelled, then
// performs a final flush.
func (b *Batcher) Run(ctx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flush(context.Background())
			return
		case <-b.flushCh:
			b.flush(ctx)
		case <-ticker.C:
			b.flush(ctx)
		}
	}
}

// flush swaps out the buffer and sends it. Errors are logged and the batch
// dropped; ticks are observability data, not trading state.
func (b *Batcher) flush(ctx context.Context) {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buf
	b.buf = make([]storage.TickPoint, 0, b.batchSize)
	b.mu.Unlock()

	if err := b.sink.InsertBatch(ctx, batch); err != nil {
		b.log.Warn().Err(err).Int("points", len(batch)).Msg("tick archive flush failed, batch dropped")
	}
}

// Pending reports the number of buffered points, for tests and metrics.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
