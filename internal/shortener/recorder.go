package shortener

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultClickQueueSize     = 10000
	DefaultClickWorkers       = 2
	DefaultClickBatchSize     = 100
	DefaultClickFlushInterval = 2 * time.Second

	clickFlushTimeout = 5 * time.Second
)

var (
	ErrRecorderFull   = errors.New("click queue is full")
	ErrRecorderClosed = errors.New("click recorder is closed")
)

// ClickRecorder accepts clicks produced by redirects.
type ClickRecorder interface {
	Record(ctx context.Context, click Click) error
	// Close persists everything accepted so far and releases the recorder.
	Close(ctx context.Context) error
}

/***************
 * Sync
 ***************/

// SyncRecorder writes each click inline.
type SyncRecorder struct {
	store ClickStore
}

func NewSyncRecorder(store ClickStore) *SyncRecorder {
	return &SyncRecorder{store: store}
}

func (r *SyncRecorder) Record(ctx context.Context, click Click) error {
	_, err := r.store.CreateClick(ctx, click)
	return err
}

func (r *SyncRecorder) Close(context.Context) error { return nil }

/***************
 * Async
 ***************/

// AsyncRecorder queues clicks and writes them in batches from a fixed set of
// workers. Record never blocks; when the queue is full the click is dropped.
type AsyncRecorder struct {
	store         ClickStore
	logger        *slog.Logger
	queue         chan Click
	batchSize     int
	flushInterval time.Duration

	mu       sync.RWMutex
	closed   bool
	group    errgroup.Group
	finished chan struct{}

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// AsyncRecorderConfig holds configuration for the async recorder.
type AsyncRecorderConfig struct {
	QueueSize     int
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	Logger        *slog.Logger
}

// RecorderStats counts clicks by outcome.
type RecorderStats struct {
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
	Failed  int64 `json:"failed"`
}

// NewAsyncRecorder starts the workers. Callers must Close the recorder to
// flush pending clicks.
func NewAsyncRecorder(store ClickStore, config *AsyncRecorderConfig) *AsyncRecorder {
	if config == nil {
		config = &AsyncRecorderConfig{}
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultClickQueueSize
	}
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultClickWorkers
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultClickBatchSize
	}
	interval := config.FlushInterval
	if interval <= 0 {
		interval = DefaultClickFlushInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &AsyncRecorder{
		store:         store,
		logger:        logger,
		queue:         make(chan Click, queueSize),
		batchSize:     batchSize,
		flushInterval: interval,
		finished:      make(chan struct{}),
	}

	for range workers {
		r.group.Go(func() error {
			r.run()
			return nil
		})
	}
	go func() {
		_ = r.group.Wait()
		close(r.finished)
	}()

	return r
}

// Record enqueues click. The request context is not retained: clicks are
// written after the redirect response has been sent.
func (r *AsyncRecorder) Record(_ context.Context, click Click) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return ErrRecorderClosed
	}

	select {
	case r.queue <- click:
		return nil
	default:
		r.dropped.Add(1)
		return ErrRecorderFull
	}
}

// Close stops accepting clicks, drains the queue and waits for the workers.
// It returns ctx.Err() if the workers are still flushing when ctx ends; they
// keep running until the queue is empty.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// done is closed once every worker has exited.
func (r *AsyncRecorder) done() <-chan struct{} {
	return r.finished
}

func (r *AsyncRecorder) stats() RecorderStats {
	return RecorderStats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
		Failed:  r.failed.Load(),
	}
}

func (r *AsyncRecorder) run() {
	batch := make([]Click, 0, r.batchSize)
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case click, ok := <-r.queue:
			if !ok {
				r.flush(batch)
				return
			}
			batch = append(batch, click)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (r *AsyncRecorder) flush(batch []Click) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), clickFlushTimeout)
	defer cancel()

	n, err := r.store.CreateClicks(ctx, batch)
	if err != nil {
		r.failed.Add(int64(len(batch)))
		r.logger.ErrorContext(ctx, "failed to write click batch",
			"batch_size", len(batch),
			"error", err.Error(),
		)
		return
	}
	r.written.Add(n)
}
