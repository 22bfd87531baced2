package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
)

// queueSize bounds how many lines may wait for the database.
const queueSize = 256

// Inserter persists one entry; *Store satisfies it.
type Inserter interface {
	Insert(ctx context.Context, e Entry) (int64, error)
}

// Recorder writes entries on a background goroutine so the poll loop never
// waits on disk. Lines arriving while the queue is full are dropped.
type Recorder struct {
	dst Inserter
	log zerolog.Logger
	now func() time.Time

	queue chan Entry
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewRecorder starts a recorder writing to dst.
func NewRecorder(dst Inserter, log zerolog.Logger) *Recorder {
	r := &Recorder{
		dst:   dst,
		log:   log,
		now:   time.Now,
		queue: make(chan Entry, queueSize),
		done:  make(chan struct{}),
	}
	go func() {
		defer recovery.HandlePanicFunc(func() { close(r.done) })
		r.drain()
		close(r.done)
	}()
	return r
}

// Record queues a transcript line without blocking.
func (r *Recorder) Record(line, text string, wpm int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.queue <- Entry{At: r.now(), WPM: wpm, Transcript: line, Text: text}:
	default:
		r.dropped++
		r.log.Warn().Int("dropped", r.dropped).Msg("history queue full")
	}
}

func (r *Recorder) drain() {
	for e := range r.queue {
		if _, err := r.dst.Insert(context.Background(), e); err != nil {
			r.log.Error().Err(err).Msg("record history")
		}
	}
}

// Close flushes queued entries and stops the writer. It does not close dst.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped reports how many lines were lost to a full queue.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
