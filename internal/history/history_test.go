package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_InsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	lines := []Entry{
		{At: base, WPM: 10, Transcript: ".", Text: "E"},
		{At: base.Add(time.Second), WPM: 10, Transcript: ".,", Text: "E"},
		{At: base.Add(2 * time.Second), WPM: 12, Transcript: ".,-", Text: "ET"},
	}
	for _, e := range lines {
		id, err := s.Insert(ctx, e)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ".,-", got[0].Transcript)
	assert.Equal(t, "ET", got[0].Text)
	assert.Equal(t, 12, got[0].WPM)
	assert.True(t, got[0].At.Equal(base.Add(2*time.Second)))
	assert.Equal(t, ".,", got[1].Transcript)
}

func TestStore_RecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_RecentInvalidLimit(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Recent(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(context.Background(), Entry{At: time.Now(), WPM: 20, Transcript: "-", Text: "T"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T", got[0].Text)
}

func TestRecorder_WritesThroughToStore(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s, zerolog.Nop())

	r.Record(".", "E", 10)
	r.Record(".,", "E", 10)
	r.Close()

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ".,", got[0].Transcript)
	assert.Equal(t, ".", got[1].Transcript)
}

// blockingInserter holds every insert until released.
type blockingInserter struct {
	release chan struct{}
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (b *blockingInserter) Insert(_ context.Context, e Entry) (int64, error) {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.entries = append(b.entries, e)
	return int64(len(b.entries)), nil
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	dst := &blockingInserter{release: make(chan struct{})}
	r := NewRecorder(dst, zerolog.Nop())

	// One entry may already be held by the writer; the rest fill the queue.
	total := queueSize + 10
	for i := 0; i < total; i++ {
		r.Record(".", "E", 10)
	}
	assert.GreaterOrEqual(t, r.Dropped(), 9)

	close(dst.release)
	r.Close()
	assert.Equal(t, total-r.Dropped(), len(dst.entries))
}

func TestRecorder_RecordAfterCloseIgnored(t *testing.T) {
	dst := &blockingInserter{release: make(chan struct{})}
	close(dst.release)
	r := NewRecorder(dst, zerolog.Nop())
	r.Close()

	r.Record("-", "T", 10)
	r.Close()
	assert.Empty(t, dst.entries)
}

func TestRecorder_InsertErrorKeepsDraining(t *testing.T) {
	dst := &blockingInserter{release: make(chan struct{}), err: errors.New("disk full")}
	close(dst.release)
	r := NewRecorder(dst, zerolog.Nop())

	r.Record(".", "E", 10)
	r.Record("-", "T", 10)
	r.Close()
	assert.Empty(t, dst.entries)
}

func TestRecorder_Timestamps(t *testing.T) {
	dst := &blockingInserter{release: make(chan struct{})}
	close(dst.release)
	r := NewRecorder(dst, zerolog.Nop())
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.mu.Lock()
	r.now = func() time.Time { return at }
	r.mu.Unlock()

	r.Record("..", "I", 15)
	r.Close()

	require.Len(t, dst.entries, 1)
	assert.Equal(t, Entry{At: at, WPM: 15, Transcript: "..", Text: "I"}, dst.entries[0])
}
