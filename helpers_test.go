package duplo_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/filesystem"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyFileStorage struct {
	mock.Mock
}

func (s *SpyFileStorage) CreateNew(ctx context.Context, name string) (io.WriteCloser, string, error) {
	args := s.Called(ctx, name)
	w, _ := args.Get(0).(io.WriteCloser)
	return w, args.String(1), args.Error(2)
}

func (s *SpyFileStorage) Open(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	args := s.Called(ctx, name)
	r, _ := args.Get(0).(io.ReadSeekCloser)
	return r, args.Error(1)
}

func (s *SpyFileStorage) Stat(ctx context.Context, name string) (duplo.Entry, error) {
	args := s.Called(ctx, name)
	return args.Get(0).(duplo.Entry), args.Error(1)
}

func (s *SpyFileStorage) Remove(ctx context.Context, name string) error {
	args := s.Called(ctx, name)
	return args.Error(0)
}

func (s *SpyFileStorage) RenameNoReplace(ctx context.Context, from, to string) error {
	args := s.Called(ctx, from, to)
	return args.Error(0)
}

func (s *SpyFileStorage) List(ctx context.Context) ([]duplo.Entry, error) {
	args := s.Called(ctx)
	entries, _ := args.Get(0).([]duplo.Entry)
	return entries, args.Error(1)
}

// memJournal keeps events in memory.
type memJournal struct {
	mu     sync.Mutex
	events []duplo.Event
}

func (j *memJournal) Record(_ context.Context, e duplo.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return nil
}

func (j *memJournal) Recent(_ context.Context, pool string, limit int) ([]duplo.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []duplo.Event
	for i := len(j.events) - 1; i >= 0 && len(out) < limit; i-- {
		if j.events[i].Pool == pool {
			out = append(out, j.events[i])
		}
	}
	return out, nil
}

func (j *memJournal) snapshot() []duplo.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]duplo.Event(nil), j.events...)
}

// failingWriter fails every write after the first limit bytes.
type failingWriter struct {
	limit    int
	written  int
	closed   bool
	closeErr error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	room := w.limit - w.written
	if room <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > room {
		w.written += room
		return room, io.ErrShortWrite
	}
	w.written += len(p)
	return len(p), nil
}

func (w *failingWriter) Close() error {
	w.closed = true
	return w.closeErr
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// chunkReader hands out its chunks one per Read call.
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n == len(r.chunks[0]) {
		r.chunks = r.chunks[1:]
	} else {
		r.chunks[0] = r.chunks[0][n:]
	}
	return n, nil
}

func chunksOf(sizes ...int) *chunkReader {
	r := &chunkReader{}
	for _, n := range sizes {
		r.chunks = append(r.chunks, make([]byte, n))
	}
	return r
}

// errReader returns its data and then err.
type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// newDiskPool returns a pool backed by a temp directory.
func newDiskPool(t *testing.T, maxFiles, maxBytes uint64, cfg duplo.PoolConfig) (*duplo.Pool, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	pool, err := duplo.NewPool("transient", filesystem.NewFileStorage(root), duplo.NewQuotaSet(maxFiles, maxBytes), cfg)
	require.NoError(t, err)

	return pool, dir
}
