package duplo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// FileStorage defines the interface for the flat directory backing a pool.
//
// All methods accept a context for cancellation. Names are single path
// elements; implementations must refuse anything that would escape the
// storage root.
type FileStorage interface {
	// CreateNew creates a file that did not exist before and opens it for
	// writing.
	//
	// Returns:
	//   - io.WriteCloser: the new file, which the caller must close
	//   - string: the name actually created, which may carry a numeric
	//     suffix when name was taken
	//   - error: ErrConflict when no free name was found, or other storage errors
	//
	// Implementations must never truncate or reuse an existing file.
	CreateNew(ctx context.Context, name string) (io.WriteCloser, string, error)

	// Open opens a file for reading.
	//
	// Returns:
	//   - io.ReadSeekCloser: file content, which the caller must close
	//   - error: ErrNotFound if the file doesn't exist, or other storage errors
	Open(ctx context.Context, name string) (io.ReadSeekCloser, error)

	// Stat describes a single entry without following symlinks.
	//
	// Returns ErrNotFound if the entry doesn't exist.
	Stat(ctx context.Context, name string) (Entry, error)

	// Remove deletes a single entry.
	//
	// Returns ErrNotFound if the entry doesn't exist.
	Remove(ctx context.Context, name string) error

	// RenameNoReplace moves from to to, failing with ErrConflict if to
	// already exists.
	RenameNoReplace(ctx context.Context, from, to string) error

	// List returns every entry in the directory, sorted by name.
	//
	// Entries whose metadata cannot be read are still returned, with Err set.
	// An error is returned only when the directory itself cannot be read.
	List(ctx context.Context) ([]Entry, error)
}

// Journal persists a history of pool operations.
//
// A journal is a record of what happened, not an index of what exists:
// the directory stays the source of truth for listings and quotas.
type Journal interface {
	// Record appends one event.
	Record(ctx context.Context, e Event) error

	// Recent returns up to limit events of a pool, newest first.
	Recent(ctx context.Context, pool string, limit int) ([]Event, error)
}

// Observer receives notifications about pool activity, typically to export
// metrics. Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveUpload(pool, action, result string, bytes int64)
	ObserveQuotaExceeded(pool, quota string)
	ObserveRemove(pool, result string, bytes int64)
	ObserveSweep(pool string, res SweepResult)
}

// Quota names passed to Observer.ObserveQuotaExceeded.
const (
	QuotaBytes = "bytes"
	QuotaFiles = "files"
)

type nopObserver struct{}

func (nopObserver) ObserveUpload(string, string, string, int64) {}
func (nopObserver) ObserveQuotaExceeded(string, string)         {}
func (nopObserver) ObserveRemove(string, string, int64)         {}
func (nopObserver) ObserveSweep(string, SweepResult)            {}

const (
	// DefaultChunkSize is the read size used when streaming uploads.
	DefaultChunkSize = 32 * 1024
	// DefaultPartialSuffix marks files that were cut short by the byte quota.
	DefaultPartialSuffix = ".partial"
)

// PoolConfig holds optional settings for a Pool.
type PoolConfig struct {
	ChunkSize     int      // Streaming read size (default: 32 KiB)
	PartialSuffix string   // Appended to truncated uploads (default: ".partial")
	Journal       Journal  // Optional operation history
	Observer      Observer // Optional activity hook
}

// Pool is one flat directory of user files with its own quotas.
type Pool struct {
	name          string
	storage       FileStorage
	quotas        *QuotaSet
	chunkSize     int
	partialSuffix string
	journal       Journal
	observer      Observer
}

// NewPool wires storage and quotas into a pool. The quotas are expected to
// be seeded already, usually via QuotaSet.ScanAndAdd.
func NewPool(name string, storage FileStorage, quotas *QuotaSet, cfg PoolConfig) (*Pool, error) {
	if !IsValidFilename(name) {
		return nil, fmt.Errorf("new pool: %w: invalid name %q", ErrInvalidInput, name)
	}
	if storage == nil {
		return nil, fmt.Errorf("new pool %s: %w: storage is required", name, ErrInvalidInput)
	}
	if quotas == nil {
		return nil, fmt.Errorf("new pool %s: %w: quotas are required", name, ErrInvalidInput)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	suffix := cfg.PartialSuffix
	if suffix == "" {
		suffix = DefaultPartialSuffix
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Pool{
		name:          name,
		storage:       storage,
		quotas:        quotas,
		chunkSize:     chunkSize,
		partialSuffix: suffix,
		journal:       cfg.Journal,
		observer:      observer,
	}, nil
}

// Name returns the pool name, which is also its URL prefix.
func (p *Pool) Name() string {
	return p.name
}

// Quotas returns the pool's counters.
func (p *Pool) Quotas() *QuotaSet {
	return p.quotas
}

// Exhausted reports whether the byte quota is already used up, in which case
// every upload is refused before reading any content.
func (p *Pool) Exhausted() bool {
	return p.quotas.Bytes.IsExceeded()
}

// Remove deletes a file and hands its slot and bytes back to the counters.
// Directories and other non-regular entries are never counted, so they are
// reported as not found and left in place.
//
// The size is taken from a stat made before the deletion. If that stat fails
// the file slot is still released but the byte counter is left alone, since
// the amount to release is unknown.
func (p *Pool) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}

	if !IsValidFilename(name) {
		return fmt.Errorf("remove file %q: %w", name, ErrInvalidInput)
	}

	entry, statErr := p.storage.Stat(ctx, name)
	if statErr != nil && !errors.Is(statErr, ErrNotFound) {
		slog.Warn("failed to stat file before removal", "pool", p.name, "name", name, "error", statErr)
	}
	if statErr == nil && entry.Kind != KindRegular {
		p.observer.ObserveRemove(p.name, ResultRejected, 0)
		p.record(ctx, ActionRemove, name, 0, ResultRejected)
		return fmt.Errorf("remove file %s: %s is not a regular file: %w", name, entry.Kind, ErrNotFound)
	}

	if err := p.storage.Remove(ctx, name); err != nil {
		result := ResultFailed
		if errors.Is(err, ErrNotFound) {
			result = ResultRejected
		}
		p.observer.ObserveRemove(p.name, result, 0)
		p.record(ctx, ActionRemove, name, 0, result)
		return fmt.Errorf("remove file %s: %w", name, err)
	}

	p.quotas.Files.Reduce(1)
	var size int64
	if statErr == nil {
		size = entry.Size
		p.quotas.Bytes.Reduce(uint64(max(size, 0)))
	} else {
		slog.Warn("removed file of unknown size, byte usage not adjusted", "pool", p.name, "name", name)
	}

	p.observer.ObserveRemove(p.name, ResultOK, size)
	p.record(ctx, ActionRemove, name, size, ResultOK)
	return nil
}

// List returns the visible files of the pool together with quota warnings.
// Names starting with a dot are hidden. Entries whose metadata cannot be read
// are listed with zero size.
func (p *Pool) List(ctx context.Context) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, fmt.Errorf("list files: %w", err)
	}

	entries, err := p.storage.List(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list files: %w", err)
	}

	visible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if isHidden(e.Name) {
			continue
		}
		if e.Err != nil {
			slog.Warn("failed to read entry metadata", "pool", p.name, "name", e.Name, "error", e.Err)
		}
		visible = append(visible, e)
	}

	return Listing{
		Pool:     p.name,
		Entries:  visible,
		Warnings: p.warnings(),
		Usage:    p.quotas.Snapshot(),
	}, nil
}

func (p *Pool) warnings() []string {
	warnings := []string{}
	if p.quotas.Files.IsExceeded() {
		warnings = append(warnings, WarnTooManyFiles)
	}
	switch {
	case p.quotas.Bytes.IsExceeded():
		warnings = append(warnings, WarnStorageFull)
	case p.quotas.Bytes.IsNearExceeded():
		warnings = append(warnings, WarnStorageNear)
	}
	return warnings
}

// Open returns a stored regular file for download.
func (p *Pool) Open(ctx context.Context, name string) (Entry, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, nil, fmt.Errorf("open file: %w", err)
	}

	if !IsValidFilename(name) {
		return Entry{}, nil, fmt.Errorf("open file %q: %w", name, ErrInvalidInput)
	}

	entry, err := p.storage.Stat(ctx, name)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("open file %s: %w", name, err)
	}
	if entry.Kind != KindRegular {
		return Entry{}, nil, fmt.Errorf("open file %s: %w", name, ErrNotFound)
	}

	f, err := p.storage.Open(ctx, name)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("open file %s: %w", name, err)
	}

	return entry, f, nil
}

// Events returns the most recent journal entries of the pool. Without a
// journal the result is always empty.
func (p *Pool) Events(ctx context.Context, limit int) ([]Event, error) {
	if p.journal == nil {
		return []Event{}, nil
	}

	events, err := p.journal.Recent(ctx, p.name, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// record appends to the journal, if any. Journal failures are logged and
// never fail the operation itself.
func (p *Pool) record(ctx context.Context, action, name string, size int64, result string) {
	if p.journal == nil {
		return
	}

	e := Event{
		ID:        uuid.New(),
		Pool:      p.name,
		Action:    action,
		Name:      name,
		Size:      size,
		Result:    result,
		Remote:    RemoteFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}

	if err := p.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("failed to record event", "pool", p.name, "action", action, "name", name, "error", err)
	}
}

type remoteKey struct{}

// WithRemote attaches the client address to ctx so it ends up in journal events.
func WithRemote(ctx context.Context, remote string) context.Context {
	return context.WithValue(ctx, remoteKey{}, remote)
}

// RemoteFromContext returns the client address stored by WithRemote.
func RemoteFromContext(ctx context.Context) string {
	remote, _ := ctx.Value(remoteKey{}).(string)
	return remote
}
