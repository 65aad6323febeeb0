package duplo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// nearExceededRatio is the fraction of the ceiling at which a counter
// starts reporting IsNearExceeded.
const nearExceededRatio = 0.9

// QuotaCounter is a lock-free usage counter with a fixed ceiling.
//
// Bump reserves before checking, so concurrent callers never both slip
// under the ceiling on the same headroom. A caller that is refused must
// hand its reservation back with Reduce.
type QuotaCounter struct {
	ceiling uint64
	current atomic.Uint64
}

// NewQuotaCounter returns a counter at zero with the given ceiling.
func NewQuotaCounter(ceiling uint64) *QuotaCounter {
	return &QuotaCounter{ceiling: ceiling}
}

// Bump adds n and reports whether the counter is now above its ceiling.
// The addition is kept in either case.
func (q *QuotaCounter) Bump(n uint64) bool {
	return q.current.Add(n) > q.ceiling
}

// Reduce subtracts n, clamping at zero.
func (q *QuotaCounter) Reduce(n uint64) {
	for {
		cur := q.current.Load()
		next := uint64(0)
		if cur > n {
			next = cur - n
		}
		if q.current.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Remaining returns the headroom left under the ceiling, or zero when the
// counter is at or above it.
func (q *QuotaCounter) Remaining() uint64 {
	cur := q.current.Load()
	if cur >= q.ceiling {
		return 0
	}
	return q.ceiling - cur
}

// IsExceeded reports whether the counter has reached its ceiling.
func (q *QuotaCounter) IsExceeded() bool {
	return q.current.Load() >= q.ceiling
}

// IsNearExceeded reports whether the counter is at or above 90% of its ceiling.
func (q *QuotaCounter) IsNearExceeded() bool {
	return float64(q.current.Load()) >= float64(q.ceiling)*nearExceededRatio
}

// Current returns the counter value.
func (q *QuotaCounter) Current() uint64 {
	return q.current.Load()
}

// Ceiling returns the configured ceiling.
func (q *QuotaCounter) Ceiling() uint64 {
	return q.ceiling
}

// QuotaSet holds the byte and file counters of one pool.
type QuotaSet struct {
	Bytes *QuotaCounter
	Files *QuotaCounter
}

// NewQuotaSet returns a pair of counters at zero.
func NewQuotaSet(maxFiles, maxBytes uint64) *QuotaSet {
	return &QuotaSet{
		Bytes: NewQuotaCounter(maxBytes),
		Files: NewQuotaCounter(maxFiles),
	}
}

// ScanAndAdd lists storage once and charges every entry with readable
// metadata against the counters. Entries whose metadata cannot be read are
// logged and left out. Only a failure to list the directory is an error.
//
// The counters are bumped without regard to their ceilings: a directory that
// is already over quota simply starts out exceeded.
func (s *QuotaSet) ScanAndAdd(ctx context.Context, storage FileStorage) (ScanResult, error) {
	entries, err := storage.List(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan storage: %w", err)
	}

	var res ScanResult
	for _, e := range entries {
		if e.Err != nil {
			slog.Error("failed to read entry metadata", "name", e.Name, "error", e.Err)
			res.Errors++
			continue
		}
		size := uint64(max(e.Size, 0))
		s.Files.Bump(1)
		s.Bytes.Bump(size)
		res.Files++
		res.Bytes += size
	}

	return res, nil
}

// Snapshot returns the current counter values and ceilings.
func (s *QuotaSet) Snapshot() QuotaUsage {
	return QuotaUsage{
		Bytes:        s.Bytes.Current(),
		BytesCeiling: s.Bytes.Ceiling(),
		Files:        s.Files.Current(),
		FilesCeiling: s.Files.Ceiling(),
	}
}
