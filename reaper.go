package duplo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepInterval is how often the reaper sweeps between its daily runs.
const DefaultSweepInterval = time.Minute

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ReaperConfig configures a Reaper.
type ReaperConfig struct {
	Pool      *Pool
	TimeOfDay string           // Daily sweep time in UTC, "HH:MM:SS"
	MaxAge    time.Duration    // Files at least this old are removed
	Interval  time.Duration    // Sweep interval between daily runs (default: 1m)
	Now       func() time.Time // Clock (default: time.Now)
}

// Reaper removes files older than a maximum age from a pool. It sweeps once
// a day at a fixed UTC time and, in between, on a short interval so space
// freed by expiring files becomes usable without waiting a day.
type Reaper struct {
	pool     *Pool
	schedule cron.Schedule
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewReaper validates cfg and builds the daily schedule.
func NewReaper(cfg ReaperConfig) (*Reaper, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("new reaper: %w: pool is required", ErrInvalidInput)
	}
	if cfg.MaxAge < 0 {
		return nil, fmt.Errorf("new reaper: %w: negative max age %s", ErrInvalidInput, cfg.MaxAge)
	}

	schedule, err := ParseTimeOfDay(cfg.TimeOfDay)
	if err != nil {
		return nil, fmt.Errorf("new reaper: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Reaper{
		pool:     cfg.Pool,
		schedule: schedule,
		maxAge:   cfg.MaxAge,
		interval: interval,
		now:      now,
	}, nil
}

// ParseTimeOfDay turns "HH:MM:SS" into a schedule firing daily at that UTC time.
func ParseTimeOfDay(s string) (cron.Schedule, error) {
	t, err := time.Parse(time.TimeOnly, s)
	if err != nil {
		return nil, fmt.Errorf("parse time of day %q: %w", s, ErrInvalidInput)
	}

	spec := fmt.Sprintf("CRON_TZ=UTC %d %d %d * * *", t.Second(), t.Minute(), t.Hour())
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return schedule, nil
}

// NextScheduled returns the first daily sweep strictly after now. If today's
// time has passed the result is tomorrow.
func (r *Reaper) NextScheduled(now time.Time) time.Time {
	return r.schedule.Next(now.UTC())
}

// Run sweeps until ctx is cancelled, which is not an error. It returns an
// error wrapping ErrReaperFatal as soon as a sweep cannot list the pool.
func (r *Reaper) Run(ctx context.Context) error {
	next := r.NextScheduled(r.now())
	daily := time.NewTimer(next.Sub(r.now()))
	defer daily.Stop()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("reaper started", "pool", r.pool.Name(), "next", next, "interval", r.interval, "max_age", r.maxAge)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-daily.C:
			next = r.NextScheduled(r.now())
			daily.Reset(next.Sub(r.now()))
			slog.Debug("daily sweep", "pool", r.pool.Name(), "next", next)
		case <-ticker.C:
		}

		if _, err := r.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("run reaper %s: %w: %w", r.pool.Name(), ErrReaperFatal, err)
		}
	}
}

// Sweep makes one pass over the pool, removing regular files whose age is at
// least the maximum age. Directories and symlinks are skipped. Files with a
// modification time in the future, or one that cannot be read, are kept.
// A file that cannot be removed is counted as failed and the pass goes on.
//
// The only error is a failure to list the pool or a cancelled ctx.
func (r *Reaper) Sweep(ctx context.Context) (SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w", err)
	}

	entries, err := r.pool.storage.List(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w", err)
	}

	now := r.now()
	var res SweepResult
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sweep: %w", err)
		}

		if e.Kind != KindRegular {
			res.Skipped++
			continue
		}
		if !r.expired(now, e) {
			res.Retained++
			continue
		}

		if err := r.pool.storage.Remove(ctx, e.Name); err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("failed to remove expired file", "pool", r.pool.Name(), "name", e.Name, "error", err)
			}
			res.Failed++
			continue
		}

		size := uint64(max(e.Size, 0))
		r.pool.quotas.Files.Reduce(1)
		r.pool.quotas.Bytes.Reduce(size)
		res.Removed++
		res.FreedBytes += size
		r.pool.record(ctx, ActionSweep, e.Name, e.Size, ResultOK)
	}

	r.pool.observer.ObserveSweep(r.pool.Name(), res)
	if res.Removed > 0 || res.Failed > 0 {
		slog.Info("sweep finished", "pool", r.pool.Name(),
			"removed", res.Removed, "failed", res.Failed, "retained", res.Retained, "freed", res.FreedBytes)
	}

	return res, nil
}

func (r *Reaper) expired(now time.Time, e Entry) bool {
	if e.Err != nil || e.ModTime.IsZero() {
		return false
	}
	age := now.Sub(e.ModTime)
	if age < 0 {
		return false
	}
	return age >= r.maxAge
}
