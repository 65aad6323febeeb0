package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/config"
	"github.com/sagarc03/duplo/database"
	"github.com/sagarc03/duplo/filesystem"
)

const (
	transientPool = "transient"
	permanentPool = "permanent"
)

// poolSet is the pair of served pools plus the resources they hold open.
type poolSet struct {
	transient *duplo.Pool
	permanent *duplo.Pool
	closers   []func()
}

func (s *poolSet) all() []*duplo.Pool {
	return []*duplo.Pool{s.transient, s.permanent}
}

func (s *poolSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openJournal returns nil when the journal is disabled.
func openJournal(ctx context.Context, cfg config.JournalConfig) (duplo.Journal, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}

	journal, cleanup, err := database.Open(ctx, cfg.Database(), cfg.AutoMigrate)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	slog.Info("connected to journal", "type", cfg.Type)
	return journal, cleanup, nil
}

// openPools opens both pool directories, creating them if needed, and seeds
// each pool's quota counters from what is already on disk.
func openPools(ctx context.Context, cfg *config.Config, pc duplo.PoolConfig) (*poolSet, error) {
	set := &poolSet{}

	open := func(name string, pcfg config.PoolConfig) (*duplo.Pool, error) {
		if err := os.MkdirAll(pcfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", name, err)
		}

		root, err := os.OpenRoot(pcfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s root: %w", name, err)
		}
		set.closers = append(set.closers, func() { _ = root.Close() })

		storage := filesystem.NewFileStorage(root)
		quotas := duplo.NewQuotaSet(pcfg.MaxFiles, pcfg.MaxBytes)

		res, err := quotas.ScanAndAdd(ctx, storage)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}

		slog.Info(fmt.Sprintf("Started, serving %d files and %s", res.Files, humanize.IBytes(res.Bytes)),
			"pool", name,
			"path", pcfg.Path,
			"bytes", res.Bytes,
			"scan_errors", res.Errors,
		)

		return duplo.NewPool(name, storage, quotas, pc)
	}

	var err error
	if set.transient, err = open(transientPool, cfg.Storage.Transient); err != nil {
		set.Close()
		return nil, err
	}
	if set.permanent, err = open(permanentPool, cfg.Storage.Permanent); err != nil {
		set.Close()
		return nil, err
	}

	return set, nil
}

func newReaper(cfg *config.Config, pool *duplo.Pool) (*duplo.Reaper, error) {
	return duplo.NewReaper(duplo.ReaperConfig{
		Pool:      pool,
		TimeOfDay: cfg.Cleanup.TimeUTC,
		MaxAge:    cfg.Cleanup.MaxAge(),
		Interval:  cfg.Cleanup.Interval,
	})
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, errors.New("configuration was not loaded")
	}
	return cfg, nil
}
