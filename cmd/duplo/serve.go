package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/duplo"
	duplohttp "github.com/sagarc03/duplo/http"
	"github.com/sagarc03/duplo/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the duplo HTTP server and the daily sweep of the transient pool.

The process exits with status 4 if the sweep can no longer list the
transient directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, closeJournal, err := openJournal(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer closeJournal()

	var collector *metrics.Collector
	poolCfg := duplo.PoolConfig{
		ChunkSize: cfg.Server.ChunkSize,
		Journal:   journal,
	}
	if cfg.Metrics.Enabled {
		collector = metrics.New(metrics.Config{})
		poolCfg.Observer = collector
	}

	pools, err := openPools(ctx, cfg, poolCfg)
	if err != nil {
		return err
	}
	defer pools.Close()

	handlerConfig := duplohttp.HandlerConfig{
		DefaultPool: transientPool,
		CORS:        cfg.CORS,
	}
	if collector != nil {
		for _, p := range pools.all() {
			if err := collector.WatchPool(p); err != nil {
				return fmt.Errorf("register pool metrics: %w", err)
			}
		}
		handlerConfig.Metrics = collector.Handler()
		handlerConfig.MetricsPath = cfg.Metrics.Path
	}

	handler := duplohttp.NewHandler(&handlerConfig, pools.transient, pools.permanent)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
		// Uploads stream for as long as the client sends; only headers are bounded.
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", cfg.Server.Addr, "public_url", cfg.Server.PublicURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		return nil
	})

	if cfg.Cleanup.Enabled {
		reaper, err := newReaper(cfg, pools.transient)
		if err != nil {
			return fmt.Errorf("create reaper: %w", err)
		}

		slog.Info("sweep scheduled",
			"pool", transientPool,
			"next", reaper.NextScheduled(time.Now()),
			"max_age", cfg.Cleanup.MaxAge(),
		)

		g.Go(func() error {
			return reaper.Run(gctx)
		})
	}

	return g.Wait()
}
