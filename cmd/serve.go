package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/config"
	"github.com/sells-group/meditrek/internal/dispatch"
	"github.com/sells-group/meditrek/internal/server"
	"github.com/sells-group/meditrek/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(config.ModeServe); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(a.service, a.store, server.Config{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RatePerClient:  cfg.Server.RatePerClient,
			BurstPerClient: cfg.Server.BurstPerClient,
		})

		sched, err := startSweeper(ctx, cfg, a.dispatcher, a.store, srv.Limiter())
		if err != nil {
			return err
		}
		defer sched.Stop()

		httpSrv := srv.HTTPServer(fmt.Sprintf(":%d", cfg.Server.Port))

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSecs)*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.Provider),
			zap.String("store", cfg.Store.Driver),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// startSweeper schedules the periodic cache, history and rate limiter purge.
func startSweeper(ctx context.Context, c *config.Config, d *dispatch.Dispatcher, st store.Store, limiter *server.RateLimiter) (*gocron.Scheduler, error) {
	interval := 10 * time.Minute
	if c.CacheSweep.Interval != "" {
		parsed, err := time.ParseDuration(c.CacheSweep.Interval)
		if err != nil {
			return nil, eris.Wrap(err, "parse cache_sweep.interval")
		}
		interval = parsed
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(interval).WaitForSchedule().Do(func() {
		r, err := sweep(ctx, d, st, c.Store.Retention(), time.Now())
		if err != nil {
			zap.L().Error("sweep failed", zap.Error(err))
			return
		}
		zap.L().Info("sweep complete",
			zap.Int("cache_entries_purged", r.Purged),
			zap.Int("cache_entries", r.Cache.Entries),
			zap.Uint64("cache_hits", r.Cache.Hits),
			zap.Uint64("cache_misses", r.Cache.Misses),
			zap.Int("consultations_deleted", r.Deleted),
			zap.Int("rate_limit_buckets_dropped", limiter.Sweep()),
		)
	})
	if err != nil {
		return nil, eris.Wrap(err, "schedule sweep")
	}
	s.StartAsync()
	return s, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
