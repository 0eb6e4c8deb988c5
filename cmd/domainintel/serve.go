package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/domain-intel/internal/infra/httpserver"
	"github.com/bryanwahyu/domain-intel/internal/middleware"
	"github.com/bryanwahyu/domain-intel/internal/worker"
)

func newServeCmd(configPath func() string) *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, configPath())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.redis == nil && !withWorker {
				return errors.New("the in-process queue needs --worker; configure redis.addr to run workers separately")
			}
			return serve(ctx, a, withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "worker", true, "also consume the analysis queue in this process")
	return cmd
}

func serve(ctx context.Context, a *app, withWorker bool) error {
	cfg := a.cfg
	rl := middleware.NewRateLimiter(cfg.Server.RateLimit.RequestsPerMinute, cfg.Server.RateLimit.Burst)
	defer rl.Close()

	handler := httpserver.NewRouter(a.svc, httpserver.Options{
		Log:            a.log,
		APIKeys:        cfg.Server.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    rl,
		Checkers:       a.checkers(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if withWorker {
		g.Go(func() error { return a.pool().Run(gctx) })
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.log.Warn("shutdown error", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

func (a *app) pool() *worker.Pool {
	return &worker.Pool{
		Queue:         a.queue,
		Runner:        a.svc,
		Sweeper:       a.svc,
		Concurrency:   a.cfg.Worker.Concurrency,
		SweepInterval: a.cfg.Worker.SweepInterval,
		Log:           a.log,
	}
}
