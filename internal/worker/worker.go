// Package worker consumes queued analyses and sweeps abandoned runs.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/metrics"
)

// Runner executes one analysis to a terminal status.
type Runner interface {
	RunAnalysisPipeline(ctx context.Context, id int64)
}

// Sweeper fails records abandoned in an active status.
type Sweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Pool runs Concurrency consumers against one queue.
type Pool struct {
	Queue         domain.Queue
	Runner        Runner
	Sweeper       Sweeper
	Concurrency   int
	SweepInterval time.Duration
	Log           *zap.Logger
}

// Run blocks until ctx is cancelled. In-flight runs finish first.
func (p *Pool) Run(ctx context.Context) error {
	n := p.Concurrency
	if n <= 0 {
		n = 1
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		worker := i
		g.Go(func() error {
			return p.consume(gctx, log.With(zap.Int("worker", worker)))
		})
	}
	if p.Sweeper != nil {
		g.Go(func() error {
			p.sweep(gctx, log)
			return nil
		})
	}
	log.Info("worker pool started", zap.Int("concurrency", n))

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("worker pool stopped")
	return err
}

func (p *Pool) consume(ctx context.Context, log *zap.Logger) error {
	for {
		id, err := p.Queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("dequeue", zap.Error(err))
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		if depth, err := p.Queue.Len(ctx); err == nil {
			metrics.QueueDepth.Set(float64(depth))
		}
		// runs are not cut short by shutdown; the run timeout bounds them
		p.Runner.RunAnalysisPipeline(context.WithoutCancel(ctx), id)
	}
}

func (p *Pool) sweep(ctx context.Context, log *zap.Logger) {
	interval := p.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.Sweeper.SweepStale(ctx)
			if err != nil {
				log.Error("sweep stale analyses", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Warn("stale analyses failed", zap.Int("count", n))
			}
		}
	}
}
