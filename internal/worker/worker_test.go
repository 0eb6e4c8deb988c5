package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/infra/queue"
)

type recordingRunner struct {
	mu   sync.Mutex
	ids  []int64
	done chan struct{}
	want int
}

func (r *recordingRunner) RunAnalysisPipeline(_ context.Context, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	if len(r.ids) == r.want {
		close(r.done)
	}
}

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) SweepStale(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestPoolConsumesEveryID(t *testing.T) {
	t.Parallel()
	q := queue.NewMemory(16)
	for id := int64(1); id <= 5; id++ {
		if err := q.Enqueue(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	runner := &recordingRunner{done: make(chan struct{}), want: 5}
	sweeper := &countingSweeper{}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{Queue: q, Runner: runner, Sweeper: sweeper, Concurrency: 3, SweepInterval: 10 * time.Millisecond}
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain the queue")
	}
	time.Sleep(30 * time.Millisecond)
	cancel()

	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	seen := map[int64]bool{}
	for _, id := range runner.ids {
		if seen[id] {
			t.Errorf("id %d ran twice", id)
		}
		seen[id] = true
	}
	if len(seen) != 5 {
		t.Errorf("ran %d ids, want 5", len(seen))
	}
	if sweeper.calls.Load() == 0 {
		t.Error("sweeper never ran")
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pool{Queue: queue.NewMemory(1), Runner: &recordingRunner{}, Concurrency: 2}
	if err := p.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
