package queue

import (
	"context"
	"errors"
)

// ErrFull is returned when the in-process queue has no room left.
var ErrFull = errors.New("queue is full")

// Memory is an in-process queue for single-binary deployments.
type Memory struct {
	ch chan int64
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1024
	}
	return &Memory{ch: make(chan int64, size)}
}

func (q *Memory) Enqueue(ctx context.Context, id int64) error {
	select {
	case q.ch <- id:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFull
	}
}

func (q *Memory) Dequeue(ctx context.Context) (int64, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (q *Memory) Len(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}
