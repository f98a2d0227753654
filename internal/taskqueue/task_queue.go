package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
)

// ErrQueueClosed is returned when a task is submitted after Close
var ErrQueueClosed = errors.New("queue closed")

// Task is a unit of work producing a T. Its result is delivered on the channel
// handed out by Submit.
type Task[T any] struct {
	ctx         context.Context
	ExecuteFunc func() (T, error)
	done        chan Result[T]
}

// Result is the outcome of one executed task
type Result[T any] struct {
	Value T
	Err   error
}

// Execute runs the task unless its context was cancelled while it was waiting
// in the queue. A task that has started always runs to completion.
func (t Task[T]) Execute() {
	var res Result[T]
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic in task execution: %v", r)
		}
		t.done <- res
	}()

	if err := t.ctx.Err(); err != nil {
		res.Err = err
		return
	}

	res.Value, res.Err = t.ExecuteFunc()
}

// Queue executes tasks sequentially, in submission order
type Queue struct {
	pool *workerpool.WorkerPool
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a new task queue
func NewQueue() *Queue {
	// Use a pool size of 1 to ensure sequential execution
	return &Queue{
		pool: workerpool.New(1),
	}
}

// Submit enqueues fn and returns a channel that receives its result once.
func Submit[T any](ctx context.Context, q *Queue, fn func() (T, error)) (<-chan Result[T], error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	task := Task[T]{
		ctx:         ctx,
		ExecuteFunc: fn,
		done:        make(chan Result[T], 1),
	}

	q.wg.Add(1)
	q.pool.Submit(func() {
		defer q.wg.Done()
		task.Execute()
	})

	return task.done, nil
}

// Run submits fn and waits for its result.
func Run[T any](ctx context.Context, q *Queue, fn func() (T, error)) (T, error) {
	done, err := Submit(ctx, q, fn)
	if err != nil {
		var zero T
		return zero, err
	}

	res := <-done
	return res.Value, res.Err
}

// Wait waits for all submitted tasks to complete
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close rejects new tasks, then stops the worker pool once queued tasks are done
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.pool.StopWait()
	q.wg.Wait()
}
