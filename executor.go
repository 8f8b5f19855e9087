package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// TaskFunc runs a single task.
//
// Failures must be converted into messages submitted through tc; the
// executor never retries and never reports task errors to the loop.
type TaskFunc[I, E, T any] func(ctx context.Context, tc *TaskContext[I, E, T], task T)

// Executor runs every task on its own goroutine.
//
// Messages a task submits through its TaskContext are delivered when the
// task returns, in submission order, and in the same critical section that
// marks the task finished. AllTasksFinished therefore never reports true
// before those messages are queued, and never reports false once the
// consume loop can see them.
//
// Thread-safety: SpawnTask, AllTasksFinished, Pending and Wait are safe for
// concurrent use. The outstanding counter is incremented before the
// goroutine starts.
type Executor[I, E, T any] struct {
	run     TaskFunc[I, E, T]
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex // guards delivery together with the pending decrement
	pending atomix.Int64
	spawned atomix.Int64
	panics  atomix.Int64
	wg      sync.WaitGroup
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorOptions)

type executorOptions struct {
	logger *slog.Logger
	ctx    context.Context
}

// WithExecutorLogger sets the logger used for task diagnostics.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(o *executorOptions) {
		o.logger = logger
	}
}

// WithBaseContext sets the parent of the context handed to tasks.
// Cancelling it, or calling Close, asks tasks to stop cooperatively.
func WithBaseContext(ctx context.Context) ExecutorOption {
	return func(o *executorOptions) {
		o.ctx = ctx
	}
}

// NewExecutor creates a goroutine-per-task executor running tasks with run.
func NewExecutor[I, E, T any](run TaskFunc[I, E, T], opts ...ExecutorOption) *Executor[I, E, T] {
	o := executorOptions{
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(o.ctx)
	return &Executor[I, E, T]{
		run:    run,
		logger: o.logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SpawnTask starts task on a new goroutine.
func (x *Executor[I, E, T]) SpawnTask(tc *TaskContext[I, E, T], task T) {
	x.pending.Add(1)
	x.spawned.Add(1)
	x.wg.Add(1)
	taskCtx := tc.withOutbox()
	go func() {
		defer x.wg.Done()
		defer x.finish(taskCtx)
		defer func() {
			if r := recover(); r != nil {
				x.panics.Add(1)
				x.logger.Error("task panicked",
					"task", fmt.Sprintf("%+v", task),
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		x.run(x.ctx, taskCtx, task)
	}()
}

// finish delivers the task's messages and marks it finished atomically
// with respect to AllTasksFinished.
func (x *Executor[I, E, T]) finish(tc *TaskContext[I, E, T]) {
	x.mu.Lock()
	defer x.mu.Unlock()
	tc.flush()
	x.pending.Add(-1)
}

// AllTasksFinished reports whether every spawned task has returned and its
// messages have been queued.
func (x *Executor[I, E, T]) AllTasksFinished() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.pending.Load() == 0
}

// Pending returns the number of outstanding tasks.
func (x *Executor[I, E, T]) Pending() int64 {
	return x.pending.Load()
}

// Spawned returns the number of tasks spawned so far.
func (x *Executor[I, E, T]) Spawned() int64 {
	return x.spawned.Load()
}

// Panics returns the number of tasks that panicked.
func (x *Executor[I, E, T]) Panics() int64 {
	return x.panics.Load()
}

// Wait blocks until all spawned tasks have finished or ctx is done.
// Polls with adaptive backoff, so it is meant for shutdown paths.
func (x *Executor[I, E, T]) Wait(ctx context.Context) error {
	var bo iox.Backoff
	for !x.AllTasksFinished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		bo.Wait()
	}
	return nil
}

// Close cancels the context handed to tasks and waits for them to return.
func (x *Executor[I, E, T]) Close() {
	x.cancel()
	x.wg.Wait()
}

// InlineExecutor runs each task synchronously inside SpawnTask.
//
// Tasks only submit messages, which never blocks, so the caller is not held
// up waiting on the consume loop. Messages submitted by a task are queued
// behind everything already in the channel, which makes a run fully
// deterministic for a given input sequence. Used by the scenario harness and
// for replay.
type InlineExecutor[I, E, T any] struct {
	run     TaskFunc[I, E, T]
	ctx     context.Context
	spawned atomix.Int64
}

// NewInlineExecutor creates an executor running tasks on the caller's
// goroutine.
func NewInlineExecutor[I, E, T any](run TaskFunc[I, E, T]) *InlineExecutor[I, E, T] {
	return &InlineExecutor[I, E, T]{run: run, ctx: context.Background()}
}

// SpawnTask runs task to completion.
func (x *InlineExecutor[I, E, T]) SpawnTask(tc *TaskContext[I, E, T], task T) {
	x.spawned.Add(1)
	x.run(x.ctx, tc, task)
}

// AllTasksFinished is always true: tasks finish before SpawnTask returns.
func (x *InlineExecutor[I, E, T]) AllTasksFinished() bool {
	return true
}

// Spawned returns the number of tasks run so far.
func (x *InlineExecutor[I, E, T]) Spawned() int64 {
	return x.spawned.Load()
}
