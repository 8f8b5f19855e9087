package reactor

import "sync"

// TaskExecutor spawns tasks and tracks their completion.
//
// Implementations are shared between the consume loop and every running
// task, so they must synchronize their own bookkeeping.
type TaskExecutor[I, E, T any] interface {
	// SpawnTask launches task for concurrent execution without blocking
	// the caller. The task receives tc to submit messages and spawn
	// further tasks.
	SpawnTask(tc *TaskContext[I, E, T], task T)

	// AllTasksFinished reports whether no spawned task is outstanding.
	//
	// Used only as a termination oracle by the consume loop after a
	// message that made no progress. It may race with a task's final
	// submission.
	AllTasksFinished() bool
}

// TaskContext is the handle passed into every task.
//
// It bundles the channel sender and the executor so a task can submit
// messages and spawn follow-up tasks. The same pointer is shared by the
// consume loop and all outstanding tasks.
type TaskContext[I, E, T any] struct {
	tx       *Sender[I, E]
	executor TaskExecutor[I, E, T]

	// outbox holds the submissions of a single task until its executor
	// delivers them. Nil for the loop's own context.
	outbox *outbox[I, E]
}

type outbox[I, E any] struct {
	mu       sync.Mutex
	messages []Message[I, E]
}

func (o *outbox[I, E]) put(msg Message[I, E]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
}

func (o *outbox[I, E]) take() []Message[I, E] {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.messages
	o.messages = nil
	return msgs
}

// NewTaskContext creates a task context submitting into tx and spawning
// through executor.
func NewTaskContext[I, E, T any](tx *Sender[I, E], executor TaskExecutor[I, E, T]) *TaskContext[I, E, T] {
	return &TaskContext[I, E, T]{tx: tx, executor: executor}
}

// withOutbox returns a context for one task whose submissions are held
// back until flush.
func (tc *TaskContext[I, E, T]) withOutbox() *TaskContext[I, E, T] {
	return &TaskContext[I, E, T]{tx: tc.tx, executor: tc.executor, outbox: &outbox[I, E]{}}
}

// flush delivers held-back submissions in order.
func (tc *TaskContext[I, E, T]) flush() {
	if tc.outbox == nil {
		return
	}
	for _, msg := range tc.outbox.take() {
		SubmitMessage(tc.tx, msg)
	}
}

func (tc *TaskContext[I, E, T]) submit(msg Message[I, E]) {
	if tc.outbox != nil {
		tc.outbox.put(msg)
		return
	}
	SubmitMessage(tc.tx, msg)
}

// Sender returns the channel sender. Messages sent on it directly bypass
// the executor's delivery of task submissions.
func (tc *TaskContext[I, E, T]) Sender() *Sender[I, E] {
	return tc.tx
}

// Executor returns the task executor.
func (tc *TaskContext[I, E, T]) Executor() TaskExecutor[I, E, T] {
	return tc.executor
}

// SubmitIntent enqueues an intent (fire-and-forget).
func (tc *TaskContext[I, E, T]) SubmitIntent(intent I) {
	tc.submit(NewIntent[I, E](intent))
}

// SubmitEffect enqueues an effect (fire-and-forget).
func (tc *TaskContext[I, E, T]) SubmitEffect(effect E) {
	tc.submit(NewEffect[I, E](effect))
}

// SpawnTask spawns a follow-up task through the executor.
func (tc *TaskContext[I, E, T]) SpawnTask(task T) {
	tc.executor.SpawnTask(tc, task)
}

// AllTasksFinished delegates to the executor.
func (tc *TaskContext[I, E, T]) AllTasksFinished() bool {
	return tc.executor.AllTasksFinished()
}
