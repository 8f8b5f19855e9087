package reactor

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAsync(ctx context.Context, r *testReactor, rx *Receiver[testIntent, testEffect]) <-chan Stopped {
	done := make(chan Stopped, 1)
	go func() {
		done <- r.Run(ctx, rx)
	}()
	return done
}

func waitStopped(t *testing.T, done <-chan Stopped) Stopped {
	t.Helper()
	select {
	case s := <-done:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("consume loop did not stop")
		return Stopped{}
	}
}

func assertRunning(t *testing.T, done <-chan Stopped) {
	t.Helper()
	select {
	case s := <-done:
		t.Fatalf("consume loop stopped unexpectedly: %s", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRun_StopsIdleAfterNoProgress(t *testing.T) {
	f := newFixture(t, 8)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 1)))
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 2)))

	s := r.Run(context.Background(), f.rx)

	assert.Equal(t, StoppedIdle, s.Reason)
	assert.NoError(t, s.Err)
	assert.Equal(t, int64(2), s.Processed)
	assert.Equal(t, 3, f.model.value)
	assert.Equal(t, TraceStopped, f.tracer.kinds()[len(f.tracer.kinds())-1])
}

func TestRun_StopsOnRejectionWithQueuedMessages(t *testing.T) {
	f := newFixture(t, 8)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 1)))
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(intent("reject", 0)))
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 10)))

	s := r.Run(context.Background(), f.rx)

	assert.Equal(t, StoppedRejected, s.Reason)
	assert.ErrorIs(t, s.Err, errNope)
	assert.Equal(t, int64(2), s.Processed)
	assert.Equal(t, 1, f.model.value)
	assert.Equal(t, 1, f.rx.Len(), "remaining message untouched")
}

func TestRun_StopsWhenClosedAndDrained(t *testing.T) {
	f := newFixture(t, 8)
	f.executor.setFinished(false)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("spawn", 1)))
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("spawn", 2)))
	f.tx.Close()

	s := r.Run(context.Background(), f.rx)

	assert.Equal(t, StoppedClosed, s.Reason)
	assert.NoError(t, s.Err)
	assert.Equal(t, int64(2), s.Processed)
	assert.Len(t, f.executor.tasks(), 2)
}

func TestRun_NoProgressThenClosedIsClosed(t *testing.T) {
	f := newFixture(t, 8)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("set", 1)))
	f.tx.Close()

	s := r.Run(context.Background(), f.rx)

	assert.Equal(t, StoppedClosed, s.Reason, "closed takes precedence over idle")
}

func TestRun_BlocksWhileTaskOutstanding(t *testing.T) {
	f := newFixture(t, 8)
	f.executor.setFinished(false)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("set", 1)))
	done := runAsync(context.Background(), r, f.rx)

	// NoProgress, empty channel, a task never finishes: keep waiting
	assertRunning(t, done)

	f.tx.TryEnqueue(intent("reject", 0))
	s := waitStopped(t, done)

	assert.Equal(t, StoppedRejected, s.Reason)
	assert.Equal(t, int64(2), s.Processed)
}

func TestRun_TaskFinishingSilentlyKeepsLoopBlocked(t *testing.T) {
	f := newFixture(t, 8)
	f.executor.setFinished(false)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("set", 1)))
	done := runAsync(context.Background(), r, f.rx)
	assertRunning(t, done)

	// The oracle is only consulted right after a message that made no
	// progress, never while blocked
	f.executor.setFinished(true)
	assertRunning(t, done)

	f.tx.Close()
	s := waitStopped(t, done)

	assert.Equal(t, StoppedClosed, s.Reason)
	assert.NoError(t, s.Err)
	assert.Equal(t, int64(1), s.Processed)
}

func TestRun_MessageAfterOracleFlipsIsProcessed(t *testing.T) {
	f := newFixture(t, 8)
	f.executor.setFinished(false)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("set", 1)))
	done := runAsync(context.Background(), r, f.rx)
	assertRunning(t, done)

	// The task reports finished before its last message lands
	f.executor.setFinished(true)
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("set", 2)))

	s := waitStopped(t, done)
	assert.Equal(t, StoppedIdle, s.Reason)
	assert.Equal(t, int64(2), s.Processed)
	assert.Equal(t, 2, f.model.value)
}

func TestRun_BlocksAfterProgressUntilClosed(t *testing.T) {
	f := newFixture(t, 8)
	r := f.reactor(nil)

	// Progressing never checks the idle condition, even with every task
	// finished
	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("spawn", 1)))
	done := runAsync(context.Background(), r, f.rx)

	assertRunning(t, done)
	f.tx.Close()

	s := waitStopped(t, done)
	assert.Equal(t, StoppedClosed, s.Reason)
	assert.Equal(t, int64(1), s.Processed)
}

func TestRun_TaskFeedbackDrivesLoop(t *testing.T) {
	tx, rx, err := NewChannel[testIntent, testEffect](8)
	require.NoError(t, err)
	tx = tx.WithLogger(quietLogger())

	// Each spawned task submits the next spawn, counting down to a silent
	// set that ends the run idle.
	executor := NewExecutor(func(_ context.Context, tc *testContext, task testTask) {
		n, _ := strconv.Atoi(task.Name)
		if n == 0 {
			tc.SubmitEffect(testEffect{Op: "set", N: 42})
			return
		}
		tc.SubmitEffect(testEffect{Op: "spawn", N: n - 1})
	}, WithExecutorLogger(quietLogger()))
	defer executor.Close()

	tasks := NewTaskContext[testIntent, testEffect, testTask](tx, executor)
	model := &testModel{}
	require.Equal(t, EnqueueOK, tx.TryEnqueue(effect("spawn", 2)))

	s := ConsumeMessages[*testModel, testIntent, testEffect, testTask, ModelChanged](
		context.Background(), model, nil, tasks, rx, WithLogger(quietLogger()),
	)

	assert.Equal(t, StoppedIdle, s.Reason)
	assert.Equal(t, int64(4), s.Processed)
	assert.Equal(t, 42, model.value)
	assert.Equal(t, int64(3), executor.Spawned())
	assert.True(t, executor.AllTasksFinished())
}

func TestRunFrom_ProcessesFirstMessage(t *testing.T) {
	f := newFixture(t, 1)
	r := f.reactor(nil)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 2)))

	s := r.RunFrom(context.Background(), f.rx, effect("add", 1))

	assert.Equal(t, StoppedIdle, s.Reason)
	assert.Equal(t, int64(2), s.Processed)
	assert.Equal(t, []testEffect{{Op: "add", N: 1}, {Op: "add", N: 2}}, f.model.applied)
}

func TestRun_ContextCancelClosesChannel(t *testing.T) {
	f := newFixture(t, 8)
	f.executor.setFinished(false)
	r := f.reactor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, r, f.rx)

	assertRunning(t, done)
	cancel()

	s := waitStopped(t, done)
	assert.Equal(t, StoppedClosed, s.Reason)
	assert.ErrorIs(t, s.Err, context.Canceled)
	assert.True(t, f.tx.Closed(), "cancellation closes the channel")
	assert.Equal(t, EnqueueClosed, f.tx.TryEnqueue(effect("add", 1)))
}

func TestRun_ObservedIntentKeepsLoopAlive(t *testing.T) {
	f := newFixture(t, 8)
	renderer := RenderFunc[*testModel, testIntent, ModelChanged](func(m *testModel, _ ModelChanged) (testIntent, bool) {
		if m.value < 3 {
			return testIntent{Op: "add", N: 1}, true
		}
		return testIntent{}, false
	})
	r := f.reactor(renderer)

	require.Equal(t, EnqueueOK, f.tx.TryEnqueue(effect("add", 1)))

	s := r.Run(context.Background(), f.rx)

	// add(1) renders and feeds add(1) twice, the third render observes
	// nothing and the loop goes idle
	assert.Equal(t, StoppedIdle, s.Reason)
	assert.Equal(t, int64(3), s.Processed)
	assert.Equal(t, 3, f.model.value)
}

func TestStopReason_String(t *testing.T) {
	assert.Equal(t, "rejected", StoppedRejected.String())
	assert.Equal(t, "closed", StoppedClosed.String())
	assert.Equal(t, "idle", StoppedIdle.String())
	assert.Equal(t, "idle after 3 messages", Stopped{Reason: StoppedIdle, Processed: 3}.String())
}
