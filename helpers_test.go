package reactor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testIntent struct {
	Op string
	N  int
}

type testEffect struct {
	Op string
	N  int
}

type testTask struct {
	Name string
}

type (
	testHandled  = IntentHandled[testEffect, testTask, ModelChanged]
	testApplied  = EffectApplied[testEffect, testTask, ModelChanged]
	testMessage  = Message[testIntent, testEffect]
	testContext  = TaskContext[testIntent, testEffect, testTask]
	testReactor  = Reactor[*testModel, testIntent, testEffect, testTask, ModelChanged]
	testRenderer = Renderer[*testModel, testIntent, ModelChanged]
)

var errNope = errors.New("nope")

// testModel is a counter with a handful of ops exercising every processor
// path:
//
//	add     value += N, renders
//	set     value = N, does not render
//	chain   value++, then chain N-1 while N > 0, does not render
//	spawn   spawns task "N", does not render
//	reject  (intent only) rejected
//	noop    (intent only) accepted with nothing to do
type testModel struct {
	value   int
	applied []testEffect
	intents int
}

func (m *testModel) HandleIntent(in testIntent) testHandled {
	m.intents++
	switch in.Op {
	case "reject":
		return Reject[testEffect, testTask, ModelChanged](errNope)
	case "noop":
		return Accept(Applied[testEffect, testTask](Unchanged))
	default:
		return Accept(Applied[testEffect, testTask](Unchanged).WithNextEffect(testEffect{Op: in.Op, N: in.N}))
	}
}

func (m *testModel) ApplyEffect(e testEffect) testApplied {
	m.applied = append(m.applied, e)
	switch e.Op {
	case "add":
		m.value += e.N
		return Applied[testEffect, testTask](MaybeChanged)
	case "set":
		m.value = e.N
		return Applied[testEffect, testTask](Unchanged)
	case "chain":
		m.value++
		out := Applied[testEffect, testTask](Unchanged)
		if e.N > 0 {
			out = out.WithNextEffect(testEffect{Op: "chain", N: e.N - 1})
		}
		return out
	case "spawn":
		return Applied[testEffect, testTask](Unchanged).WithTask(testTask{Name: fmt.Sprint(e.N)})
	default:
		return Applied[testEffect, testTask](Unchanged)
	}
}

// stubExecutor records spawned tasks without running them.
type stubExecutor struct {
	mu       sync.Mutex
	spawned  []testTask
	finished bool
}

func (x *stubExecutor) SpawnTask(_ *testContext, task testTask) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.spawned = append(x.spawned, task)
}

func (x *stubExecutor) AllTasksFinished() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.finished
}

func (x *stubExecutor) tasks() []testTask {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]testTask(nil), x.spawned...)
}

func (x *stubExecutor) setFinished(v bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.finished = v
}

// recordingTracer collects trace events.
type recordingTracer struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (r *recordingTracer) Trace(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingTracer) kinds() []TraceKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]TraceKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type fixture struct {
	tx       *Sender[testIntent, testEffect]
	rx       *Receiver[testIntent, testEffect]
	executor *stubExecutor
	tasks    *testContext
	model    *testModel
	tracer   *recordingTracer
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	tx, rx, err := NewChannel[testIntent, testEffect](capacity)
	require.NoError(t, err)
	tx = tx.WithLogger(quietLogger())

	executor := &stubExecutor{finished: true}
	return &fixture{
		tx:       tx,
		rx:       rx,
		executor: executor,
		tasks:    NewTaskContext[testIntent, testEffect, testTask](tx, executor),
		model:    &testModel{},
		tracer:   &recordingTracer{},
	}
}

func (f *fixture) reactor(renderer testRenderer, opts ...Option) *testReactor {
	opts = append([]Option{WithLogger(quietLogger()), WithTracer(f.tracer)}, opts...)
	return New[*testModel, testIntent, testEffect, testTask, ModelChanged](f.model, renderer, f.tasks, opts...)
}

func intent(op string, n int) testMessage {
	return NewIntent[testIntent, testEffect](testIntent{Op: op, N: n})
}

func effect(op string, n int) testMessage {
	return NewEffect[testIntent, testEffect](testEffect{Op: op, N: n})
}
