package counter

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/reactor"
)

// Saver persists a counter value.
type Saver interface {
	Save(ctx context.Context, value, revision int64) error
}

// TaskRunner returns the function executing save tasks with saver.
//
// The outcome is reported as an effect: failures never escape the task.
func TaskRunner(saver Saver) reactor.TaskFunc[Intent, Effect, Task] {
	return func(ctx context.Context, tc *TaskContext, task Task) {
		if err := saver.Save(ctx, task.Value, task.Revision); err != nil {
			tc.SubmitEffect(Effect{Kind: EffectSaveFailed, Revision: task.Revision, Error: err.Error()})
			return
		}
		tc.SubmitEffect(Effect{Kind: EffectSaveSucceeded, Value: task.Value, Revision: task.Revision})
	}
}

// MemorySaver keeps every saved value in memory.
type MemorySaver struct {
	mu     sync.Mutex
	values []int64
}

// Save records value.
func (s *MemorySaver) Save(ctx context.Context, value, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, value)
	return nil
}

// Values returns the saved values in order.
func (s *MemorySaver) Values() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.values...)
}

// ErrSaveFailed is the default FailingSaver error.
var ErrSaveFailed = errors.New("save failed")

// FailingSaver fails every save.
type FailingSaver struct {
	Err error
}

// Save returns s.Err, or ErrSaveFailed.
func (s FailingSaver) Save(context.Context, int64, int64) error {
	if s.Err != nil {
		return s.Err
	}
	return ErrSaveFailed
}
