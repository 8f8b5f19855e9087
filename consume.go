package reactor

import (
	"context"
	"errors"
	"fmt"
)

// StopReason identifies why the consume loop terminated.
type StopReason uint8

const (
	// StoppedRejected: a dequeued intent was rejected by the model.
	StoppedRejected StopReason = iota + 1

	// StoppedClosed: the channel was closed and drained, or the loop's
	// context was cancelled.
	StoppedClosed

	// StoppedIdle: nothing was queued and no task was outstanding after a
	// message that made no progress.
	StoppedIdle
)

// String returns the lowercase name of the stop reason.
func (s StopReason) String() string {
	switch s {
	case StoppedRejected:
		return "rejected"
	case StoppedClosed:
		return "closed"
	case StoppedIdle:
		return "idle"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Stopped is the terminal state of a consume loop.
type Stopped struct {
	Reason StopReason

	// Err is the *RejectedError for StoppedRejected and the context error
	// for a cancelled StoppedClosed. Nil otherwise.
	Err error

	// Processed counts the messages processed before stopping, including
	// the rejected one.
	Processed int64
}

func (s Stopped) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s after %d messages: %v", s.Reason, s.Processed, s.Err)
	}
	return fmt.Sprintf("%s after %d messages", s.Reason, s.Processed)
}

// Run consumes messages from rx until a terminal state is reached.
//
// Termination:
//   - a rejected intent stops the loop immediately, even with messages
//     still queued;
//   - a closed and drained channel stops the loop;
//   - after a message that made no progress, an empty channel with no
//     outstanding task stops the loop as idle.
//
// After a Progressing message the loop always blocks for the next one: the
// task or observed intent that made progress will produce it. After a
// NoProgress message with tasks outstanding it blocks as well, expecting a
// still-running task to submit one. A task that returns without submitting
// leaves the loop waiting until the channel is closed.
//
// Cancelling ctx closes the channel; queued messages are still drained and
// the loop reports StoppedClosed with ctx.Err().
func (r *Reactor[M, I, E, T, H]) Run(ctx context.Context, rx *Receiver[I, E]) Stopped {
	return r.run(ctx, rx, nil)
}

// RunFrom processes first and then continues like Run.
//
// Used to seed a loop with an initial message without going through the
// channel, which may be full.
func (r *Reactor[M, I, E, T, H]) RunFrom(ctx context.Context, rx *Receiver[I, E], first Message[I, E]) Stopped {
	return r.run(ctx, rx, &first)
}

func (r *Reactor[M, I, E, T, H]) run(ctx context.Context, rx *Receiver[I, E], next *Message[I, E]) Stopped {
	stopWatch := context.AfterFunc(ctx, rx.Close)
	defer stopWatch()

	r.logger.Info("consume loop started")

	var processed int64
	for {
		if next == nil {
			msg, err := rx.Dequeue(ctx)
			if err != nil {
				if !errors.Is(err, ErrChannelClosed) {
					// Context done before the watcher closed the channel
					rx.Close()
				}
				return r.stop(ctx, Stopped{Reason: StoppedClosed, Processed: processed})
			}
			next = &msg
		}

		msg := *next
		next = nil

		result := r.Process(msg)
		processed++

		switch result.Outcome {
		case IntentRejected:
			return r.stop(ctx, Stopped{Reason: StoppedRejected, Err: result.Reason, Processed: processed})

		case Progressing:
			// Block on the next dequeue

		case NoProgress:
			// Sampled before polling: every message a finished task
			// submitted is already visible to TryDequeue
			finished := r.tasks.AllTasksFinished()
			queued, err := rx.TryDequeue()
			switch {
			case err == nil:
				next = &queued
			case errors.Is(err, ErrChannelClosed):
				return r.stop(ctx, Stopped{Reason: StoppedClosed, Processed: processed})
			case finished:
				return r.stop(ctx, Stopped{Reason: StoppedIdle, Processed: processed})
			default:
				// A task is outstanding: block on the next dequeue
			}
		}
	}
}

func (r *Reactor[M, I, E, T, H]) stop(ctx context.Context, s Stopped) Stopped {
	if s.Reason == StoppedClosed && s.Err == nil {
		s.Err = ctx.Err()
	}
	r.trace(TraceEvent{Seq: r.clock.Next(), Kind: TraceStopped, Payload: s.Reason.String(), Reason: s.Err})

	attrs := []any{"reason", s.Reason.String(), "processed", s.Processed}
	if s.Err != nil {
		attrs = append(attrs, "error", s.Err)
	}
	r.logger.Info("consume loop stopped", attrs...)
	return s
}

// ConsumeMessages runs a consume loop over model until it terminates.
//
// Equivalent to New(model, renderer, tasks, opts...).Run(ctx, rx). M should
// be a pointer type so the final state is observable by the caller.
func ConsumeMessages[M Model[I, E, T, H], I, E, T any, H RenderHint[H]](
	ctx context.Context,
	model M,
	renderer Renderer[M, I, H],
	tasks *TaskContext[I, E, T],
	rx *Receiver[I, E],
	opts ...Option,
) Stopped {
	return New[M, I, E, T, H](model, renderer, tasks, opts...).Run(ctx, rx)
}
