// Package reactor implements a single-consumer, message-driven execution
// engine.
//
// Producers submit messages (intents or effects) into a bounded channel.
// A single consume loop dequeues them one at a time and hands each to the
// message processor, which turns it into deterministic model mutations,
// optional asynchronous tasks and optional render cycles.
//
// ARCHITECTURE:
//
// Single-Consumer Loop:
// All model access happens on the goroutine that calls Run. This ensures:
//   - No locking on model state
//   - Reproducible mutation order for a given message order
//   - A message is processed to completion (including its whole next-effect
//     chain) before the next one is dequeued
//
// Message Processing Flow:
//  1. Intent → Model.HandleIntent (pure gate, may reject)
//  2. Effect → Model.ApplyEffect (the only mutator)
//  3. Returned tasks are spawned through the TaskExecutor
//  4. A returned next effect is applied immediately, ahead of the queue
//  5. The accumulated RenderHint decides whether the Renderer runs
//  6. An intent observed by the Renderer is enqueued, never run inline
//
// Termination:
// The loop stops when an intent is rejected, when the channel is closed and
// drained, or when a message made no progress, nothing is queued and every
// spawned task has finished.
//
// Backpressure:
// Enqueueing never blocks and never fails observably. A full or closed
// channel drops the newest message and logs it.
//
// Example:
//
//	tx, rx, err := reactor.NewChannel[Intent, Effect](64)
//	if err != nil {
//	    return err
//	}
//	exec := reactor.NewExecutor(runTask)
//	tasks := reactor.NewTaskContext[Intent, Effect, Task](tx, exec)
//	r := reactor.New[*Model, Intent, Effect, Task, reactor.ModelChanged](model, renderer, tasks)
//	reactor.SubmitIntent(tx, Intent{Op: "start"})
//	stopped := r.Run(ctx, rx)
package reactor
