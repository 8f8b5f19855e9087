package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// EnqueueResult is the outcome of a non-blocking enqueue.
type EnqueueResult uint8

const (
	// EnqueueOK means the message was queued.
	EnqueueOK EnqueueResult = iota
	// EnqueueFull means the channel was at capacity and the message was dropped.
	EnqueueFull
	// EnqueueClosed means the channel was closed and the message was dropped.
	EnqueueClosed
)

// String returns "ok", "full" or "closed".
func (r EnqueueResult) String() string {
	switch r {
	case EnqueueOK:
		return "ok"
	case EnqueueFull:
		return "full"
	case EnqueueClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// channel is a bounded, ordered, multi-producer single-consumer queue.
//
// Storage is a lock-free single-producer single-consumer ring. Producers
// are serialized by mu, which turns the ring into a multi-producer queue
// while the consumer side stays lock-free.
//
// The consumer waits on signal (buffered, size 1) which coalesces wake-ups,
// and on done which is closed exactly once by Close.
type channel[I, E any] struct {
	mu       sync.Mutex
	ring     lfq.SPSC[Message[I, E]]
	capacity int
	length   atomix.Int64
	closed   atomix.Uint32
	signal   chan struct{}
	done     chan struct{}
}

// NewChannel creates a bounded message channel holding at most capacity
// messages.
//
// The Sender may be shared by any number of goroutines. The Receiver must
// be used by exactly one goroutine.
func NewChannel[I, E any](capacity int) (*Sender[I, E], *Receiver[I, E], error) {
	if capacity < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	ch := &channel[I, E]{
		capacity: capacity,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	ch.ring.Init(ringSize(capacity))
	return &Sender[I, E]{ch: ch}, &Receiver[I, E]{ch: ch}, nil
}

// ringSize rounds capacity up to a power of two of at least 2.
// The logical bound is enforced by length, not by the ring.
func ringSize(capacity int) int {
	size := 2
	for size < capacity {
		size <<= 1
	}
	return size
}

func (ch *channel[I, E]) isClosed() bool {
	return ch.closed.Load() != 0
}

func (ch *channel[I, E]) push(msg Message[I, E]) EnqueueResult {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.isClosed() {
		return EnqueueClosed
	}
	if ch.length.Load() >= int64(ch.capacity) {
		return EnqueueFull
	}
	if err := ch.ring.Enqueue(&msg); err != nil {
		// Only reachable if the ring rejects below the logical bound.
		return EnqueueFull
	}
	ch.length.Add(1)

	// Non-blocking: the buffer of 1 coalesces multiple signals
	select {
	case ch.signal <- struct{}{}:
	default:
	}
	return EnqueueOK
}

func (ch *channel[I, E]) pop() (Message[I, E], bool) {
	msg, err := ch.ring.Dequeue()
	if err != nil {
		if !iox.IsWouldBlock(err) {
			slog.Error("unexpected ring dequeue failure", "error", err)
		}
		var zero Message[I, E]
		return zero, false
	}
	ch.length.Add(-1)
	return msg, true
}

func (ch *channel[I, E]) close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.isClosed() {
		return
	}
	ch.closed.Add(1)
	close(ch.done) // Wakes a blocked consumer
}

// Sender is the producer side of a message channel.
// Safe for concurrent use.
type Sender[I, E any] struct {
	ch     *channel[I, E]
	logger *slog.Logger
}

// WithLogger returns a Sender on the same channel that logs dropped
// messages to logger.
func (s *Sender[I, E]) WithLogger(logger *slog.Logger) *Sender[I, E] {
	return &Sender[I, E]{ch: s.ch, logger: logger}
}

// TryEnqueue appends msg without blocking.
func (s *Sender[I, E]) TryEnqueue(msg Message[I, E]) EnqueueResult {
	return s.ch.push(msg)
}

// Close closes the channel. Queued messages can still be dequeued.
// Idempotent.
func (s *Sender[I, E]) Close() {
	s.ch.close()
}

// Closed reports whether the channel has been closed.
func (s *Sender[I, E]) Closed() bool {
	return s.ch.isClosed()
}

// Len returns the number of queued messages.
func (s *Sender[I, E]) Len() int {
	return int(s.ch.length.Load())
}

// Cap returns the channel capacity.
func (s *Sender[I, E]) Cap() int {
	return s.ch.capacity
}

func (s *Sender[I, E]) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Receiver is the consumer side of a message channel.
// Must be used by a single goroutine.
type Receiver[I, E any] struct {
	ch *channel[I, E]
}

// TryDequeue removes the front message without blocking.
//
// Returns ErrChannelEmpty if nothing is queued, or ErrChannelClosed if the
// channel is closed and drained.
func (r *Receiver[I, E]) TryDequeue() (Message[I, E], error) {
	if msg, ok := r.ch.pop(); ok {
		return msg, nil
	}
	if r.ch.isClosed() {
		// Every enqueue happened before close under mu, so a second
		// attempt sees anything that raced with the first one.
		if msg, ok := r.ch.pop(); ok {
			return msg, nil
		}
		var zero Message[I, E]
		return zero, ErrChannelClosed
	}
	var zero Message[I, E]
	return zero, ErrChannelEmpty
}

// Dequeue removes the front message, blocking until one is available.
//
// Returns ErrChannelClosed once the channel is closed and drained, or
// ctx.Err() if ctx is done first.
func (r *Receiver[I, E]) Dequeue(ctx context.Context) (Message[I, E], error) {
	for {
		msg, err := r.TryDequeue()
		if err != ErrChannelEmpty {
			return msg, err
		}

		select {
		case <-ctx.Done():
			var zero Message[I, E]
			return zero, ctx.Err()
		case <-r.ch.signal:
			// Signal received - loop back to TryDequeue
		case <-r.ch.done:
			// Closed - TryDequeue drains or reports closed
		}
	}
}

// Close closes the channel from the consumer side. Idempotent.
func (r *Receiver[I, E]) Close() {
	r.ch.close()
}

// Closed reports whether the channel has been closed.
func (r *Receiver[I, E]) Closed() bool {
	return r.ch.isClosed()
}

// Len returns the number of queued messages.
func (r *Receiver[I, E]) Len() int {
	return int(r.ch.length.Load())
}
