package reactor

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelClosed is returned when dequeuing from a closed, drained
	// channel.
	ErrChannelClosed = errors.New("reactor: channel is closed")

	// ErrChannelEmpty is returned by a non-blocking dequeue when no message
	// is ready.
	ErrChannelEmpty = errors.New("reactor: channel is empty")

	// ErrInvalidCapacity is returned when creating a channel with a
	// capacity below 1.
	ErrInvalidCapacity = errors.New("reactor: channel capacity must be positive")

	// ErrIntentRejected matches every *RejectedError via errors.Is.
	ErrIntentRejected = errors.New("reactor: intent rejected")
)

// RejectedError reports an intent rejected by the model.
//
// It unwraps to the model's reason, and errors.Is(err, ErrIntentRejected)
// is true for every RejectedError.
type RejectedError struct {
	// Intent is the rejected intent.
	Intent any

	// Reason is the error returned by the model.
	Reason error
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("intent %+v rejected: %v", e.Intent, e.Reason)
}

// Unwrap returns the model's reason.
func (e *RejectedError) Unwrap() error {
	return e.Reason
}

// Is matches ErrIntentRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrIntentRejected
}

// IsRejected returns true if err is or wraps a rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrIntentRejected)
}

// RejectedIntent extracts the rejected intent from err.
// Uses errors.As to handle wrapped errors.
func RejectedIntent[I any](err error) (I, bool) {
	var zero I
	var re *RejectedError
	if !errors.As(err, &re) {
		return zero, false
	}
	intent, ok := re.Intent.(I)
	return intent, ok
}
