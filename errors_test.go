package reactor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectedError(t *testing.T) {
	err := error(&RejectedError{Intent: testIntent{Op: "x", N: 2}, Reason: errNope})

	assert.Equal(t, "intent {Op:x N:2} rejected: nope", err.Error())
	assert.ErrorIs(t, err, errNope)
	assert.ErrorIs(t, err, ErrIntentRejected)

	wrapped := fmt.Errorf("run: %w", err)
	assert.True(t, IsRejected(wrapped))

	got, ok := RejectedIntent[testIntent](wrapped)
	assert.True(t, ok)
	assert.Equal(t, testIntent{Op: "x", N: 2}, got)

	_, ok = RejectedIntent[string](wrapped)
	assert.False(t, ok, "wrong intent type")

	assert.False(t, IsRejected(errors.New("other")))
}

func TestReject_NilReason(t *testing.T) {
	h := Reject[testEffect, testTask, ModelChanged](nil)
	assert.True(t, h.IsRejected())
	assert.ErrorIs(t, h.Rejected, ErrIntentRejected)
}

func TestMessage(t *testing.T) {
	i := intent("a", 1)
	assert.True(t, i.IsIntent())
	assert.False(t, i.IsEffect())
	assert.Equal(t, testIntent{Op: "a", N: 1}, i.Payload())
	assert.Equal(t, "intent({Op:a N:1})", i.String())

	e := effect("b", 2)
	assert.True(t, e.IsEffect())
	assert.Equal(t, "effect({Op:b N:2})", e.String())

	assert.Nil(t, testMessage{}.Payload())

	a := SpawnTask[testEffect](testTask{Name: "t"})
	assert.Equal(t, ActionSpawnTask, a.Kind)
	assert.Equal(t, testTask{Name: "t"}, a.Payload())
	assert.Equal(t, "apply_effect", ApplyEffect[testEffect, testTask](testEffect{}).Kind.String())
}
