package reactor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitMessage_LogsDrops(t *testing.T) {
	var buf bytes.Buffer
	tx, rx, err := NewChannel[testIntent, testEffect](1)
	require.NoError(t, err)
	tx = tx.WithLogger(bufferLogger(&buf))

	SubmitIntent(tx, testIntent{Op: "first"})
	assert.Equal(t, 1, rx.Len())
	assert.Contains(t, buf.String(), "sending message")

	buf.Reset()
	SubmitEffect(tx, testEffect{Op: "second"})
	assert.Equal(t, 1, rx.Len())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "dropping message - channel is full")
	assert.Contains(t, buf.String(), "capacity=1")

	buf.Reset()
	tx.Close()
	SubmitIntent(tx, testIntent{Op: "third"})
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "dropping message - channel is closed")
	assert.NotContains(t, buf.String(), "level=WARN")
}

func TestTaskContext_Submit(t *testing.T) {
	f := newFixture(t, 4)

	f.tasks.SubmitIntent(testIntent{Op: "a"})
	f.tasks.SubmitEffect(testEffect{Op: "b"})
	f.tasks.SpawnTask(testTask{Name: "t"})

	msg, err := f.rx.TryDequeue()
	require.NoError(t, err)
	assert.True(t, msg.IsIntent())
	assert.Equal(t, "a", msg.Intent.Op)

	msg, err = f.rx.TryDequeue()
	require.NoError(t, err)
	assert.True(t, msg.IsEffect())
	assert.Equal(t, "b", msg.Effect.Op)

	assert.Equal(t, []testTask{{Name: "t"}}, f.executor.tasks())
	assert.True(t, f.tasks.AllTasksFinished())
	assert.Same(t, f.tx, f.tasks.Sender())
}
