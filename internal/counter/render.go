package counter

import (
	"fmt"
	"io"

	"github.com/roach88/reactor"
)

// Renderer prints the parts of the model named by the hint and requests an
// automatic save once the value drifted far enough from the saved one.
type Renderer struct {
	out           io.Writer
	autoSaveEvery int64
	renders       int
}

// NewRenderer writes to out. autoSaveEvery <= 0 disables automatic saves.
func NewRenderer(out io.Writer, autoSaveEvery int64) *Renderer {
	if out == nil {
		out = io.Discard
	}
	return &Renderer{out: out, autoSaveEvery: autoSaveEvery}
}

// Render implements reactor.Renderer.
func (r *Renderer) Render(m *Model, hint reactor.DirtyFlags) (Intent, bool) {
	r.renders++
	if hint.Has(DirtyValue) {
		fmt.Fprintf(r.out, "value: %d\n", m.Value())
	}
	if hint.Has(DirtySave) {
		fmt.Fprintf(r.out, "saved: %d (saves=%d failures=%d pending=%t deferred=%d)\n",
			m.Saved(), m.Saves(), m.Failures(), m.Pending(), m.Deferred())
	}
	if m.ShouldAutoSave(r.autoSaveEvery) {
		return Intent{Op: OpSave}, true
	}
	return Intent{}, false
}

// Renders returns how often Render was called.
func (r *Renderer) Renders() int {
	return r.renders
}

// NewReactor wires a counter reactor. A nil renderer never renders.
func NewReactor(m *Model, r *Renderer, tasks *TaskContext, opts ...reactor.Option) *Reactor {
	var renderer reactor.Renderer[*Model, Intent, reactor.DirtyFlags]
	if r != nil {
		renderer = r
	}
	return reactor.New[*Model, Intent, Effect, Task, reactor.DirtyFlags](m, renderer, tasks, opts...)
}
