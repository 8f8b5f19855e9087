package reactor

import "math/bits"

// RenderHint is an accumulative signal deciding whether to render.
//
// Implementations must satisfy two properties:
//   - The zero value is neutral: it does not render and merging it with x
//     yields a value that renders exactly when x does.
//   - Merge is associative and commutative, and merging a value that
//     renders with anything yields a value that renders.
type RenderHint[H any] interface {
	Merge(other H) H
	ShouldRender() bool
}

// ModelChanged is the minimal render hint: a two-state flag.
type ModelChanged uint8

const (
	// Unchanged means the model has not changed.
	Unchanged ModelChanged = iota

	// MaybeChanged means the model might have changed.
	//
	// False positives are allowed. When determining whether the model has
	// actually changed is costly or impossible, use this value.
	MaybeChanged
)

// Merge combines two flags: any MaybeChanged wins.
func (c ModelChanged) Merge(other ModelChanged) ModelChanged {
	if c == MaybeChanged || other == MaybeChanged {
		return MaybeChanged
	}
	return Unchanged
}

// ShouldRender reports whether the model might have changed.
func (c ModelChanged) ShouldRender() bool {
	return c == MaybeChanged
}

// String returns "unchanged" or "maybe_changed".
func (c ModelChanged) String() string {
	if c == MaybeChanged {
		return "maybe_changed"
	}
	return "unchanged"
}

// DirtyFlags is a render hint carrying one bit per observable part of the
// model, so renderers can redraw only what changed.
type DirtyFlags uint64

// Merge is a bitwise OR.
func (f DirtyFlags) Merge(other DirtyFlags) DirtyFlags {
	return f | other
}

// ShouldRender reports whether any bit is set.
func (f DirtyFlags) ShouldRender() bool {
	return f != 0
}

// Has reports whether all bits of mask are set.
func (f DirtyFlags) Has(mask DirtyFlags) bool {
	return f&mask == mask
}

// Count returns the number of set bits.
func (f DirtyFlags) Count() int {
	return bits.OnesCount64(uint64(f))
}

// MergeHints folds hints left to right starting from the zero value.
func MergeHints[H RenderHint[H]](hints ...H) H {
	var acc H
	for _, h := range hints {
		acc = acc.Merge(h)
	}
	return acc
}
