// Package counter is a complete reactor model: a persisted counter.
//
// Intents propose changes and are validated without mutation:
//
//	increment n   n > 0
//	decrement n   n > 0 and n <= value
//	reset
//	save
//
// Accepted intents carry the matching effect as their next effect. Saving
// spawns a Task that calls a Saver and reports back with save_succeeded or
// save_failed.
//
// While a save is in flight, mutation effects are deferred instead of
// applied, so the saved value always matches the revision it was taken
// from. When the save completes the deferred effects are recalled one after
// another through the next-effect chain, ahead of anything still queued.
//
// Render hints are DirtyFlags: DirtyValue when the value changed, DirtySave
// when save state or the deferred queue changed.
package counter
