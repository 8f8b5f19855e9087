// Package journal persists reactor runs to SQLite.
//
// A run is one consume loop from start to its terminal state. While the loop
// runs, a Recorder attached as the reactor's Tracer writes every processing
// step as an event. When the loop stops, FinishRun stores the stop reason and
// a JSON snapshot of the final model.
//
// Events are append-only and identified by a content hash:
//
//	SHA256("reactor/event/v1" + 0x00 + canonical_json({run_id, seq, kind, payload}))
//
// so writing the same event twice is a no-op. Reads are ordered by
// seq ASC, id ASC which makes journal output reproducible.
//
// Payloads are stored as canonical JSON: object keys sorted, strings NFC
// normalized, no HTML escaping. The replay command decodes the payloads of
// applied events to re-run a model deterministically.
package journal
