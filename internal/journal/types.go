package journal

// Run is one consume loop recorded in the journal.
type Run struct {
	ID       string
	Label    string
	Capacity int

	// StartedSeq is the clock value the run started from. Runs sharing a
	// journal continue numbering from the previous maximum.
	StartedSeq int64

	// Outcome, set by FinishRun.
	Finished   bool
	StopReason string
	StopError  string
	Processed  int64

	// Snapshot is the final model state as canonical JSON.
	Snapshot string
}

// Event is one journaled trace event.
type Event struct {
	ID         string
	RunID      string
	Seq        int64
	MessageSeq int64
	Kind       string

	// Payload is canonical JSON of the intent, effect, task or hint.
	Payload string

	// Reason is the error text for rejections and failed stops.
	Reason string
}
