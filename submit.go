package reactor

// SubmitMessage enqueues msg, dropping it if the channel is full or closed.
//
// Submitting is fire-and-forget and must always succeed from the caller's
// point of view. Drops are logged: closed at info, full at warn.
func SubmitMessage[I, E any](tx *Sender[I, E], msg Message[I, E]) {
	logger := tx.log()
	logger.Debug("sending message", "message", msg)

	switch result := tx.TryEnqueue(msg); result {
	case EnqueueOK:
	case EnqueueClosed:
		// No receiver
		logger.Info("dropping message - channel is closed", "message", msg)
	case EnqueueFull:
		logger.Warn("dropping message - channel is full",
			"message", msg,
			"capacity", tx.Cap(),
		)
	default:
		logger.Error("failed to send message", "message", msg, "result", result)
	}
}

// SubmitIntent enqueues an intent. See SubmitMessage.
func SubmitIntent[I, E any](tx *Sender[I, E], intent I) {
	SubmitMessage(tx, NewIntent[I, E](intent))
}

// SubmitEffect enqueues an effect. See SubmitMessage.
func SubmitEffect[I, E any](tx *Sender[I, E], effect E) {
	SubmitMessage(tx, NewEffect[I, E](effect))
}
