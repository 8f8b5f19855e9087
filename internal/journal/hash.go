package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainEvent prefixes event hashes. The version suffix allows changing the
// hashed fields later without colliding with existing journals.
const DomainEvent = "reactor/event/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a trace event.
// payload must already be canonical JSON.
func EventID(runID string, seq int64, kind string, payload []byte) (string, error) {
	obj := map[string]any{
		"run_id":  runID,
		"seq":     seq,
		"kind":    kind,
		"payload": json.RawMessage(payload),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
