package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a deterministic key from a request's stable attributes
// (caller identity, operation, salient parameters). Transport retries of an
// unchanged request always hash to the same key.
func Fingerprint(caller, operation string, params ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(strings.ToLower(caller))))
	h.Write([]byte{0})
	h.Write([]byte(operation))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
