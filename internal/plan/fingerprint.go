package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint derives a stable content hash of the baseline triple. Array
// order within the anchor and wish pools is significant: reordering reflects
// a real baseline edit and counts as a change.
//
// The fingerprint is recorded by the caller at the moment a synthesis is
// adopted as the day's plan, never on mere baseline edits, so comparing it
// against the live baseline yields a one-way staleness flag.
func Fingerprint(b Baseline) string {
	payload, err := json.Marshal(b)
	if err != nil {
		// Baseline contains only strings, ints, bools, and slices of those;
		// Marshal cannot fail on it.
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// IsDirty reports whether the live baseline has drifted from the one the
// current day-plan was synthesized from. An empty lastSynced means no
// synthesis has been adopted yet, which always reads as dirty.
func IsDirty(current Baseline, lastSynced string) bool {
	return Fingerprint(current) != lastSynced
}
