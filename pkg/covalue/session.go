package covalue

import "github.com/covalue-sync/core/pkg/crypto"

// sessionLog is one session's append-only transaction log plus the
// incremental verification state needed to check the next append cheaply:
// the streaming hash folds in every transaction seen so far, and
// signatureAfter sparsely records which transaction indices are covered by
// a checkpoint signature (every non-nil slot is itself a valid Ed25519
// signature over the textual form of the streaming hash through that
// index).
type sessionLog struct {
	transactions   []Transaction
	streamingHash  *crypto.StreamingHash
	signatureAfter []*crypto.Signature
	lastSignature  crypto.Signature
}

// lastCheckpointBoundary returns the index from which the next
// size-accounting window starts: one past the highest populated slot in
// signatureAfter, or 0 if no slot is populated yet. Defaulting to 0 (a
// start boundary covering every transaction) rather than treating "no
// checkpoint yet" as "nothing counts" is deliberate — see DESIGN.md Open
// Question 2: it is what makes a single oversized first transaction
// checkpoint immediately instead of being silently excluded from the size
// sum that would otherwise trigger it.
func lastCheckpointBoundary(signatureAfter []*crypto.Signature) int {
	for i := len(signatureAfter) - 1; i >= 0; i-- {
		if signatureAfter[i] != nil {
			return i + 1
		}
	}
	return 0
}
