package covalue

import (
	"sync"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/covalue-sync/core/pkg/id"
)

// VerifiedState is a CoValue's verified in-memory replica: its header plus
// every session's transaction log, each one checked against its hash chain
// and signatures before being admitted. A single sync.RWMutex guards the
// session map and both caches; a whole-value write lock is sufficient since
// nothing reads a session concurrently with an append to it.
type VerifiedState struct {
	mu sync.RWMutex

	coID   id.RawCoID
	header Header

	sessions map[id.SessionID]*sessionLog

	cachedKnownState           *KnownState
	cachedNewContentSinceEmpty []ContentMessage
}

// NewVerifiedState creates an empty VerifiedState for header, with no
// sessions yet.
func NewVerifiedState(header Header) (*VerifiedState, error) {
	coID, err := header.ID()
	if err != nil {
		return nil, err
	}
	return &VerifiedState{
		coID:     coID,
		header:   header,
		sessions: make(map[id.SessionID]*sessionLog),
	}, nil
}

// ID returns the CoValue's RawCoID.
func (v *VerifiedState) ID() id.RawCoID {
	return v.coID
}

// Header returns the CoValue's header.
func (v *VerifiedState) Header() Header {
	return v.header
}

// ExpectedNewHashAfter previews the streaming-hash digest a session would
// have after appending newTxs, without mutating any state or checking a
// signature. Exposed standalone (not only as a step inside
// TryAddTransactions) for the common case of an out-of-band signer: a
// caller constructs the prospective hash, has a remote device sign its
// textual form, then calls TryAddTransactions with that signature.
func (v *VerifiedState) ExpectedNewHashAfter(sessionID id.SessionID, newTxs []Transaction) (crypto.Hash, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var h *crypto.StreamingHash
	if sess := v.sessions[sessionID]; sess != nil {
		h = sess.streamingHash.Clone()
	} else {
		h = crypto.NewStreamingHash()
	}
	for _, tx := range newTxs {
		if err := h.Update(tx); err != nil {
			return crypto.Hash{}, err
		}
	}
	return h.Digest(), nil
}

// AddTransactionsInput is the input to TryAddTransactions: one session's
// worth of new transactions, the hash and signature attesting to them, and
// the signer to check that signature under.
type AddTransactionsInput struct {
	SessionID       id.SessionID
	Signer          crypto.SignerID
	NewTransactions []Transaction
	ExpectedNewHash crypto.Hash
	NewSignature    crypto.Signature

	// SkipVerify skips comparing the recomputed digest against
	// ExpectedNewHash and checking NewSignature — for loading state a
	// caller already verified once (e.g. from local durable storage). The
	// streaming hash is still recomputed and folded forward either way,
	// since later appends need a correct base to extend.
	SkipVerify bool
}

// TryAddTransactions verifies and appends a batch of new transactions to
// one session:
//
//  1. locate the session, creating an empty one if this is its first
//     appearance;
//  2. clone the session's streaming hash and fold in the new transactions
//     to compute the prospective digest;
//  3. unless SkipVerify, compare that digest against ExpectedNewHash
//     (coerrs.HashMismatch on mismatch) and verify NewSignature against its
//     textual form under Signer (coerrs.SignatureInvalid on mismatch);
//  4. commit: append the transactions, adopt the cloned hash as the
//     session's new streaming hash;
//  5. extend signatureAfter to track the new length, and if the payload
//     bytes since the last checkpoint now reach MaxRecommendedTxSize, record
//     NewSignature as a checkpoint at the new last index;
//  6. record NewSignature as the session's lastSignature and invalidate the
//     known-state and diff caches.
func (v *VerifiedState) TryAddTransactions(in AddTransactionsInput) error {
	if len(in.NewTransactions) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	sess := v.sessions[in.SessionID]
	if sess == nil {
		sess = &sessionLog{streamingHash: crypto.NewStreamingHash()}
	}

	prospective := sess.streamingHash.Clone()
	for _, tx := range in.NewTransactions {
		if err := prospective.Update(tx); err != nil {
			return err
		}
	}
	expected := prospective.Digest()

	if !in.SkipVerify {
		if expected != in.ExpectedNewHash {
			return &coerrs.HashMismatch{
				CoValueID: v.coID.String(),
				SessionID: in.SessionID.String(),
				Expected:  in.ExpectedNewHash.String(),
				Actual:    expected.String(),
			}
		}
		if err := in.Signer.Verify(expected.String(), in.NewSignature); err != nil {
			if si, ok := err.(*coerrs.SignatureInvalid); ok {
				si.CoValueID = v.coID.String()
				si.SessionID = in.SessionID.String()
			}
			return err
		}
	}

	sess.transactions = append(sess.transactions, in.NewTransactions...)
	sess.streamingHash = prospective

	boundary := lastCheckpointBoundary(sess.signatureAfter)
	tailSize := 0
	for i := boundary; i < len(sess.transactions); i++ {
		tailSize += sess.transactions[i].PayloadSize()
	}
	for len(sess.signatureAfter) < len(sess.transactions) {
		sess.signatureAfter = append(sess.signatureAfter, nil)
	}
	if tailSize >= MaxRecommendedTxSize {
		sig := in.NewSignature
		sess.signatureAfter[len(sess.transactions)-1] = &sig
	}
	sess.lastSignature = in.NewSignature

	v.sessions[in.SessionID] = sess
	v.invalidateCaches()
	return nil
}

// invalidateCaches must be called with mu held for writing, after any
// mutation to v.sessions.
func (v *VerifiedState) invalidateCaches() {
	v.cachedKnownState = nil
	v.cachedNewContentSinceEmpty = nil
}
