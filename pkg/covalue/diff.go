package covalue

import (
	"sort"

	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/covalue-sync/core/pkg/id"
)

// NewContentSince computes the ContentMessage pieces needed to bring a peer
// whose state is summarized by peerKnown up to date. A nil peerKnown means
// the peer has nothing at all; the result (for that case) is cached on v
// until the next TryAddTransactions invalidates it.
//
// The algorithm runs in passes over the sessions that still have unsent
// data. Each pass, for every pending session, it finds the smallest
// checkpoint-bounded slice of not-yet-sent transactions: either up to (and
// including) the next populated signatureAfter slot at or after what's
// already been sent, or, if none remains, up to the session's head. That
// slice becomes (or extends) one SessionNewContent entry in the current
// piece, with LastSignature set to the checkpoint signature if one bounded
// the slice, or the session's lastSignature if the slice reached the head.
// A session that still has data left after its slice is re-queued for the
// next pass, so a session with several checkpoints spread across a long
// backlog participates in several passes, each contributing one
// checkpoint-bounded entry rather than one giant unsigned entry.
//
// Piece splitting: pieceSize accumulates the byte size of each
// checkpoint-bounded slice as it is added, one slice (not one transaction)
// at a time — splitting mid-slice would leave an entry's LastSignature
// attesting to more transactions than it actually carries. Before adding a
// slice, if the running pieceSize has
// already reached MaxRecommendedTxSize, the current piece is closed and a
// new one (no header) is opened, with pieceSize reset to the size of the
// slice about to be added — so a piece's total is bounded by
// MaxRecommendedTxSize plus at most one slice's worth of overrun, and the
// slice that pushed it over rides in the new piece rather than further
// swelling the old one.
//
// The first piece carries the header iff peerKnown doesn't have it yet;
// every piece after that always omits it. Session iteration order within a
// pass is sorted by textual SessionID for determinism; consumers must not
// rely on any particular split of content across pieces.
func (v *VerifiedState) NewContentSince(peerKnown *KnownState) []ContentMessage {
	v.mu.Lock()
	defer v.mu.Unlock()

	emptyPeer := peerKnown == nil
	if emptyPeer && v.cachedNewContentSinceEmpty != nil {
		return clonePieces(v.cachedNewContentSinceEmpty)
	}

	peerHasHeader := false
	sent := make(map[id.SessionID]int, len(v.sessions))
	for sid := range v.sessions {
		sent[sid] = 0
	}
	if !emptyPeer {
		peerHasHeader = peerKnown.Header
		for sidText, n := range peerKnown.Sessions {
			sid, err := id.ParseSessionID(sidText)
			if err != nil {
				continue
			}
			if _, ok := v.sessions[sid]; ok {
				sent[sid] = n
			}
		}
	}

	priority := PriorityOf(v.header)

	pending := make([]id.SessionID, 0, len(v.sessions))
	for sid := range v.sessions {
		pending = append(pending, sid)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].String() < pending[j].String() })

	var pieces []ContentMessage
	current := newPiece(v.coID, priority, !peerHasHeader, v.header)
	pieceSize := 0

	flush := func() {
		if len(current.New) > 0 || current.Header != nil {
			pieces = append(pieces, current)
		}
		current = newPiece(v.coID, priority, false, Header{})
		pieceSize = 0
	}

	for len(pending) > 0 {
		next := pending[:0]
		for _, sid := range pending {
			sess := v.sessions[sid]
			total := len(sess.transactions)
			s := sent[sid]
			if s >= total {
				continue
			}

			nextSigIdx := -1
			for j := s; j < len(sess.signatureAfter); j++ {
				if sess.signatureAfter[j] != nil {
					nextSigIdx = j
					break
				}
			}

			var afterLastNew int
			var checkpointUsed bool
			if nextSigIdx != -1 {
				afterLastNew = nextSigIdx + 1
				checkpointUsed = true
			} else {
				afterLastNew = total
			}

			slice := sess.transactions[s:afterLastNew]
			sliceSize := 0
			for _, tx := range slice {
				sliceSize += tx.PayloadSize()
			}

			if pieceSize >= MaxRecommendedTxSize {
				flush()
			}
			pieceSize += sliceSize

			var lastSig crypto.Signature
			if checkpointUsed {
				lastSig = *sess.signatureAfter[nextSigIdx]
			} else {
				lastSig = sess.lastSignature
			}

			entry, exists := current.New[sid.String()]
			if !exists {
				entry.After = s
			}
			entry.NewTransactions = append(entry.NewTransactions, slice...)
			entry.LastSignature = lastSig
			current.New[sid.String()] = entry

			sent[sid] = afterLastNew
			if afterLastNew < total {
				next = append(next, sid)
			}
		}
		pending = next
	}

	if len(current.New) > 0 || current.Header != nil {
		pieces = append(pieces, current)
	}

	if emptyPeer {
		v.cachedNewContentSinceEmpty = pieces
		return clonePieces(pieces)
	}
	return pieces
}

// clonePieces returns a deep copy of pieces, so a caller mutating the
// result (its New map, or a NewTransactions slice) can't corrupt the cache.
func clonePieces(pieces []ContentMessage) []ContentMessage {
	out := make([]ContentMessage, len(pieces))
	for i, p := range pieces {
		cp := p
		if p.Header != nil {
			h := *p.Header
			cp.Header = &h
		}
		cp.New = make(map[string]SessionNewContent, len(p.New))
		for sid, entry := range p.New {
			e := entry
			e.NewTransactions = append([]Transaction(nil), entry.NewTransactions...)
			cp.New[sid] = e
		}
		out[i] = cp
	}
	return out
}

func newPiece(coID id.RawCoID, priority Priority, withHeader bool, header Header) ContentMessage {
	p := ContentMessage{
		ID:       coID,
		Priority: priority,
		New:      make(map[string]SessionNewContent),
	}
	if withHeader {
		h := header
		p.Header = &h
	}
	return p
}
