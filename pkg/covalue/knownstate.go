package covalue

import "github.com/covalue-sync/core/pkg/id"

// KnownState is a compact summary of what a peer has of a CoValue: whether
// it has the header, and for each session, how many of its transactions it
// has. It is the currency sync peers exchange to figure out what to send
// next, and the input to newContentSince.
type KnownState struct {
	ID       id.RawCoID     `json:"id"`
	Header   bool           `json:"header"`
	Sessions map[string]int `json:"sessions"`
}

// KnownState computes (and caches, until the next mutation) a summary of
// everything this VerifiedState currently holds.
func (v *VerifiedState) KnownState() KnownState {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cachedKnownState != nil {
		return cloneKnownState(*v.cachedKnownState)
	}

	sessions := make(map[string]int, len(v.sessions))
	for sid, sess := range v.sessions {
		sessions[sid.String()] = len(sess.transactions)
	}
	known := KnownState{ID: v.coID, Header: true, Sessions: sessions}
	v.cachedKnownState = &known
	return cloneKnownState(known)
}

// cloneKnownState returns a copy whose Sessions map is independent of k's,
// so a caller mutating the result can't corrupt the cache.
func cloneKnownState(k KnownState) KnownState {
	sessions := make(map[string]int, len(k.Sessions))
	for sid, n := range k.Sessions {
		sessions[sid] = n
	}
	k.Sessions = sessions
	return k
}
