package crypto

import "lukechampine.com/blake3"

// StreamingHash incrementally folds a sequence of canonical-JSON-encoded
// values into a single BLAKE3 state, so that verifying an append of N new
// transactions costs O(N) instead of re-hashing the whole session log.
//
// Digest is side-effect-free (hash.Hash.Sum does not mutate the underlying
// state), and Clone produces an independent copy cheaply — both properties
// the verify-and-append algorithm relies on to preview a prospective digest
// without committing to it.
type StreamingHash struct {
	h *blake3.Hasher
}

// NewStreamingHash returns a StreamingHash representing the empty prefix.
func NewStreamingHash() *StreamingHash {
	return &StreamingHash{h: blake3.New(32, nil)}
}

// Update folds v's canonical JSON encoding into the running hash.
func (s *StreamingHash) Update(v any) error {
	b, err := CanonicalJSON(v)
	if err != nil {
		return err
	}
	// hash.Hash.Write never returns an error for blake3.Hasher.
	_, _ = s.h.Write(b)
	return nil
}

// Digest returns the Hash of everything folded in so far, without altering
// the streaming state — further Update calls may follow.
func (s *StreamingHash) Digest() Hash {
	var out Hash
	copy(out[:], s.h.Sum(nil))
	return out
}

// Clone returns an independent copy of s that can be updated separately
// without affecting s. blake3.Hasher is a plain value struct, so a
// dereferenced copy is a full, independent copy of its state.
func (s *StreamingHash) Clone() *StreamingHash {
	cp := *s.h
	return &StreamingHash{h: &cp}
}
