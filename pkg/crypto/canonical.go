package crypto

import (
	"encoding/json"

	"github.com/covalue-sync/core/pkg/coerrs"
)

// CanonicalJSON serializes v into a deterministic byte string: all object
// keys sorted (struct fields included, since the generic round trip below
// turns every object into a map), fixed two-space indentation.
// It is the byte string that Hash, ShortHash, StreamingHash and the signing
// primitives all operate on, so that two equal values always hash and sign
// identically regardless of how they were constructed.
//
// Values are round-tripped through a generic representation before the
// final marshal so that any opaque json.RawMessage embedded in v (e.g.
// covalue.Header.Meta) is re-normalized too, rather than copied verbatim with
// whatever key order and whitespace its producer happened to use.
func CanonicalJSON(v any) ([]byte, error) {
	compact, err := json.Marshal(v)
	if err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}

	var generic any
	if err := json.Unmarshal(compact, &generic); err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}

	canonical, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}
	return canonical, nil
}
