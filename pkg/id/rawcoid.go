// Package id implements the textual identifiers used to address CoValues
// and sessions: RawCoID and SessionID.
package id

import (
	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/mr-tron/base58"
)

const rawCoIDPrefix = "co_z"

// RawCoID identifies a CoValue: the ShortHash of its header's canonical
// JSON encoding.
type RawCoID crypto.ShortHash

// NewRawCoID derives a RawCoID from a header's ShortHash.
func NewRawCoID(h crypto.ShortHash) RawCoID {
	return RawCoID(h)
}

func (id RawCoID) String() string {
	return rawCoIDPrefix + base58.Encode(id[:])
}

func (id RawCoID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RawCoID) UnmarshalText(text []byte) error {
	parsed, err := ParseRawCoID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseRawCoID decodes the "co_z"-prefixed textual form of a RawCoID.
func ParseRawCoID(s string) (RawCoID, error) {
	var out RawCoID
	if len(s) < len(rawCoIDPrefix) || s[:len(rawCoIDPrefix)] != rawCoIDPrefix {
		return out, &coerrs.MalformedEncoding{Kind: "RawCoID", Text: s, Reason: "missing co_z prefix"}
	}
	decoded, err := base58.Decode(s[len(rawCoIDPrefix):])
	if err != nil {
		return out, &coerrs.MalformedEncoding{Kind: "RawCoID", Text: s, Reason: err.Error()}
	}
	if len(decoded) != len(out) {
		return out, &coerrs.MalformedEncoding{Kind: "RawCoID", Text: s, Reason: "decoded length is not 19 bytes"}
	}
	copy(out[:], decoded)
	return out, nil
}
