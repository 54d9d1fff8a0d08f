package crypto

import (
	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"
)

const (
	hashPrefix      = "hash_z"
	shortHashPrefix = "shortHash_z"

	// shortHashLength is the number of leading digest bytes a ShortHash
	// keeps — enough to make a RawCoID collision-resistant in practice
	// without carrying a full 32-byte digest in every identifier.
	shortHashLength = 19
)

// Hash is a full 32-byte BLAKE3 digest of a value's canonical JSON form.
type Hash [32]byte

// ShortHash is the leading 19 bytes of a Hash, used to derive RawCoID.
type ShortHash [shortHashLength]byte

// HashValue computes the BLAKE3 digest of v's canonical JSON encoding.
func HashValue(v any) (Hash, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return Hash{}, err
	}
	return Hash(blake3.Sum256(b)), nil
}

// ShortHashValue computes the ShortHash of v's canonical JSON encoding
// directly, without requiring a caller to first compute the full Hash.
func ShortHashValue(v any) (ShortHash, error) {
	h, err := HashValue(v)
	if err != nil {
		return ShortHash{}, err
	}
	return h.Short(), nil
}

// Short truncates a Hash down to its ShortHash.
func (h Hash) Short() ShortHash {
	var s ShortHash
	copy(s[:], h[:shortHashLength])
	return s
}

func (h Hash) String() string {
	return hashPrefix + base58.Encode(h[:])
}

// MarshalText implements encoding.TextMarshaler so Hash serializes to its
// textual form both as a bare JSON string and as a JSON object key.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes the "hash_z"-prefixed textual form of a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) < len(hashPrefix) || s[:len(hashPrefix)] != hashPrefix {
		return h, &coerrs.MalformedEncoding{Kind: "Hash", Text: s, Reason: "missing hash_z prefix"}
	}
	decoded, err := base58.Decode(s[len(hashPrefix):])
	if err != nil {
		return h, &coerrs.MalformedEncoding{Kind: "Hash", Text: s, Reason: err.Error()}
	}
	if len(decoded) != len(h) {
		return h, &coerrs.MalformedEncoding{Kind: "Hash", Text: s, Reason: "decoded length is not 32 bytes"}
	}
	copy(h[:], decoded)
	return h, nil
}

func (s ShortHash) String() string {
	return shortHashPrefix + base58.Encode(s[:])
}

func (s ShortHash) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ShortHash) UnmarshalText(text []byte) error {
	parsed, err := ParseShortHash(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseShortHash decodes the "shortHash_z"-prefixed textual form of a
// ShortHash.
func ParseShortHash(s string) (ShortHash, error) {
	var out ShortHash
	if len(s) < len(shortHashPrefix) || s[:len(shortHashPrefix)] != shortHashPrefix {
		return out, &coerrs.MalformedEncoding{Kind: "ShortHash", Text: s, Reason: "missing shortHash_z prefix"}
	}
	decoded, err := base58.Decode(s[len(shortHashPrefix):])
	if err != nil {
		return out, &coerrs.MalformedEncoding{Kind: "ShortHash", Text: s, Reason: err.Error()}
	}
	if len(decoded) != len(out) {
		return out, &coerrs.MalformedEncoding{Kind: "ShortHash", Text: s, Reason: "decoded length is not 19 bytes"}
	}
	copy(out[:], decoded)
	return out, nil
}
