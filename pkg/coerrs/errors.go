// Package coerrs defines the error kinds produced by the verification core.
//
// The core never logs or retries (that is a policy decision for surrounding
// code); it only ever reports what went wrong, with enough structure for a
// caller to distinguish a corrupt transfer from a genuine protocol violation.
package coerrs

import (
	"errors"
	"fmt"
)

// ErrSignatureInvalid is returned when an Ed25519 signature fails to verify
// against the message and signer it was checked against.
var ErrSignatureInvalid = errors.New("signature invalid")

// HashMismatch reports that the hash recomputed while verifying an append
// did not match the one the caller expected.
type HashMismatch struct {
	CoValueID string
	SessionID string
	Expected  string
	Actual    string
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("hash mismatch for %s/%s: expected %s, got %s", e.CoValueID, e.SessionID, e.Expected, e.Actual)
}

// SignatureInvalid reports an Ed25519 verification failure for a specific
// session and signer, wrapping ErrSignatureInvalid so callers can match it
// with errors.Is.
type SignatureInvalid struct {
	CoValueID string
	SessionID string
	SignerID  string
}

func (e *SignatureInvalid) Error() string {
	return fmt.Sprintf("invalid signature for %s/%s by %s", e.CoValueID, e.SessionID, e.SignerID)
}

func (e *SignatureInvalid) Unwrap() error { return ErrSignatureInvalid }

// MalformedEncoding reports a textual or binary encoding that failed to
// parse: a bad Base58 alphabet, a wrong-length decoded byte string, or a
// missing fixed prefix.
type MalformedEncoding struct {
	Kind   string // "Hash", "ShortHash", "RawCoID", "SessionID", "SignerID", "Signature", "SignerSecret"
	Text   string
	Reason string
}

func (e *MalformedEncoding) Error() string {
	return fmt.Sprintf("malformed %s encoding %q: %s", e.Kind, e.Text, e.Reason)
}

// SerializationFailure wraps an underlying encoding/json error encountered
// while canonicalizing a value for hashing or signing.
type SerializationFailure struct {
	Cause error
}

func (e *SerializationFailure) Error() string {
	return fmt.Sprintf("serialization failure: %v", e.Cause)
}

func (e *SerializationFailure) Unwrap() error { return e.Cause }
