package id

import (
	"strings"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/google/uuid"
)

const sessionIDDelimiter = "_session_z"

// SessionID identifies one session's append-only log within a CoValue: the
// account that owns the session, paired with a nonce distinguishing
// multiple sessions the same account may open (e.g. one per device).
type SessionID struct {
	AccountID RawCoID
	Nonce     string
}

// NewSessionNonce generates a fresh random nonce suitable for a new
// session. Callers are free to supply their own nonce instead (e.g. a
// device identifier) — this is a convenience, not a requirement.
func NewSessionNonce() string {
	return uuid.NewString()
}

func (s SessionID) String() string {
	return s.AccountID.String() + sessionIDDelimiter + s.Nonce
}

func (s SessionID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionID) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionID(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSessionID splits the textual form of a SessionID on the first
// occurrence of "_session_z" (split, not rsplit): everything after that
// first occurrence is the nonce, so a nonce that itself contains the
// delimiter is kept whole and round-trips through String.
func ParseSessionID(s string) (SessionID, error) {
	parts := strings.SplitN(s, sessionIDDelimiter, 2)
	if len(parts) != 2 {
		return SessionID{}, &coerrs.MalformedEncoding{Kind: "SessionID", Text: s, Reason: "missing _session_z delimiter"}
	}
	accountID, err := ParseRawCoID(parts[0])
	if err != nil {
		return SessionID{}, err
	}
	if parts[1] == "" {
		return SessionID{}, &coerrs.MalformedEncoding{Kind: "SessionID", Text: s, Reason: "empty nonce"}
	}
	return SessionID{AccountID: accountID, Nonce: parts[1]}, nil
}
