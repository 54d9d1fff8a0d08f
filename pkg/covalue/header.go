package covalue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/covalue-sync/core/pkg/id"
)

// RulesetType discriminates the variants of Ruleset.
type RulesetType string

const (
	RulesetUnsafeAllowAll RulesetType = "unsafeAllowAll"
	RulesetGroup          RulesetType = "group"
	RulesetOwnedByGroup   RulesetType = "ownedByGroup"
)

// Ruleset names which permission model governs a CoValue, without
// evaluating it — the core treats every signer identity as opaque and
// leaves permission/ACL evaluation to the caller.
type Ruleset struct {
	Type RulesetType

	// InitialAdmin is set when Type == RulesetGroup: the account that
	// starts as the sole admin of a freshly created group.
	InitialAdmin id.RawCoID

	// Group is set when Type == RulesetOwnedByGroup: the group CoValue
	// whose role assignments govern this CoValue.
	Group id.RawCoID
}

func (r Ruleset) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RulesetUnsafeAllowAll:
		return json.Marshal(struct {
			Type RulesetType `json:"type"`
		}{r.Type})
	case RulesetGroup:
		return json.Marshal(struct {
			Type         RulesetType `json:"type"`
			InitialAdmin id.RawCoID  `json:"initialAdmin"`
		}{r.Type, r.InitialAdmin})
	case RulesetOwnedByGroup:
		return json.Marshal(struct {
			Type  RulesetType `json:"type"`
			Group id.RawCoID  `json:"group"`
		}{r.Type, r.Group})
	default:
		return nil, fmt.Errorf("covalue: unknown ruleset type %q", r.Type)
	}
}

func (r *Ruleset) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type         RulesetType `json:"type"`
		InitialAdmin id.RawCoID  `json:"initialAdmin"`
		Group        id.RawCoID  `json:"group"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return &coerrs.SerializationFailure{Cause: err}
	}
	switch tagged.Type {
	case RulesetUnsafeAllowAll, RulesetGroup, RulesetOwnedByGroup:
		r.Type = tagged.Type
		r.InitialAdmin = tagged.InitialAdmin
		r.Group = tagged.Group
		return nil
	default:
		return fmt.Errorf("covalue: unknown ruleset type %q", tagged.Type)
	}
}

// Header is the immutable, content-addressed identity of a CoValue. Its
// Uniqueness and CreatedAt fields disambiguate two CoValues that would
// otherwise have identical headers (same type, ruleset and meta), e.g. two
// empty groups created at the same moment by the same account — the
// original source's CoValueUniqueness is flattened directly into Header
// rather than nested, matching the "uniqueness flattened into itself" wire
// rule. A header's canonical JSON encoding's ShortHash is the CoValue's
// RawCoID.
type Header struct {
	Type       string          `json:"type"`
	Ruleset    Ruleset         `json:"ruleset"`
	Meta       json.RawMessage `json:"meta"`
	Uniqueness string          `json:"uniqueness"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ID computes the RawCoID this header addresses.
func (h Header) ID() (id.RawCoID, error) {
	short, err := crypto.ShortHashValue(h)
	if err != nil {
		return id.RawCoID{}, err
	}
	return id.NewRawCoID(short), nil
}
