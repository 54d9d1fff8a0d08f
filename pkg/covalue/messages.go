package covalue

import (
	"encoding/json"
	"fmt"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/covalue-sync/core/pkg/id"
)

// Action discriminates the sync message taxonomy.
type Action string

const (
	ActionLoad    Action = "load"
	ActionKnown   Action = "known"
	ActionContent Action = "content"
	ActionDone    Action = "done"
)

// SessionNewContent is the per-session payload of a ContentMessage: the
// transactions a peer doesn't have yet, how many transactions preceded
// them (After), and a signature attesting to the chain through
// After+len(NewTransactions) — either a checkpoint signature if one landed
// exactly at that boundary, or the session's lastSignature if this batch
// reaches the session's current head.
type SessionNewContent struct {
	After           int              `json:"after"`
	NewTransactions []Transaction    `json:"newTransactions"`
	LastSignature   crypto.Signature `json:"lastSignature"`
}

// LoadMessage asks a peer for everything it has of a CoValue beyond what
// the sender already has (KnownState summarizes the sender's own state).
type LoadMessage struct {
	KnownState
}

// KnownMessage announces the sender's own KnownState, optionally tagging it
// as needed only to resolve a dependency of another CoValue, or as a
// correction issued after a rejected content message.
type KnownMessage struct {
	KnownState
	AsDependencyOf *id.RawCoID `json:"asDependencyOf,omitempty"`
	IsCorrection   *bool       `json:"isCorrection,omitempty"`
}

// ContentMessage carries new transactions for zero or more sessions, plus
// the header when the recipient is not yet known to have it.
type ContentMessage struct {
	ID       id.RawCoID                   `json:"id"`
	Header   *Header                      `json:"header,omitempty"`
	Priority Priority                     `json:"priority"`
	New      map[string]SessionNewContent `json:"new"`
}

// DoneMessage signals that the sender has no more content for a CoValue in
// the current sync round.
type DoneMessage struct {
	ID id.RawCoID `json:"id"`
}

// Message is any of LoadMessage, KnownMessage, ContentMessage, DoneMessage.
type Message interface {
	action() Action
}

func (LoadMessage) action() Action    { return ActionLoad }
func (KnownMessage) action() Action   { return ActionKnown }
func (ContentMessage) action() Action { return ActionContent }
func (DoneMessage) action() Action    { return ActionDone }

// EncodeMessage serializes msg to its wire JSON form, with the "action"
// discriminator set.
func EncodeMessage(msg Message) ([]byte, error) {
	var raw map[string]json.RawMessage
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}
	actionJSON, _ := json.Marshal(string(msg.action()))
	raw["action"] = actionJSON
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}
	return out, nil
}

// DecodeMessage parses a wire JSON sync message, dispatching on its
// "action" discriminator.
func DecodeMessage(data []byte) (Message, error) {
	var tag struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, &coerrs.SerializationFailure{Cause: err}
	}
	switch tag.Action {
	case ActionLoad:
		var m LoadMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &coerrs.SerializationFailure{Cause: err}
		}
		return m, nil
	case ActionKnown:
		var m KnownMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &coerrs.SerializationFailure{Cause: err}
		}
		return m, nil
	case ActionContent:
		var m ContentMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &coerrs.SerializationFailure{Cause: err}
		}
		return m, nil
	case ActionDone:
		var m DoneMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &coerrs.SerializationFailure{Cause: err}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("covalue: unknown sync message action %q", tag.Action)
	}
}
