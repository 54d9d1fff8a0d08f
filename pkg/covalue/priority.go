package covalue

import "encoding/json"

// Priority orders sync traffic: lower values are serviced first. The full
// range is an 8-level enumeration {0..7}; only three named levels get
// constants, the rest are reachable as plain integers and retain their
// total order.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityMedium Priority = 3
	PriorityLow    Priority = 6
)

// PriorityOf derives the sync priority of a CoValue from its header: its
// type, its ruleset, and meta.type when meta is a JSON object carrying a
// string "type" field. Account CoValues and group CoValues (the permission
// graph itself) are serviced ahead of the content they govern; binary
// costreams are serviced last; everything else is medium priority.
func PriorityOf(h Header) Priority {
	if metaType(h.Meta) == "account" {
		return PriorityHigh
	}
	if h.Ruleset.Type == RulesetGroup {
		return PriorityHigh
	}
	if h.Type == "costream" && metaType(h.Meta) == "binary" {
		return PriorityLow
	}
	return PriorityMedium
}

// metaType extracts meta.type when meta is a JSON object with a string
// "type" field, and "" otherwise.
func metaType(meta json.RawMessage) string {
	if len(meta) == 0 {
		return ""
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(meta, &obj); err != nil {
		return ""
	}
	return obj.Type
}
