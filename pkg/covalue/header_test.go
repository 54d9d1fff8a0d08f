package covalue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/covalue-sync/core/pkg/id"
)

func newTestHeader(t *testing.T, uniqueness string) Header {
	t.Helper()
	return Header{
		Type:       "comap",
		Ruleset:    Ruleset{Type: RulesetUnsafeAllowAll},
		Uniqueness: uniqueness,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestHeaderIDDeterministic(t *testing.T) {
	h1 := newTestHeader(t, "abc")
	h2 := newTestHeader(t, "abc")

	id1, err := h1.ID()
	if err != nil {
		t.Fatal(err)
	}
	id2, err := h2.ID()
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical IDs for identical headers")
	}
}

func TestHeaderIDDiffersOnUniqueness(t *testing.T) {
	id1, err := newTestHeader(t, "abc").ID()
	if err != nil {
		t.Fatal(err)
	}
	id2, err := newTestHeader(t, "def").ID()
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("expected different IDs for different uniqueness values")
	}
}

func TestRulesetJSONRoundTripVariants(t *testing.T) {
	admin := id.RawCoID{1, 2, 3}
	group := id.RawCoID{4, 5, 6}

	cases := []Ruleset{
		{Type: RulesetUnsafeAllowAll},
		{Type: RulesetGroup, InitialAdmin: admin},
		{Type: RulesetOwnedByGroup, Group: group},
	}

	for _, rs := range cases {
		data, err := json.Marshal(rs)
		if err != nil {
			t.Fatalf("marshal %v: %v", rs.Type, err)
		}
		var parsed Ruleset
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("unmarshal %v: %v", rs.Type, err)
		}
		if parsed != rs {
			t.Fatalf("round trip mismatch for %v: got %+v want %+v", rs.Type, parsed, rs)
		}
	}
}

func TestHeaderJSONNestsRulesetUnderOwnKey(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Ruleset = Ruleset{Type: RulesetGroup, InitialAdmin: id.RawCoID{9}}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatal(err)
	}
	if generic["type"] != "comap" {
		t.Fatalf("expected top-level type to be the covalue type, got %v", generic["type"])
	}
	rulesetField, ok := generic["ruleset"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested ruleset object, got %T", generic["ruleset"])
	}
	if rulesetField["type"] != string(RulesetGroup) {
		t.Fatalf("expected ruleset.type to be %q, got %v", RulesetGroup, rulesetField["type"])
	}
}

func TestPriorityOfGroupIsHigh(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Ruleset = Ruleset{Type: RulesetGroup, InitialAdmin: id.RawCoID{1}}
	if got := PriorityOf(h); got != PriorityHigh {
		t.Fatalf("expected PriorityHigh for a group ruleset, got %v", got)
	}
}

func TestPriorityOfOtherIsMedium(t *testing.T) {
	h := newTestHeader(t, "abc")
	if got := PriorityOf(h); got != PriorityMedium {
		t.Fatalf("expected PriorityMedium for a non-group ruleset, got %v", got)
	}
}

func TestPriorityOfAccountMetaIsHigh(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Meta = json.RawMessage(`{"type":"account"}`)
	if got := PriorityOf(h); got != PriorityHigh {
		t.Fatalf("expected PriorityHigh for meta.type == account, got %v", got)
	}
}

func TestPriorityOfBinaryCostreamIsLow(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Type = "costream"
	h.Meta = json.RawMessage(`{"type":"binary"}`)
	if got := PriorityOf(h); got != PriorityLow {
		t.Fatalf("expected PriorityLow for a binary costream, got %v", got)
	}
}

func TestPriorityOfBinaryMetaWithoutCostreamIsMedium(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Meta = json.RawMessage(`{"type":"binary"}`)
	if got := PriorityOf(h); got != PriorityMedium {
		t.Fatalf("expected PriorityMedium when type isn't costream even if meta.type is binary, got %v", got)
	}
}

func TestPriorityOfMalformedMetaIsMedium(t *testing.T) {
	h := newTestHeader(t, "abc")
	h.Meta = json.RawMessage(`not-json`)
	if got := PriorityOf(h); got != PriorityMedium {
		t.Fatalf("expected PriorityMedium for malformed meta, got %v", got)
	}
}
