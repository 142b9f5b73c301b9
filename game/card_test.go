package game

import (
	"encoding/json"
	"testing"
)

func TestCardJSON(t *testing.T) {
	cards := []Card{EmptyCard, NumberCard(-2), NumberCard(0), NumberCard(12), ItemCard(ItemFreeze)}
	data, err := json.Marshal(cards)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[null,-2,0,12,"D"]` {
		t.Errorf("unexpected encoding %s", data)
	}

	var back []Card
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := range cards {
		if back[i] != cards[i] {
			t.Errorf("card %d: expected %v, got %v", i, cards[i], back[i])
		}
	}
}

func TestCardJSON_Rejects(t *testing.T) {
	for _, raw := range []string{`13`, `-3`, `"F"`, `"AB"`, `true`} {
		var c Card
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			t.Errorf("expected %s to be rejected, got %v", raw, c)
		}
	}
}

func TestCardAccessors(t *testing.T) {
	n := NumberCard(7)
	if !n.IsNumber() || n.Value() != 7 || n.Item() != 0 {
		t.Errorf("number card accessors wrong: %+v", n)
	}
	it := ItemCard(ItemSwap)
	if !it.IsItem() || it.Value() != 0 || it.Item() != ItemSwap {
		t.Errorf("item card accessors wrong: %+v", it)
	}
	var zero Card
	if !zero.IsEmpty() || zero != EmptyCard {
		t.Error("zero Card should be the empty marker")
	}
	if NumberCard(0) == EmptyCard {
		t.Error("a 0 card must differ from the empty marker")
	}
}

func TestParseItemCode(t *testing.T) {
	for _, code := range AllItemCodes {
		got, err := ParseItemCode(code.String())
		if err != nil || got != code {
			t.Errorf("ParseItemCode(%q) = %v, %v", code.String(), got, err)
		}
	}
	if _, err := ParseItemCode("Z"); err == nil {
		t.Error("expected error for unknown code")
	}
}
