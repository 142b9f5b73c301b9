package game

import (
	"encoding/json"
	"fmt"
)

// Card values range over [MinCardValue, MaxCardValue].
const (
	MinCardValue = -2
	MaxCardValue = 12
)

// CardKind tags the variant held by a Card.
type CardKind uint8

const (
	KindEmpty CardKind = iota
	KindNumber
	KindItem
)

// String returns the protocol string for a CardKind.
func (k CardKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// ItemCode identifies one of the five spike-mode item cards.
type ItemCode byte

const (
	ItemReroll      ItemCode = 'A'
	ItemSelfShuffle ItemCode = 'B'
	ItemWildSet     ItemCode = 'C'
	ItemFreeze      ItemCode = 'D'
	ItemSwap        ItemCode = 'E'
)

// AllItemCodes lists the item codes in deck order.
var AllItemCodes = []ItemCode{ItemReroll, ItemSelfShuffle, ItemWildSet, ItemFreeze, ItemSwap}

// String returns the one-letter code.
func (c ItemCode) String() string { return string(rune(c)) }

// Valid reports whether c is one of the five known codes.
func (c ItemCode) Valid() bool {
	switch c {
	case ItemReroll, ItemSelfShuffle, ItemWildSet, ItemFreeze, ItemSwap:
		return true
	default:
		return false
	}
}

// ParseItemCode converts "A".."E" to an ItemCode.
func ParseItemCode(s string) (ItemCode, error) {
	if len(s) != 1 || !ItemCode(s[0]).Valid() {
		return 0, fmt.Errorf("unknown item code %q", s)
	}
	return ItemCode(s[0]), nil
}

// Card is a tagged value: an empty slot marker, a number card or an item card.
// The zero value is the empty marker.
type Card struct {
	kind  CardKind
	value int8
	item  ItemCode
}

// EmptyCard is the marker left behind by a column clear.
var EmptyCard = Card{}

// NumberCard returns a number card with value v.
func NumberCard(v int) Card {
	return Card{kind: KindNumber, value: int8(v)}
}

// ItemCard returns an item card with the given code.
func ItemCard(code ItemCode) Card {
	return Card{kind: KindItem, item: code}
}

// Kind returns the variant tag.
func (c Card) Kind() CardKind { return c.kind }

// IsEmpty reports whether c is the empty marker.
func (c Card) IsEmpty() bool { return c.kind == KindEmpty }

// IsNumber reports whether c is a number card.
func (c Card) IsNumber() bool { return c.kind == KindNumber }

// IsItem reports whether c is an item card.
func (c Card) IsItem() bool { return c.kind == KindItem }

// Value returns the point value; empties and items are worth 0.
func (c Card) Value() int {
	if c.kind != KindNumber {
		return 0
	}
	return int(c.value)
}

// Item returns the item code, or 0 for non-item cards.
func (c Card) Item() ItemCode {
	if c.kind != KindItem {
		return 0
	}
	return c.item
}

func (c Card) String() string {
	switch c.kind {
	case KindNumber:
		return fmt.Sprintf("%d", c.value)
	case KindItem:
		return c.item.String()
	default:
		return "_"
	}
}

// MarshalJSON encodes empties as null, numbers as integers and items as their letter.
func (c Card) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(int(c.value))
	case KindItem:
		return json.Marshal(c.item.String())
	default:
		return nil, fmt.Errorf("card: unknown kind %d", c.kind)
	}
}

// UnmarshalJSON accepts the three encodings produced by MarshalJSON.
func (c *Card) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = EmptyCard
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		code, err := ParseItemCode(s)
		if err != nil {
			return err
		}
		*c = ItemCard(code)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("card: %w", err)
	}
	if v < MinCardValue || v > MaxCardValue {
		return fmt.Errorf("card: value %d out of range", v)
	}
	*c = NumberCard(v)
	return nil
}
