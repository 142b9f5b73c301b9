package game

// ItemDensity controls how many copies of each item code are shuffled into a spike-mode deck.
type ItemDensity string

const (
	DensityNone   ItemDensity = "none"
	DensityLow    ItemDensity = "low"
	DensityMedium ItemDensity = "medium"
	DensityHigh   ItemDensity = "high"
)

// Copies returns the per-code copy count for the density. Unknown densities count as none.
func (d ItemDensity) Copies() int {
	switch d {
	case DensityLow:
		return 1
	case DensityMedium:
		return 2
	case DensityHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether d is a known density.
func (d ItemDensity) Valid() bool {
	switch d {
	case DensityNone, DensityLow, DensityMedium, DensityHigh:
		return true
	default:
		return false
	}
}

// deckComposition is the number-card table: value -> copies.
var deckComposition = []struct {
	value, copies int
}{
	{-2, 5},
	{-1, 10},
	{0, 15},
	{1, 10}, {2, 10}, {3, 10}, {4, 10}, {5, 10}, {6, 10},
	{7, 10}, {8, 10}, {9, 10}, {10, 10}, {11, 10}, {12, 10},
}

// DeckSize is the number of number cards in a fresh deck.
const DeckSize = 150

// CreateDeck returns an unshuffled number-card deck.
func CreateDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, row := range deckComposition {
		for i := 0; i < row.copies; i++ {
			deck = append(deck, NumberCard(row.value))
		}
	}
	return deck
}

// CreateItemCards returns density.Copies() copies of each item code.
func CreateItemCards(density ItemDensity) []Card {
	n := density.Copies()
	if n == 0 {
		return []Card{}
	}
	cards := make([]Card, 0, n*len(AllItemCodes))
	for _, code := range AllItemCodes {
		for i := 0; i < n; i++ {
			cards = append(cards, ItemCard(code))
		}
	}
	return cards
}

// Shuffle permutes cards in place with Fisher–Yates.
func Shuffle(cards []Card, rng Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := intn(rng, i+1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// popCard removes and returns the last card of pile.
func popCard(pile []Card) ([]Card, Card, bool) {
	if len(pile) == 0 {
		return pile, EmptyCard, false
	}
	top := pile[len(pile)-1]
	return pile[:len(pile)-1], top, true
}

// topCard returns the last card of pile without removing it.
func topCard(pile []Card) (Card, bool) {
	if len(pile) == 0 {
		return EmptyCard, false
	}
	return pile[len(pile)-1], true
}

// refillDeck moves every discard card except the top into a freshly shuffled deck.
// It is a no-op while the deck still holds cards or the discard has fewer than two.
func refillDeck(g *GameState, rng Rand) bool {
	if len(g.Deck) > 0 || len(g.Discard) < 2 {
		return false
	}
	top := g.Discard[len(g.Discard)-1]
	deck := make([]Card, len(g.Discard)-1)
	copy(deck, g.Discard[:len(g.Discard)-1])
	Shuffle(deck, rng)
	g.Deck = deck
	g.Discard = []Card{top}
	return true
}
