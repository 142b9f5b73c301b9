package item

import (
	"skyjo-server/game"
)

// Item defines the interface that all item-card effects implement.
type Item interface {
	Code() game.ItemCode
	Name() string
	Description() string
	// Targets is how many target entries a use request carries.
	Targets() int
	// NeedsSlot reports whether each target addresses a non-empty slot.
	NeedsSlot() bool
	Apply(ctx *game.ItemContext) error
}

// Registry holds all registered items indexed by their code.
type Registry struct {
	items map[game.ItemCode]Item
	order []game.ItemCode // registration order for deterministic AllItems()
}

// NewRegistry creates a new empty item registry.
func NewRegistry() *Registry {
	return &Registry{
		items: make(map[game.ItemCode]Item),
	}
}

// Register adds an item to the registry, replacing any item with the same code.
func (r *Registry) Register(it Item) {
	code := it.Code()
	if _, exists := r.items[code]; !exists {
		r.order = append(r.order, code)
	}
	r.items[code] = it
}

func toDef(it Item) game.ItemDef {
	return game.ItemDef{
		Code:        it.Code(),
		Name:        it.Name(),
		Description: it.Description(),
		Targets:     it.Targets(),
		NeedsSlot:   it.NeedsSlot(),
		Apply:       it.Apply,
	}
}

// Item returns the definition for code.
// It satisfies the game.ItemProvider interface.
func (r *Registry) Item(code game.ItemCode) (game.ItemDef, bool) {
	it, ok := r.items[code]
	if !ok {
		return game.ItemDef{}, false
	}
	return toDef(it), true
}

// AllItems returns every registered item in registration order.
// It satisfies the game.ItemProvider interface.
func (r *Registry) AllItems() []game.ItemDef {
	defs := make([]game.ItemDef, 0, len(r.order))
	for _, code := range r.order {
		defs = append(defs, toDef(r.items[code]))
	}
	return defs
}

// RegisterAll registers the five built-in items on the registry.
func RegisterAll(r *Registry) {
	r.Register(&Reroll{})
	r.Register(&SelfShuffle{})
	r.Register(&WildSet{})
	r.Register(&Freeze{})
	r.Register(&Swap{})
}
