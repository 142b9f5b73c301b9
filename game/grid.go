package game

// Grid geometry: 3 rows x 4 columns stored row-major.
const (
	GridRows = 3
	GridCols = 4
	GridSize = GridRows * GridCols
)

// NoSlot is passed where a slot argument is optional.
const NoSlot = -1

// Grid is one player's card layout.
type Grid [GridSize]Card

// Revealed is the per-slot "shown to everyone" mask, parallel to Grid.
type Revealed [GridSize]bool

// ValidSlot reports whether i addresses a grid slot.
func ValidSlot(i int) bool {
	return i >= 0 && i < GridSize
}

// ColumnSlots returns the three slot indices sharing index's column, top to bottom.
func ColumnSlots(index int) [GridRows]int {
	col := index % GridCols
	return [GridRows]int{col, col + GridCols, col + 2*GridCols}
}

// ClearColumnIfMatched empties the column containing changedIndex when all of its
// slots are non-empty, revealed and equal. It returns the removed cards, or nil.
func ClearColumnIfMatched(grid *Grid, revealed *Revealed, changedIndex int) []Card {
	if !ValidSlot(changedIndex) {
		return nil
	}
	slots := ColumnSlots(changedIndex)
	first := grid[slots[0]]
	for _, i := range slots {
		c := grid[i]
		if c.IsEmpty() || !revealed[i] {
			return nil
		}
		if c.Kind() != first.Kind() || c.Value() != first.Value() || c.Item() != first.Item() {
			return nil
		}
	}
	removed := make([]Card, 0, GridRows)
	for _, i := range slots {
		removed = append(removed, grid[i])
		grid[i] = EmptyCard
		revealed[i] = true
	}
	return removed
}

// ClearAllMatchedColumns runs ClearColumnIfMatched on every column.
func ClearAllMatchedColumns(grid *Grid, revealed *Revealed) []Card {
	var removed []Card
	for col := 0; col < GridCols; col++ {
		removed = append(removed, ClearColumnIfMatched(grid, revealed, col)...)
	}
	return removed
}

// IsFullyRevealed reports whether every slot is revealed.
func IsFullyRevealed(revealed Revealed) bool {
	for _, r := range revealed {
		if !r {
			return false
		}
	}
	return true
}

// Score sums numeric slot values; empties and items count 0.
func Score(grid Grid) int {
	total := 0
	for _, c := range grid {
		total += c.Value()
	}
	return total
}

// RevealAll marks every slot revealed.
func RevealAll(revealed *Revealed) {
	for i := range revealed {
		revealed[i] = true
	}
}

// SwapSlots exchanges (card, revealed) between two coordinates, which may be on the same player.
func SwapSlots(a *PlayerState, ai int, b *PlayerState, bi int) {
	a.Grid[ai], b.Grid[bi] = b.Grid[bi], a.Grid[ai]
	a.Revealed[ai], b.Revealed[bi] = b.Revealed[bi], a.Revealed[ai]
}

// ShuffleGrid permutes p's (card, revealed) pairs jointly.
func ShuffleGrid(p *PlayerState, rng Rand) {
	for i := GridSize - 1; i > 0; i-- {
		j := intn(rng, i+1)
		p.Grid[i], p.Grid[j] = p.Grid[j], p.Grid[i]
		p.Revealed[i], p.Revealed[j] = p.Revealed[j], p.Revealed[i]
	}
}
