package types

// Chip is a single chip. Color is the chip's own color and Owner is the
// player whose stock it originated from.
type Chip struct {
	Color Color `json:"color"`
	Owner Color `json:"owner"`
}

// Player is one seat at the table, keyed by its color.
type Player struct {
	Color Color `json:"color"`
	// ModelType names the AI model playing this seat. Display only.
	ModelType string `json:"modelType"`
	// Chips is the player's personal stock.
	Chips    []Chip `json:"chips"`
	Defeated bool   `json:"defeated"`
}

// Equal returns true if the player is equal to the other player
func (p *Player) Equal(other *Player) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Color == other.Color &&
		p.ModelType == other.ModelType &&
		p.Defeated == other.Defeated &&
		chipsEqual(p.Chips, other.Chips)
}

// Copy returns a deep copy of the player
func (p *Player) Copy() *Player {
	return &Player{
		Color:     p.Color,
		ModelType: p.ModelType,
		Chips:     copyChips(p.Chips),
		Defeated:  p.Defeated,
	}
}

// Pile is a stack of chips on the shared table. The last chip is the top.
type Pile []Chip

// TopChip returns the chip on top of the pile.
func (p Pile) TopChip() (Chip, bool) {
	if len(p) == 0 {
		return Chip{}, false
	}
	return p[len(p)-1], true
}

func copyChips(chips []Chip) []Chip {
	if chips == nil {
		return nil
	}
	out := make([]Chip, len(chips))
	copy(out, chips)
	return out
}

func chipsEqual(a, b []Chip) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
