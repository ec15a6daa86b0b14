package types

// GameState is a complete snapshot of the table as sent by the server.
// Each snapshot replaces the previous one; there are no partial updates.
type GameState struct {
	// Players maps each color to its seat
	Players map[Color]*Player `json:"players"`
	// Piles is the shared table in stacking order
	Piles []Pile `json:"piles"`
	// CurrentTurn names whose turn it is
	CurrentTurn Color `json:"currentTurn"`
	// DefeatedPlayers lists colors in elimination order
	DefeatedPlayers []Color `json:"defeatedPlayers"`
}

// Copy returns a deep copy of the game state.
func (g *GameState) Copy() *GameState {
	if g == nil {
		return nil
	}
	newGameState := &GameState{
		CurrentTurn: g.CurrentTurn,
	}
	if g.Players != nil {
		newGameState.Players = make(map[Color]*Player, len(g.Players))
		for color, player := range g.Players {
			if player == nil {
				newGameState.Players[color] = nil
				continue
			}
			newGameState.Players[color] = player.Copy()
		}
	}
	if g.Piles != nil {
		newGameState.Piles = make([]Pile, len(g.Piles))
		for i, pile := range g.Piles {
			newGameState.Piles[i] = Pile(copyChips(pile))
		}
	}
	if g.DefeatedPlayers != nil {
		newGameState.DefeatedPlayers = make([]Color, len(g.DefeatedPlayers))
		copy(newGameState.DefeatedPlayers, g.DefeatedPlayers)
	}
	return newGameState
}

// Equal reports whether two snapshots hold the same table.
func (g *GameState) Equal(other *GameState) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.CurrentTurn != other.CurrentTurn ||
		len(g.Players) != len(other.Players) ||
		len(g.Piles) != len(other.Piles) ||
		len(g.DefeatedPlayers) != len(other.DefeatedPlayers) {
		return false
	}
	for color, player := range g.Players {
		otherPlayer, ok := other.Players[color]
		if !ok || !player.Equal(otherPlayer) {
			return false
		}
	}
	for i := range g.Piles {
		if !chipsEqual(g.Piles[i], other.Piles[i]) {
			return false
		}
	}
	for i := range g.DefeatedPlayers {
		if g.DefeatedPlayers[i] != other.DefeatedPlayers[i] {
			return false
		}
	}
	return true
}

// Player returns the seat for color.
func (g *GameState) Player(color Color) (*Player, bool) {
	player, ok := g.Players[color]
	return player, ok && player != nil
}

// ActivePlayers returns the colors that have not been defeated, in seating order.
func (g *GameState) ActivePlayers() []Color {
	active := make([]Color, 0, len(AllColors))
	for _, color := range AllColors {
		player, ok := g.Player(color)
		if ok && !player.Defeated {
			active = append(active, color)
		}
	}
	return active
}

// ChipCount returns the number of chips in player stocks and on the table.
func (g *GameState) ChipCount() (inStock int, onTable int) {
	for _, player := range g.Players {
		if player != nil {
			inStock += len(player.Chips)
		}
	}
	for _, pile := range g.Piles {
		onTable += len(pile)
	}
	return inStock, onTable
}
