package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGameState() *GameState {
	return &GameState{
		Players: map[Color]*Player{
			ColorRed:    {Color: ColorRed, ModelType: "gpt-4", Chips: []Chip{{ColorRed, ColorRed}, {ColorBlue, ColorBlue}}},
			ColorBlue:   {Color: ColorBlue, ModelType: "claude-3.5-sonnet", Chips: []Chip{{ColorBlue, ColorBlue}}},
			ColorGreen:  {Color: ColorGreen, ModelType: "llama-3.2-3b-instruct", Chips: []Chip{}},
			ColorYellow: {Color: ColorYellow, ModelType: "qwen2-0.5b-instruct", Chips: []Chip{}, Defeated: true},
		},
		Piles: []Pile{
			{{ColorGreen, ColorGreen}, {ColorYellow, ColorYellow}},
		},
		CurrentTurn:     ColorBlue,
		DefeatedPlayers: []Color{ColorYellow},
	}
}

func TestColor_Valid(t *testing.T) {
	for _, c := range AllColors {
		assert.True(t, c.Valid(), c.String())
	}
	assert.False(t, Color("purple").Valid())
	assert.False(t, Color("").Valid())
	assert.False(t, Color("Red").Valid())
}

func TestGameState_CopyIsDeep(t *testing.T) {
	original := newTestGameState()
	copied := original.Copy()
	require.True(t, original.Equal(copied))

	copied.Players[ColorRed].Chips[0] = Chip{ColorGreen, ColorGreen}
	copied.Piles[0][1] = Chip{ColorRed, ColorRed}
	copied.DefeatedPlayers[0] = ColorRed
	copied.Players[ColorBlue].Defeated = true

	assert.Equal(t, Chip{ColorRed, ColorRed}, original.Players[ColorRed].Chips[0])
	assert.Equal(t, Chip{ColorYellow, ColorYellow}, original.Piles[0][1])
	assert.Equal(t, ColorYellow, original.DefeatedPlayers[0])
	assert.False(t, original.Players[ColorBlue].Defeated)
	assert.False(t, original.Equal(copied))
}

func TestGameState_CopyNil(t *testing.T) {
	var g *GameState
	assert.Nil(t, g.Copy())
	assert.True(t, g.Equal(nil))
	assert.False(t, g.Equal(newTestGameState()))
}

func TestGameState_Helpers(t *testing.T) {
	g := newTestGameState()

	assert.Equal(t, []Color{ColorRed, ColorBlue, ColorGreen}, g.ActivePlayers())

	inStock, onTable := g.ChipCount()
	assert.Equal(t, 3, inStock)
	assert.Equal(t, 2, onTable)

	top, ok := g.Piles[0].TopChip()
	require.True(t, ok)
	assert.Equal(t, ColorYellow, top.Color)

	_, ok = Pile{}.TopChip()
	assert.False(t, ok)

	_, ok = g.Player(Color("purple"))
	assert.False(t, ok)
}
