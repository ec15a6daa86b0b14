package state

import (
	"testing"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStateManager_StartsAbsent(t *testing.T) {
	m := NewInMemoryStateManager()
	got, ok := m.Get()
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, m.Has())
}

func TestInMemoryStateManager_SetAndGetCopies(t *testing.T) {
	m := NewInMemoryStateManager()
	gs := &gametypes.GameState{
		Players: map[gametypes.Color]*gametypes.Player{
			gametypes.ColorRed: {Color: gametypes.ColorRed, Chips: []gametypes.Chip{{Color: gametypes.ColorRed, Owner: gametypes.ColorRed}}},
		},
		Piles:           []gametypes.Pile{},
		CurrentTurn:     gametypes.ColorRed,
		DefeatedPlayers: []gametypes.Color{},
	}
	require.NoError(t, m.Set(gs))

	// mutating the caller's value must not leak into the held snapshot
	gs.CurrentTurn = gametypes.ColorBlue

	got, ok := m.Get()
	require.True(t, ok)
	assert.Equal(t, gametypes.ColorRed, got.CurrentTurn)

	got.Players[gametypes.ColorRed].Chips = nil
	again, _ := m.Get()
	assert.Len(t, again.Players[gametypes.ColorRed].Chips, 1)
}

func TestInMemoryStateManager_SetNil(t *testing.T) {
	m := NewInMemoryStateManager()
	require.NoError(t, m.Set(&gametypes.GameState{CurrentTurn: gametypes.ColorGreen}))

	assert.ErrorIs(t, m.Set(nil), ErrNilState)

	got, ok := m.Get()
	require.True(t, ok)
	assert.Equal(t, gametypes.ColorGreen, got.CurrentTurn)
}
