package state

import (
	"errors"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
)

// ErrNilState is returned when a nil snapshot is set.
var ErrNilState = errors.New("game state is nil")

// StateManager holds the latest snapshot.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current game state and whether one is held.
	Get() (*gametypes.GameState, bool)
	// Set replaces the current game state.
	Set(gameState *gametypes.GameState) error
	// Has reports whether a game state is held.
	Has() bool
}
