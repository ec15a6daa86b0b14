package models

import gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"

// Snapshot is an archived game state.
type Snapshot struct {
	ID          int64                `json:"id"`
	Session     string               `json:"session"`
	ReceivedAt  int64                `json:"received_at"`
	CurrentTurn string               `json:"current_turn"`
	State       *gametypes.GameState `json:"state"`
}
