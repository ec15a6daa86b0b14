package messages

import (
	"encoding/json"
	"fmt"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
)

// EncodeCommand serializes a command for the wire.
func EncodeCommand(t CommandType) ([]byte, error) {
	switch t {
	case CommandTypeStartGame, CommandTypeGetState:
	default:
		return nil, fmt.Errorf("unknown command type: %q", t)
	}
	b, err := json.Marshal(&Command{Type: t})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %v", err)
	}
	return b, nil
}

// EncodeGameState serializes a snapshot in the server's wire format.
func EncodeGameState(state *gametypes.GameState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("game state is nil")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %v", err)
	}
	return b, nil
}

// wireGameState mirrors GameState with pointer fields so that missing
// keys can be told apart from empty values.
type wireGameState struct {
	Players         *map[string]*wirePlayer `json:"players"`
	Piles           *[]*[]gametypes.Chip    `json:"piles"`
	CurrentTurn     *gametypes.Color        `json:"currentTurn"`
	DefeatedPlayers *[]gametypes.Color      `json:"defeatedPlayers"`
}

type wirePlayer struct {
	Color     *gametypes.Color  `json:"color"`
	ModelType string            `json:"modelType"`
	Chips     *[]gametypes.Chip `json:"chips"`
	Defeated  bool              `json:"defeated"`
}

// DecodeGameState parses and shape-checks a snapshot. It does not check
// game legality. Every error wraps ErrMalformedSnapshot.
func DecodeGameState(data []byte) (*gametypes.GameState, error) {
	wire := &wireGameState{}
	if err := json.Unmarshal(data, wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch {
	case wire.Players == nil:
		return nil, missingKey("players")
	case wire.Piles == nil:
		return nil, missingKey("piles")
	case wire.CurrentTurn == nil:
		return nil, missingKey("currentTurn")
	case wire.DefeatedPlayers == nil:
		return nil, missingKey("defeatedPlayers")
	}

	if !wire.CurrentTurn.Valid() {
		return nil, fmt.Errorf("%w: invalid currentTurn %q", ErrMalformedSnapshot, *wire.CurrentTurn)
	}

	state := &gametypes.GameState{
		Players:         make(map[gametypes.Color]*gametypes.Player, len(*wire.Players)),
		Piles:           make([]gametypes.Pile, 0, len(*wire.Piles)),
		CurrentTurn:     *wire.CurrentTurn,
		DefeatedPlayers: make([]gametypes.Color, 0, len(*wire.DefeatedPlayers)),
	}

	if len(*wire.Players) != len(gametypes.AllColors) {
		return nil, fmt.Errorf("%w: want %d players, got %d", ErrMalformedSnapshot, len(gametypes.AllColors), len(*wire.Players))
	}
	for key, wp := range *wire.Players {
		player, err := decodePlayer(key, wp)
		if err != nil {
			return nil, err
		}
		state.Players[player.Color] = player
	}

	for i, pile := range *wire.Piles {
		if pile == nil {
			return nil, fmt.Errorf("%w: pile %d is null", ErrMalformedSnapshot, i)
		}
		if err := validateChips(*pile); err != nil {
			return nil, fmt.Errorf("%w: pile %d: %v", ErrMalformedSnapshot, i, err)
		}
		state.Piles = append(state.Piles, gametypes.Pile(*pile))
	}

	for _, color := range *wire.DefeatedPlayers {
		if !color.Valid() {
			return nil, fmt.Errorf("%w: invalid defeated player %q", ErrMalformedSnapshot, color)
		}
		state.DefeatedPlayers = append(state.DefeatedPlayers, color)
	}

	return state, nil
}

func decodePlayer(key string, wp *wirePlayer) (*gametypes.Player, error) {
	color := gametypes.Color(key)
	if !color.Valid() {
		return nil, fmt.Errorf("%w: invalid player key %q", ErrMalformedSnapshot, key)
	}
	if wp == nil {
		return nil, fmt.Errorf("%w: player %s is null", ErrMalformedSnapshot, key)
	}
	if wp.Color == nil {
		return nil, fmt.Errorf("%w: player %s: missing required key %q", ErrMalformedSnapshot, key, "color")
	}
	if *wp.Color != color {
		return nil, fmt.Errorf("%w: player %s has color %q", ErrMalformedSnapshot, key, *wp.Color)
	}
	if wp.Chips == nil {
		return nil, fmt.Errorf("%w: player %s: missing required key %q", ErrMalformedSnapshot, key, "chips")
	}
	if err := validateChips(*wp.Chips); err != nil {
		return nil, fmt.Errorf("%w: player %s: %v", ErrMalformedSnapshot, key, err)
	}
	return &gametypes.Player{
		Color:     color,
		ModelType: wp.ModelType,
		Chips:     *wp.Chips,
		Defeated:  wp.Defeated,
	}, nil
}

func validateChips(chips []gametypes.Chip) error {
	for i, chip := range chips {
		if !chip.Color.Valid() {
			return fmt.Errorf("chip %d has invalid color %q", i, chip.Color)
		}
		if !chip.Owner.Valid() {
			return fmt.Errorf("chip %d has invalid owner %q", i, chip.Owner)
		}
	}
	return nil
}

func missingKey(key string) error {
	return fmt.Errorf("%w: missing required key %q", ErrMalformedSnapshot, key)
}
