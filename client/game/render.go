package game

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
)

// Render writes a text view of the board: one line per player in color
// order, then the piles and the turn.
func Render(w io.Writer, gameState *gametypes.GameState) error {
	if gameState == nil {
		return fmt.Errorf("game state is nil")
	}
	bw := bufio.NewWriter(w)

	for _, color := range gametypes.AllColors {
		player, ok := gameState.Player(color)
		if !ok {
			continue
		}
		marker := " "
		if gameState.CurrentTurn == color {
			marker = ">"
		}
		status := ""
		if player.Defeated {
			status = " (Defeated)"
		}
		fmt.Fprintf(bw, "%s %-6s [%s]%s %s\n", marker, color, player.ModelType, status, chipString(player.Chips))
	}

	if len(gameState.Piles) == 0 {
		fmt.Fprintln(bw, "  piles: none")
	}
	for i, pile := range gameState.Piles {
		fmt.Fprintf(bw, "  pile %d: %s\n", i+1, chipString(pile))
	}

	fmt.Fprintf(bw, "Current Turn: %s\n", gameState.CurrentTurn)
	if len(gameState.DefeatedPlayers) > 0 {
		defeated := make([]string, len(gameState.DefeatedPlayers))
		for i, color := range gameState.DefeatedPlayers {
			defeated[i] = color.String()
		}
		fmt.Fprintf(bw, "Defeated: %s\n", strings.Join(defeated, ", "))
	}

	return bw.Flush()
}

// chipString abbreviates chips to their color initials, bottom first.
func chipString(chips []gametypes.Chip) string {
	if len(chips) == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, chip := range chips {
		if chip.Color == "" {
			sb.WriteByte('?')
			continue
		}
		sb.WriteString(strings.ToUpper(string(chip.Color)[:1]))
	}
	return sb.String()
}
