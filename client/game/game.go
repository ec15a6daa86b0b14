package game

import (
	"fmt"
	"io"
	"sync"

	"github.com/cbodonnell/solongsucker/client/gamesync"
	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
)

// SyncClient is the part of the sync client a view needs.
type SyncClient interface {
	Connect()
	Disconnect()
	StartGame()
	State() (*gametypes.GameState, bool)
	Subscribe(fn func(*gametypes.GameState)) func()
	SubscribePhase(fn func(gamesync.Phase)) func()
}

type GameMode int

const (
	// GameModeConnecting is shown while there is neither a connection nor a game.
	GameModeConnecting GameMode = iota
	// GameModeMenu is shown while connected with no game state yet.
	GameModeMenu
	// GameModePlay is shown once a snapshot has been received.
	GameModePlay
)

func (m GameMode) String() string {
	switch m {
	case GameModeConnecting:
		return "Connecting"
	case GameModeMenu:
		return "Menu"
	case GameModePlay:
		return "Play"
	}
	return "Unknown"
}

// Game is a headless spectator view. It owns the lifecycle of its sync
// client connection: Start connects and Stop disconnects.
type Game struct {
	client    SyncClient
	out       io.Writer
	autoStart bool

	lock        sync.Mutex
	mode        GameMode
	phase       gamesync.Phase
	hasState    bool
	startSent   bool
	unsubscribe []func()
}

type NewGameOptions struct {
	Client SyncClient
	// Out receives the rendered board on every snapshot.
	Out io.Writer
	// AutoStart sends start_game the first time the client connects
	// without a game in progress.
	AutoStart bool
}

func NewGame(opts NewGameOptions) *Game {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Game{
		client:    opts.Client,
		out:       out,
		autoStart: opts.AutoStart,
		mode:      GameModeConnecting,
	}
}

// Start subscribes to the client and connects.
func (g *Game) Start() {
	unsubscribe := []func(){
		g.client.SubscribePhase(g.onPhase),
		g.client.Subscribe(g.onState),
	}
	// read after subscribing so a snapshot in between is not missed
	_, hasState := g.client.State()

	g.lock.Lock()
	g.hasState = g.hasState || hasState
	g.updateMode()
	g.unsubscribe = append(g.unsubscribe, unsubscribe...)
	g.lock.Unlock()

	g.client.Connect()
}

// Stop unsubscribes and disconnects.
func (g *Game) Stop() {
	g.lock.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.lock.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	g.client.Disconnect()
}

// StartGame is the start game affordance shown in menu mode.
func (g *Game) StartGame() error {
	if mode := g.Mode(); mode != GameModeMenu {
		return fmt.Errorf("cannot start a game in %s mode", mode)
	}
	g.client.StartGame()
	return nil
}

func (g *Game) Mode() GameMode {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.mode
}

func (g *Game) onPhase(phase gamesync.Phase) {
	g.lock.Lock()
	g.phase = phase
	g.updateMode()
	sendStart := g.autoStart && !g.startSent && !g.hasState && phase == gamesync.PhaseConnected
	if sendStart {
		g.startSent = true
	}
	mode := g.mode
	g.lock.Unlock()

	log.Info("Connection %s, showing %s", phase, mode)
	if sendStart {
		log.Info("Starting a new game")
		g.client.StartGame()
	}
}

func (g *Game) onState(gameState *gametypes.GameState) {
	g.lock.Lock()
	g.hasState = true
	g.updateMode()
	g.lock.Unlock()

	if err := Render(g.out, gameState); err != nil {
		log.Error("Failed to render game state: %v", err)
	}
}

// updateMode must be called with the lock held.
func (g *Game) updateMode() {
	// the last snapshot stays on screen while reconnecting
	switch {
	case g.hasState:
		g.mode = GameModePlay
	case g.phase == gamesync.PhaseConnected:
		g.mode = GameModeMenu
	default:
		g.mode = GameModeConnecting
	}
}
