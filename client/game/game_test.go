package game

import (
	"bytes"
	"sync"
	"testing"

	"github.com/cbodonnell/solongsucker/client/gamesync"
	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncClient invokes observers synchronously when the test pushes
// phases or states.
type fakeSyncClient struct {
	lock        sync.Mutex
	state       *gametypes.GameState
	stateObs    map[int]func(*gametypes.GameState)
	phaseObs    map[int]func(gamesync.Phase)
	nextID      int
	connects    int
	disconnects int
	starts      int
	// afterStateRead runs once State has read the held snapshot
	afterStateRead func()
}

func newFakeSyncClient() *fakeSyncClient {
	return &fakeSyncClient{
		stateObs: map[int]func(*gametypes.GameState){},
		phaseObs: map[int]func(gamesync.Phase){},
	}
}

func (c *fakeSyncClient) Connect()    { c.lock.Lock(); c.connects++; c.lock.Unlock() }
func (c *fakeSyncClient) Disconnect() { c.lock.Lock(); c.disconnects++; c.lock.Unlock() }
func (c *fakeSyncClient) StartGame()  { c.lock.Lock(); c.starts++; c.lock.Unlock() }

func (c *fakeSyncClient) State() (*gametypes.GameState, bool) {
	c.lock.Lock()
	gs := c.state
	hook := c.afterStateRead
	c.lock.Unlock()
	if hook != nil {
		hook()
	}
	return gs, gs != nil
}

func (c *fakeSyncClient) Subscribe(fn func(*gametypes.GameState)) func() {
	c.lock.Lock()
	defer c.lock.Unlock()
	id := c.nextID
	c.nextID++
	c.stateObs[id] = fn
	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.stateObs, id)
	}
}

func (c *fakeSyncClient) SubscribePhase(fn func(gamesync.Phase)) func() {
	c.lock.Lock()
	defer c.lock.Unlock()
	id := c.nextID
	c.nextID++
	c.phaseObs[id] = fn
	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.phaseObs, id)
	}
}

func (c *fakeSyncClient) pushPhase(p gamesync.Phase) {
	c.lock.Lock()
	var fns []func(gamesync.Phase)
	for _, fn := range c.phaseObs {
		fns = append(fns, fn)
	}
	c.lock.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

func (c *fakeSyncClient) pushState(gs *gametypes.GameState) {
	c.lock.Lock()
	c.state = gs
	var fns []func(*gametypes.GameState)
	for _, fn := range c.stateObs {
		fns = append(fns, fn)
	}
	c.lock.Unlock()
	for _, fn := range fns {
		fn(gs)
	}
}

func (c *fakeSyncClient) observers() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.stateObs) + len(c.phaseObs)
}

func boardState() *gametypes.GameState {
	return &gametypes.GameState{
		Players: map[gametypes.Color]*gametypes.Player{
			gametypes.ColorRed:    {Color: gametypes.ColorRed, ModelType: "gpt-4", Chips: []gametypes.Chip{{Color: gametypes.ColorRed, Owner: gametypes.ColorRed}, {Color: gametypes.ColorBlue, Owner: gametypes.ColorRed}}},
			gametypes.ColorBlue:   {Color: gametypes.ColorBlue, ModelType: "claude-3.5-sonnet", Chips: []gametypes.Chip{}},
			gametypes.ColorYellow: {Color: gametypes.ColorYellow, ModelType: "mcts", Chips: []gametypes.Chip{}, Defeated: true},
		},
		Piles: []gametypes.Pile{
			{{Color: gametypes.ColorGreen, Owner: gametypes.ColorGreen}, {Color: gametypes.ColorRed, Owner: gametypes.ColorRed}},
		},
		CurrentTurn:     gametypes.ColorBlue,
		DefeatedPlayers: []gametypes.Color{gametypes.ColorYellow},
	}
}

func TestRender(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Render(buf, boardState()))

	want := "  red    [gpt-4] RB\n" +
		"> blue   [claude-3.5-sonnet] -\n" +
		"  yellow [mcts] (Defeated) -\n" +
		"  pile 1: GR\n" +
		"Current Turn: blue\n" +
		"Defeated: yellow\n"
	assert.Equal(t, want, buf.String())
}

func TestRender_EmptyTable(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Render(buf, &gametypes.GameState{CurrentTurn: gametypes.ColorRed}))
	assert.Equal(t, "  piles: none\nCurrent Turn: red\n", buf.String())

	assert.Error(t, Render(buf, nil))
}

func TestGame_Modes(t *testing.T) {
	client := newFakeSyncClient()
	buf := &bytes.Buffer{}
	g := NewGame(NewGameOptions{Client: client, Out: buf})

	g.Start()
	assert.Equal(t, 1, client.connects)
	assert.Equal(t, GameModeConnecting, g.Mode())
	assert.Error(t, g.StartGame(), "no start affordance before connecting")

	client.pushPhase(gamesync.PhaseConnected)
	assert.Equal(t, GameModeMenu, g.Mode())
	require.NoError(t, g.StartGame())
	assert.Equal(t, 1, client.starts)

	client.pushState(boardState())
	assert.Equal(t, GameModePlay, g.Mode())
	assert.Contains(t, buf.String(), "Current Turn: blue")
	assert.Error(t, g.StartGame())

	// the board stays while reconnecting
	client.pushPhase(gamesync.PhaseDisconnected)
	assert.Equal(t, GameModePlay, g.Mode())

	g.Stop()
	assert.Equal(t, 1, client.disconnects)
	assert.Zero(t, client.observers())
}

func TestGame_AutoStart(t *testing.T) {
	client := newFakeSyncClient()
	g := NewGame(NewGameOptions{Client: client, AutoStart: true})
	g.Start()

	client.pushPhase(gamesync.PhaseConnecting)
	assert.Zero(t, client.starts)

	client.pushPhase(gamesync.PhaseConnected)
	assert.Equal(t, 1, client.starts)

	// only once per view, even across reconnects
	client.pushPhase(gamesync.PhaseDisconnected)
	client.pushPhase(gamesync.PhaseConnected)
	assert.Equal(t, 1, client.starts)
}

func TestGame_AutoStartSkippedWithState(t *testing.T) {
	client := newFakeSyncClient()
	client.state = boardState()
	g := NewGame(NewGameOptions{Client: client, AutoStart: true})
	g.Start()
	assert.Equal(t, GameModePlay, g.Mode())

	client.pushPhase(gamesync.PhaseConnected)
	assert.Zero(t, client.starts)
}

func TestGame_SnapshotDuringStartIsShown(t *testing.T) {
	client := newFakeSyncClient()
	client.afterStateRead = func() { client.pushState(boardState()) }
	buf := &bytes.Buffer{}
	g := NewGame(NewGameOptions{Client: client, Out: buf})

	g.Start()
	assert.Equal(t, GameModePlay, g.Mode())
	assert.Contains(t, buf.String(), "Current Turn: blue")
}

func TestGameMode_String(t *testing.T) {
	assert.Equal(t, "Connecting", GameModeConnecting.String())
	assert.Equal(t, "Menu", GameModeMenu.String())
	assert.Equal(t, "Play", GameModePlay.String())
	assert.Equal(t, "Unknown", GameMode(9).String())
}
