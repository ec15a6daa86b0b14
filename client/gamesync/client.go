package gamesync

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/solongsucker/client/network"
	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/messages"
	"github.com/cbodonnell/solongsucker/pkg/queue"
	"github.com/cbodonnell/solongsucker/pkg/state"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
)

const (
	DefaultReconnectDelay = 5 * time.Second
)

var logger = log.Named("gamesync")

// Phase is the connection phase of a Client.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "DISCONNECTED"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Stats counts client activity since construction.
type Stats struct {
	ConnectionAttempts uint64 `json:"connectionAttempts"`
	SnapshotsApplied   uint64 `json:"snapshotsApplied"`
	SnapshotsRejected  uint64 `json:"snapshotsRejected"`
	CommandsSent       uint64 `json:"commandsSent"`
}

type eventType int

const (
	eventConnect eventType = iota
	eventDisconnect
	eventOpened
	eventMessage
	eventClosed
	eventReconnect
)

type event struct {
	kind eventType
	gen  uint64
	data []byte
}

// Options configures a Client.
type Options struct {
	// ChannelFactory builds the transport for each connection attempt.
	ChannelFactory network.ChannelFactory
	// ReconnectDelay is the fixed wait between a closed connection and the
	// next attempt.
	ReconnectDelay time.Duration
	// StateManager holds the latest snapshot. Defaults to an in-memory store.
	StateManager state.StateManager
}

// Client keeps a local copy of the server's game state in sync and fans
// every accepted snapshot out to subscribers.
//
// All transitions, state replacement and notifications happen on the
// goroutine running Run. Transport callbacks, timers and the Connect and
// Disconnect methods only enqueue events for it.
type Client struct {
	newChannel   network.ChannelFactory
	stateManager state.StateManager
	events       *queue.InMemoryQueue[event]

	// owned by the Run goroutine
	backoff        *backoff.Backoff
	reconnectTimer *time.Timer
	stopped        bool

	lock         sync.Mutex
	phase        Phase
	channel      network.Channel
	connectionID uuid.UUID
	generation   uint64
	stats        Stats

	stateObservers *registry[*gametypes.GameState]
	phaseObservers *registry[Phase]
	errorObservers *registry[error]
}

// NewClient creates a new disconnected client with no state.
func NewClient(opts Options) *Client {
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	stateManager := opts.StateManager
	if stateManager == nil {
		stateManager = state.NewInMemoryStateManager()
	}
	channelFactory := opts.ChannelFactory
	if channelFactory == nil {
		channelFactory = network.NewWSChannelFactory(network.WSChannelOptions{})
	}

	return &Client{
		newChannel:   channelFactory,
		stateManager: stateManager,
		events:       queue.NewInMemoryQueue[event](),
		// constant delay: no growth and no jitter
		backoff: &backoff.Backoff{
			Min:    delay,
			Max:    delay,
			Factor: 1,
			Jitter: false,
		},
		phase:          PhaseDisconnected,
		stateObservers: &registry[*gametypes.GameState]{},
		phaseObservers: &registry[Phase]{},
		errorObservers: &registry[error]{},
	}
}

// Connect opens a connection unless one is already opening or open. It
// also re-enables automatic reconnection after Disconnect.
func (c *Client) Connect() {
	c.events.Enqueue(event{kind: eventConnect})
}

// Disconnect closes the connection and cancels any pending reconnect.
// The held state is kept.
func (c *Client) Disconnect() {
	c.events.Enqueue(event{kind: eventDisconnect})
}

// StartGame asks the server to start a game. It is a no-op unless connected.
func (c *Client) StartGame() {
	c.sendCommand(messages.CommandTypeStartGame)
}

// RequestState asks the server for a fresh snapshot. It is a no-op unless
// connected.
func (c *Client) RequestState() {
	c.sendCommand(messages.CommandTypeGetState)
}

// Subscribe registers fn to receive every accepted snapshot, in
// subscription order. The returned function removes it and is safe to
// call more than once.
func (c *Client) Subscribe(fn func(*gametypes.GameState)) (unsubscribe func()) {
	return c.stateObservers.add(fn)
}

// SubscribePhase registers fn to receive every phase transition.
func (c *Client) SubscribePhase(fn func(Phase)) (unsubscribe func()) {
	return c.phaseObservers.add(fn)
}

// SubscribeErrors registers fn to receive connection and payload errors.
func (c *Client) SubscribeErrors(fn func(error)) (unsubscribe func()) {
	return c.errorObservers.add(fn)
}

// State returns a copy of the held snapshot and whether one is held.
func (c *Client) State() (*gametypes.GameState, bool) {
	return c.stateManager.Get()
}

// HasState reports whether a snapshot has been received.
func (c *Client) HasState() bool {
	return c.stateManager.Has()
}

func (c *Client) Phase() Phase {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.phase
}

func (c *Client) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// Run processes events until ctx is cancelled, then disconnects.
func (c *Client) Run(ctx context.Context) {
	logger.Debug("Sync client loop started")
	for {
		select {
		case <-ctx.Done():
			c.handleDisconnect()
			logger.Debug("Sync client loop stopped")
			return
		case <-c.events.Signal():
			for _, e := range c.events.ReadAllMessages() {
				if ctx.Err() != nil {
					break
				}
				c.handle(ctx, e)
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, e event) {
	switch e.kind {
	case eventConnect:
		c.handleConnect(ctx)
	case eventDisconnect:
		c.handleDisconnect()
	case eventOpened:
		c.handleOpened(e.gen)
	case eventMessage:
		c.handleMessage(e.gen, e.data)
	case eventClosed:
		c.handleClosed(e.gen)
	case eventReconnect:
		c.handleReconnect(ctx, e.gen)
	default:
		logger.Error("Unknown sync client event: %v", e.kind)
	}
}

func (c *Client) handleConnect(ctx context.Context) {
	c.stopped = false
	c.stopReconnectTimer()
	if phase := c.Phase(); phase != PhaseDisconnected {
		logger.Debug("Ignoring connect while %s", phase)
		return
	}
	c.open(ctx)
}

func (c *Client) handleDisconnect() {
	c.stopped = true
	c.stopReconnectTimer()

	c.lock.Lock()
	ch := c.channel
	c.channel = nil
	// any events still in flight from the closed channel are stale
	c.generation++
	c.lock.Unlock()

	if ch != nil {
		logger.Info("Disconnecting from game server")
		ch.Close()
	}
	c.setPhase(PhaseDisconnected)
}

func (c *Client) handleOpened(gen uint64) {
	if !c.current(gen) {
		return
	}
	c.backoff.Reset()
	logger.Info("Connected to game server (connection %s)", c.connectionIDString())
	c.setPhase(PhaseConnected)
}

func (c *Client) handleMessage(gen uint64, data []byte) {
	if !c.current(gen) {
		logger.Debug("Dropping message from a superseded connection")
		return
	}

	gameState, err := messages.DecodeGameState(data)
	if err != nil {
		c.lock.Lock()
		c.stats.SnapshotsRejected++
		c.lock.Unlock()
		logger.Warn("Discarding game state update: %v", err)
		c.errorObservers.notify(err)
		return
	}
	if err := c.stateManager.Set(gameState); err != nil {
		logger.Error("Failed to store game state: %v", err)
		c.errorObservers.notify(err)
		return
	}

	c.lock.Lock()
	c.stats.SnapshotsApplied++
	c.lock.Unlock()
	logger.Trace("Applied game state update, current turn %s", gameState.CurrentTurn)

	snapshot, ok := c.stateManager.Get()
	if !ok {
		return
	}
	c.stateObservers.notify(snapshot)
}

func (c *Client) handleClosed(gen uint64) {
	if !c.current(gen) {
		return
	}

	c.lock.Lock()
	c.channel = nil
	c.lock.Unlock()

	c.setPhase(PhaseDisconnected)
	c.errorObservers.notify(ErrConnectionClosed)
	if c.stopped {
		return
	}
	c.scheduleReconnect(gen)
}

func (c *Client) handleReconnect(ctx context.Context, gen uint64) {
	c.reconnectTimer = nil
	if c.stopped || !c.current(gen) || c.Phase() != PhaseDisconnected {
		return
	}
	c.open(ctx)
}

// open starts a new connection attempt on a fresh channel.
func (c *Client) open(ctx context.Context) {
	c.lock.Lock()
	c.generation++
	gen := c.generation
	c.connectionID = uuid.New()
	c.stats.ConnectionAttempts++
	ch := c.newChannel(network.Handlers{
		OnOpen: func() {
			c.events.Enqueue(event{kind: eventOpened, gen: gen})
		},
		OnMessage: func(data []byte) {
			c.events.Enqueue(event{kind: eventMessage, gen: gen, data: data})
		},
		OnClose: func() {
			c.events.Enqueue(event{kind: eventClosed, gen: gen})
		},
	})
	c.channel = ch
	connectionID := c.connectionID
	c.lock.Unlock()

	logger.Info("Connecting to game server (connection %s)", connectionID)
	c.setPhase(PhaseConnecting)
	ch.Open(ctx)
}

func (c *Client) scheduleReconnect(gen uint64) {
	c.stopReconnectTimer()
	// Min == Max keeps the delay constant; growth is a change to NewClient only
	delay := c.backoff.Duration()
	logger.Info("Connection to game server closed, reconnecting in %s", delay)
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.events.Enqueue(event{kind: eventReconnect, gen: gen})
	})
}

func (c *Client) stopReconnectTimer() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) sendCommand(commandType messages.CommandType) {
	c.lock.Lock()
	ch := c.channel
	connected := c.phase == PhaseConnected
	c.lock.Unlock()
	if !connected || ch == nil {
		logger.Debug("Ignoring %s command while not connected", commandType)
		return
	}

	data, err := messages.EncodeCommand(commandType)
	if err != nil {
		logger.Error("Failed to encode %s command: %v", commandType, err)
		return
	}
	if !ch.Send(data) {
		logger.Warn("Failed to send %s command", commandType)
		return
	}

	c.lock.Lock()
	c.stats.CommandsSent++
	c.lock.Unlock()
	logger.Debug("Sent %s command", commandType)
}

func (c *Client) setPhase(phase Phase) {
	c.lock.Lock()
	if c.phase == phase {
		c.lock.Unlock()
		return
	}
	previous := c.phase
	c.phase = phase
	c.lock.Unlock()

	logger.Debug("Sync client phase %s -> %s", previous, phase)
	c.phaseObservers.notify(phase)
}

func (c *Client) current(gen uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return gen == c.generation
}

func (c *Client) connectionIDString() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connectionID.String()
}
