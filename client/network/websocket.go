package network

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/solongsucker/pkg/log"
	"nhooyr.io/websocket"
)

const (
	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	// DefaultReadLimit bounds a single snapshot message.
	DefaultReadLimit = 1 << 20
)

var logger = log.Named("network")

type channelState int

const (
	channelIdle channelState = iota
	channelOpening
	channelOpen
	channelClosed
)

// WSChannelOptions configures a WebSocket channel.
type WSChannelOptions struct {
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
}

func (o WSChannelOptions) withDefaults() WSChannelOptions {
	if o.URL == "" {
		o.URL = DefaultServerURL
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = DefaultReadLimit
	}
	return o
}

// WSChannel is a Channel over a single WebSocket connection.
// A WSChannel is used for one connection; build a new one to reconnect.
type WSChannel struct {
	opts     WSChannelOptions
	handlers Handlers

	lock   sync.Mutex
	state  channelState
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWSChannel creates a new WebSocket channel.
func NewWSChannel(opts WSChannelOptions, handlers Handlers) *WSChannel {
	return &WSChannel{
		opts:     opts.withDefaults(),
		handlers: handlers,
		done:     make(chan struct{}),
	}
}

// NewWSChannelFactory returns a factory building WebSocket channels to a fixed URL.
func NewWSChannelFactory(opts WSChannelOptions) ChannelFactory {
	return func(handlers Handlers) Channel {
		return NewWSChannel(opts, handlers)
	}
}

// Open starts connecting to the server.
func (c *WSChannel) Open(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.state != channelIdle {
		logger.Debug("Ignoring open on WebSocket channel to %s in state %d", c.opts.URL, c.state)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.state = channelOpening
	c.cancel = cancel
	go c.run(ctx)
}

func (c *WSChannel) run(ctx context.Context) {
	defer func() {
		c.lock.Lock()
		c.state = channelClosed
		c.conn = nil
		c.cancel()
		c.lock.Unlock()
		close(c.done)
		c.handlers.close()
	}()

	logger.Info("Connecting to WebSocket server at %s", c.opts.URL)
	dialCtx, dialCancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.opts.URL, nil)
	dialCancel()
	if err != nil {
		logger.Warn("Failed to connect to %s: %v", c.opts.URL, err)
		return
	}
	conn.SetReadLimit(c.opts.ReadLimit)

	c.lock.Lock()
	if c.state != channelOpening {
		c.lock.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	c.conn = conn
	c.state = channelOpen
	c.lock.Unlock()

	logger.Info("Connected to WebSocket server at %s", c.opts.URL)
	c.handlers.open()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			cause := closeCause(ctx, err)
			switch {
			case IsClosedByClient(cause):
				logger.Debug("WebSocket connection to %s %v", c.opts.URL, cause)
			case IsClosedByServer(cause):
				logger.Info("WebSocket connection to %s %v", c.opts.URL, cause)
			default:
				logger.Warn("WebSocket connection to %s: %v", c.opts.URL, cause)
			}
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		logger.Trace("Received %d bytes from %s", len(data), c.opts.URL)
		c.handlers.message(data)
	}
}

// Send writes a text message if the channel is open. It reports whether
// the message was written.
func (c *WSChannel) Send(data []byte) bool {
	c.lock.Lock()
	conn := c.conn
	open := c.state == channelOpen
	c.lock.Unlock()
	if !open || conn == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		logger.Warn("Failed to write message to WebSocket connection: %v", err)
		return false
	}
	return true
}

// Close closes the connection. The read loop reports OnClose once it exits.
func (c *WSChannel) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch c.state {
	case channelClosed:
		return
	case channelIdle:
		c.state = channelClosed
		close(c.done)
		return
	}
	c.state = channelClosed
	c.cancel()
}

// Done is closed once the channel has fully shut down.
func (c *WSChannel) Done() <-chan struct{} {
	return c.done
}
