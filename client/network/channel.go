package network

import "context"

const (
	DefaultServerURL = "ws://localhost:8000/ws"
)

// Channel is a single bidirectional message connection to the game server.
//
// Open starts connecting and returns immediately; calling it again while
// opening or open does nothing. Send transmits only while open and is a
// silent no-op otherwise. Close is idempotent.
//
// Handlers are invoked from one goroutine per channel, in order: at most
// one OnOpen, then any number of OnMessage, then exactly one OnClose for
// every Open, whatever ended the connection.
type Channel interface {
	Open(ctx context.Context)
	Send(data []byte) bool
	Close()
}

// Handlers receive channel notifications.
type Handlers struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnClose   func()
}

func (h Handlers) open() {
	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (h Handlers) message(data []byte) {
	if h.OnMessage != nil {
		h.OnMessage(data)
	}
}

func (h Handlers) close() {
	if h.OnClose != nil {
		h.OnClose()
	}
}

// ChannelFactory builds a fresh channel for one connection attempt.
type ChannelFactory func(handlers Handlers) Channel
