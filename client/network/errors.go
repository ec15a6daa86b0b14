package network

import (
	"context"
	"errors"
	"fmt"

	"nhooyr.io/websocket"
)

// ErrConnectionClosedByServer is returned when the server ends the connection
type ErrConnectionClosedByServer struct {
	Status websocket.StatusCode
	Reason string
}

func (e *ErrConnectionClosedByServer) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection closed by server (%s)", e.Status)
	}
	return fmt.Sprintf("connection closed by server (%s): %s", e.Status, e.Reason)
}

// ErrConnectionClosedByClient is returned when the connection was closed locally
type ErrConnectionClosedByClient struct{}

func (e *ErrConnectionClosedByClient) Error() string {
	return "connection closed by client"
}

// closeCause classifies the error that ended a read loop.
func closeCause(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &ErrConnectionClosedByClient{}
	}
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		return &ErrConnectionClosedByServer{Status: closeErr.Code, Reason: closeErr.Reason}
	}
	return fmt.Errorf("connection lost: %w", err)
}

// IsClosedByClient reports whether err came from a local close.
func IsClosedByClient(err error) bool {
	var target *ErrConnectionClosedByClient
	return errors.As(err, &target)
}

// IsClosedByServer reports whether err came from a server close frame.
func IsClosedByServer(err error) bool {
	var target *ErrConnectionClosedByServer
	return errors.As(err, &target)
}
