package gamesync

import "errors"

// ErrConnectionClosed is reported to error observers whenever the
// connection ends without a call to Disconnect, including failed attempts.
var ErrConnectionClosed = errors.New("connection to game server closed")
