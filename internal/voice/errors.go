// Package voice bridges a local audio device to the Gemini Live streaming
// API. A Session resolves an ephemeral descriptor, acquires the microphone,
// opens the socket and performs the setup handshake, then pumps captured
// audio out and schedules returned audio for gapless playback. Every exit
// path goes through one idempotent teardown that releases the transport,
// pending playback, the microphone and the renderer in that order.
package voice

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a session is already active on the bridge.
	ErrBusy = errors.New("voice: a session is already active")
	// ErrDescriptor wraps a failure to obtain the session descriptor.
	ErrDescriptor = errors.New("voice: session descriptor unavailable")
	// ErrMicrophoneDenied is returned when the microphone cannot be acquired.
	ErrMicrophoneDenied = errors.New("voice: microphone permission denied")
	// ErrMicrophoneBusy is returned when the microphone is held by another session.
	ErrMicrophoneBusy = errors.New("voice: microphone already in use")
	// ErrRemoteClosed is reported when the server closed the session.
	ErrRemoteClosed = errors.New("voice: connection closed by server")
	// ErrTransport wraps socket failures.
	ErrTransport = errors.New("voice: transport failure")
	// ErrProtocol is returned for a frame that cannot be decoded.
	ErrProtocol = errors.New("voice: malformed server message")
	// ErrClosed is returned by operations on a torn-down session or renderer.
	ErrClosed = errors.New("voice: session closed")
)

// RemoteError carries the message of a server error frame.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return fmt.Sprintf("voice: server error: %s", e.Message) }
