package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is an open message transport to the Live API.
type Conn interface {
	Send(ctx context.Context, msg []byte) error
	// Receive blocks for the next frame. A clean server close returns
	// ErrRemoteClosed; a call after Close returns ErrClosed.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens a Conn to url.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials with gorilla/websocket.
type WSDialer struct {
	Dialer       *websocket.Dialer // nil uses websocket.DefaultDialer
	WriteTimeout time.Duration     // per frame; defaults to 10s
	MaxMessage   int64             // read limit; defaults to 8 MiB
}

// Dial opens the socket. The response body of a failed handshake is not
// included in the error because the URL carries a key.
func (d WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	c, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if errors.Is(err, websocket.ErrBadHandshake) && status != 0 {
			return nil, fmt.Errorf("%w: handshake status %d (%s)", ErrTransport, status, http.StatusText(status))
		}
		return nil, fmt.Errorf("%w: dial: %v", ErrTransport, redactURL(err, url))
	}
	limit := d.MaxMessage
	if limit <= 0 {
		limit = 8 << 20
	}
	c.SetReadLimit(limit)
	wt := d.WriteTimeout
	if wt <= 0 {
		wt = 10 * time.Second
	}
	return &wsConn{c: c, writeTimeout: wt, closed: make(chan struct{})}, nil
}

type wsConn struct {
	c            *websocket.Conn
	writeTimeout time.Duration

	wmu       sync.Mutex // gorilla allows one concurrent writer
	closeOnce sync.Once
	closed    chan struct{}
}

func (w *wsConn) isClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

func (w *wsConn) Send(ctx context.Context, msg []byte) error {
	if w.isClosed() {
		return ErrClosed
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	deadline := time.Now().Add(w.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = w.c.SetWriteDeadline(deadline)
	if err := w.c.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

// Receive ignores ctx cancellation while blocked; Close unblocks it.
func (w *wsConn) Receive(_ context.Context) ([]byte, error) {
	_, data, err := w.c.ReadMessage()
	if err == nil {
		return data, nil
	}
	if w.isClosed() {
		return nil, ErrClosed
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil, ErrRemoteClosed
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Text != "" {
		return nil, &RemoteError{Message: ce.Text}
	}
	return nil, fmt.Errorf("%w: read: %v", ErrTransport, err)
}

// Close sends a normal close frame and closes the socket. Safe to repeat.
func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		// WriteControl may run concurrently with WriteMessage.
		_ = w.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = w.c.Close()
	})
	return err
}

// redactURL keeps the key query parameter out of dial errors.
func redactURL(err error, url string) string {
	if url == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), url, "<live endpoint>")
}
