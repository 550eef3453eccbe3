package voice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// liveServer upgrades every request and hands the socket to fn.
func liveServer(t *testing.T, fn func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		fn(c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := WSDialer{}.Dial(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWSConn_Echo(t *testing.T) {
	url := liveServer(t, func(c *websocket.Conn) {
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})
	c := dial(t, url)
	ctx := context.Background()
	if err := c.Send(ctx, []byte(`{"setup":{}}`)); err != nil {
		t.Fatal(err)
	}
	got, err := c.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"setup":{}}` {
		t.Fatalf("echo = %s", got)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()
	if err := c.Send(ctx, []byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close = %v", err)
	}
	if _, err := c.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("receive after close = %v", err)
	}
}

func TestWSConn_RemoteClose(t *testing.T) {
	cases := []struct {
		name  string
		code  int
		text  string
		check func(error) bool
	}{
		{"normal", websocket.CloseNormalClosure, "bye", func(err error) bool { return errors.Is(err, ErrRemoteClosed) }},
		{"going away", websocket.CloseGoingAway, "", func(err error) bool { return errors.Is(err, ErrRemoteClosed) }},
		{"server error", websocket.CloseInternalServerErr, "quota exceeded", func(err error) bool {
			var re *RemoteError
			return errors.As(err, &re) && re.Message == "quota exceeded"
		}},
		{"abnormal", websocket.CloseProtocolError, "", func(err error) bool { return errors.Is(err, ErrTransport) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := liveServer(t, func(c *websocket.Conn) {
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(tc.code, tc.text))
				_, _, _ = c.ReadMessage()
			})
			c := dial(t, url)
			_, err := c.Receive(context.Background())
			if !tc.check(err) {
				t.Fatalf("receive err = %v", err)
			}
		})
	}
}

func TestWSDialer_HandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?key=secret"

	_, err := WSDialer{}.Dial(context.Background(), url)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "403") || strings.Contains(err.Error(), "secret") {
		t.Fatalf("err = %v", err)
	}
}

func TestWSDialer_RedactsURL(t *testing.T) {
	url := "ws://127.0.0.1:1/ws?key=secret"
	_, err := WSDialer{}.Dial(context.Background(), url)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("dial error leaks the key: %v", err)
	}
}
