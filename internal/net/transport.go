package net

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultPath is where drawboard servers accept websocket upgrades.
	DefaultPath = "/ws/drawboard"
	// LinkScheme is the scheme of shareable board links, drawboard://host:port.
	LinkScheme = "drawboard"
)

var (
	ErrNotConnected      = errors.New("net: not connected")
	ErrUnsupportedScheme = errors.New("net: unsupported url scheme")
)

// NormalizeURL turns a user-supplied server address into a websocket URL.
// Accepted forms are host:port, ws://, wss://, http://, https:// and
// drawboard:// links. A missing path becomes DefaultPath.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty server address")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "http", LinkScheme:
		u.Scheme = "ws"
	case "wss", "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server address %q has no host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	u.Fragment = ""
	return u.String(), nil
}

// Conn is a websocket connection to a drawboard server. Writes carry a
// deadline; reads do not, since servers never ping.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// Dial opens a websocket to serverURL, which must already be normalized.
func Dial(ctx context.Context, serverURL string, settings Settings) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: settings.HandshakeTimeout,
	}
	ws, resp, err := dialer.DialContext(ctx, serverURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", serverURL, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", serverURL, err)
	}
	return &Conn{ws: ws, writeTimeout: settings.WriteTimeout}, nil
}

// WriteText sends one text message.
func (c *Conn) WriteText(text string) error {
	if c == nil {
		return ErrNotConnected
	}
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// ReadMessage blocks for the next data message. Control frames are handled
// by the websocket library.
func (c *Conn) ReadMessage() (messageType int, data []byte, err error) {
	return c.ws.ReadMessage()
}

// Close sends a normal-closure frame and closes the socket.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
	return c.ws.Close()
}

// isNormalClose reports whether err is the peer closing the socket on
// purpose rather than a transport failure.
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
