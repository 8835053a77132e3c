package session

import (
	"context"
	"fmt"

	"github.com/coder/websocket"

	"github.com/theplebdev/tmichat/internal/constants"
)

// Conn is the minimal surface the session needs from a chat socket. The
// production implementation wraps coder/websocket; tests substitute a fake.
type Conn interface {
	// ReadLine blocks for the next frame. text is false for binary frames,
	// which the protocol ignores.
	ReadLine(ctx context.Context) (data []byte, text bool, err error)

	// WriteLine sends one text frame.
	WriteLine(ctx context.Context, line string) error

	// Close closes the socket with an application close code and reason.
	Close(code int, reason string) error
}

// Dialer opens chat sockets. *WSDialer is the production implementation.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials real WebSocket connections.
type WSDialer struct{}

// Dial opens a WebSocket connection to url and applies the chat read limit.
func (WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, constants.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{})
	if err != nil {
		return nil, fmt.Errorf("dialing chat server: %w", err)
	}

	conn.SetReadLimit(constants.MaxLineBytes)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

// ReadLine rides the session context rather than a per-read deadline: a
// deadline expiring mid-read would close the socket, and idle chat between
// server keepalives is normal. Dead connections surface on write instead.
func (c *wsConn) ReadLine(ctx context.Context) ([]byte, bool, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, false, err
	}
	return data, typ == websocket.MessageText, nil
}

func (c *wsConn) WriteLine(ctx context.Context, line string) error {
	writeCtx, cancel := context.WithTimeout(ctx, constants.WriteTimeout)
	defer cancel()

	return c.conn.Write(writeCtx, websocket.MessageText, []byte(line))
}

func (c *wsConn) Close(code int, reason string) error {
	return c.conn.Close(websocket.StatusCode(code), reason)
}
