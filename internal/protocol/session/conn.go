package session

import (
	"bufio"
	"bytes"
	"context"
	"net"

	"github.com/gorilla/websocket"
)

// Conn yields one raw hub message per ReadMessage call.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dial opens the configured transport. It does not retry.
func Dial(ctx context.Context, cfg Config) (Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Transport == TransportLine {
		c, err := dialLine(ctx, cfg.Address())
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := dialWebSocket(ctx, cfg.URL())
	if err != nil {
		return nil, err
	}
	return c, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func dialWebSocket(ctx context.Context, url string) (*wsConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

type lineConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialLine(ctx context.Context, addr string) (*lineConn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &lineConn{conn: conn, r: bufio.NewReader(conn)}, nil
}

// ReadMessage returns the next non-blank line without its terminator.
func (c *lineConn) ReadMessage() ([]byte, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if err != nil {
			if len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, nil
	}
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}
