package session

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Transport names the framing used on the hub socket.
type Transport string

const (
	TransportWebSocket Transport = "ws"
	TransportLine      Transport = "tcp"
)

var (
	ErrInvalidTransport = errors.New("session: invalid transport")
	ErrInvalidAddress   = errors.New("session: invalid address")
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config describes how to reach the hub.
type Config struct {
	Host      string
	Port      int
	Path      string
	Transport Transport
	Reconnect bool
	Backoff   BackoffConfig
}

// DefaultConfig matches the hub's stock listener on localhost:5000.
func DefaultConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      5000,
		Path:      "/",
		Transport: TransportWebSocket,
		Reconnect: false,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// Address is host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is the WebSocket endpoint for the hub.
func (c Config) URL() string {
	path := c.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + c.Address() + path
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportWebSocket, TransportLine:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransport, c.Transport)
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidAddress)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidAddress, c.Port)
	}
	return nil
}
