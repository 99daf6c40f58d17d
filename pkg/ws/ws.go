package ws

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relayhttp/relay/internal"
)

// Default buffer sizes for upgraded connections.
const (
	DefaultReadBufferSize  = 4096
	DefaultWriteBufferSize = 4096
)

// Config configures the WebSocket upgrade.
type Config struct {
	// CheckOrigin validates the Origin header. Nil uses the gorilla
	// default, which rejects cross-origin requests.
	CheckOrigin func(r *http.Request) bool

	// Subprotocols lists the supported subprotocols in preference order.
	Subprotocols []string

	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
}

// Option configures Config.
type Option func(*Config)

// WithCheckOrigin sets the Origin validator.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(cfg *Config) {
		cfg.CheckOrigin = fn
	}
}

// WithSubprotocols sets the supported subprotocols in preference order.
func WithSubprotocols(protocols ...string) Option {
	return func(cfg *Config) {
		cfg.Subprotocols = protocols
	}
}

// WithBufferSizes sets the read and write buffer sizes.
func WithBufferSizes(read, write int) Option {
	return func(cfg *Config) {
		cfg.ReadBufferSize = read
		cfg.WriteBufferSize = write
	}
}

// WithHandshakeTimeout sets the handshake timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.HandshakeTimeout = d
	}
}

// Upgrade switches the request to the WebSocket protocol. The response
// builder goes into passthrough first so accumulated headers reach the
// handshake and dispatch finalization does not write over the upgraded
// connection. The caller owns the returned connection and must close it.
//
// Example:
//
//	func (h *FeedHandler) stream(c relay.Context) error {
//	    conn, err := ws.Upgrade(c)
//	    if err != nil {
//	        return err
//	    }
//	    defer conn.Close()
//	    return h.pump(c, conn)
//	}
func Upgrade(c internal.Context, opts ...Option) (*websocket.Conn, error) {
	cfg := &Config{
		ReadBufferSize:  DefaultReadBufferSize,
		WriteBufferSize: DefaultWriteBufferSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := c.Response().Passthrough(c.Writer()); err != nil {
		return nil, err
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.WriteBufferSize,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Subprotocols:     cfg.Subprotocols,
		CheckOrigin:      cfg.CheckOrigin,
	}

	conn, err := upgrader.Upgrade(c.Writer(), c.Request(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	return conn, nil
}
