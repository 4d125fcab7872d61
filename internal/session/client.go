package session

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Client is a WebSocket Transport connected to a relay.
type Client struct {
	conn    *websocket.Conn
	logger  *log.Logger
	writeMu sync.Mutex
	mu      sync.RWMutex
	closed  bool
}

// Dial connects to a relay. http and https URLs are coerced to ws and wss,
// and a bare host gets the /ws path.
func Dial(serverURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already correct
	default:
		u.Scheme = "ws"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	logger.Info("Connecting to relay", "url", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &Client{conn: conn, logger: logger.WithPrefix("client")}, nil
}

// Send writes one envelope to the relay.
func (c *Client) Send(env *protocol.Envelope) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrTransportClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

// Receive blocks until the next envelope arrives.
func (c *Client) Receive() (*protocol.Envelope, error) {
	var env protocol.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, ErrTransportClosed
		}
		return nil, fmt.Errorf("session: receive: %w", err)
	}
	return &env, nil
}

// Close sends a close frame and tears the connection down. The relay keeps
// the seat; RejoinRoom reclaims it.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return c.conn.Close()
}
