package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/unitcore/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize       = 10_000
	ackChSize        = 16
	maxReconnect     = 10
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
	writeWait        = 10 * time.Second
	ackTimeout       = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

var dialer = &ws.Dialer{HandshakeTimeout: handshakeTimeout}

// connection owns the socket to the server. One writer goroutine and one
// reader goroutine run per live socket; both exit when its stop channel closes.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	stop   chan struct{}
	closed bool
	// replay is written first on every new socket so the server keeps
	// attributing messages to the running session.
	replay []byte

	endpoint string
	sendCh   chan []byte
	ackCh    chan streaming.AckMessage
	done     chan struct{}

	reconnecting atomic.Bool
	dropped      atomic.Uint64
	reconnects   atomic.Uint64

	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// dial resolves the endpoint with the secret as a query parameter and
// connects once.
func (c *connection) dial(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()
	c.endpoint = u.String()

	conn, err := c.open()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

func (c *connection) open() (*ws.Conn, error) {
	conn, _, err := dialer.Dial(c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

func (c *connection) attach(conn *ws.Conn) {
	stop := make(chan struct{})
	c.mu.Lock()
	c.conn, c.stop = conn, stop
	c.mu.Unlock()

	go c.writeLoop(conn, stop)
	go c.readLoop(conn, stop)
}

// detach stops the loops of the live socket and closes it.
func (c *connection) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func writeFrame(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (c *connection) writeLoop(conn *ws.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-c.done:
			return
		case <-stop:
			return
		case data := <-c.sendCh:
			if err := writeFrame(conn, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				go c.reconnect()
				return
			}
		}
	}
}

// readLoop forwards acks to ackCh; anything else from the server is ignored.
func (c *connection) readLoop(conn *ws.Conn, stop <-chan struct{}) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.stopping(stop) {
				return
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.reconnect()
			return
		}

		var ack streaming.AckMessage
		if json.Unmarshal(message, &ack) != nil || ack.Type != "ack" {
			c.logger.Debug("Ignoring server message", "raw", string(message))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

func (c *connection) stopping(stop <-chan struct{}) bool {
	select {
	case <-c.done:
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

// reconnect redials with exponential backoff, replays the session start and
// restarts the loops. Concurrent calls collapse into one attempt.
func (c *connection) reconnect() {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer c.reconnecting.Store(false)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.detach()

	backoff := initialBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)

		conn, err := c.open()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := writeFrame(conn, replay); err != nil {
				c.logger.Warn("Failed to replay session start", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.reconnects.Add(1)
		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		c.attach(conn)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// send queues data for the writer without blocking; a full queue drops it.
func (c *connection) send(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.sendCh <- data:
	default:
		if c.dropped.Add(1) == 1 {
			c.logger.Warn("WebSocket send channel full, dropping messages")
		}
	}
}

// sendAndWait queues data and waits for the server's ack of type ackFor.
// Acks for other types are discarded.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close sends a close frame and stops every goroutine.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return conn.Close()
}
