package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	ws "github.com/gorilla/websocket"

	"github.com/cradlewars/arena/pkg/streaming"
)

const (
	sendChSize     = 10_000
	ackChSize      = 16
	maxReconnect   = 10
	maxBackoff     = 30 * time.Second
	writeWait      = 10 * time.Second
	ackTimeout     = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 1 << 20
)

var errClosed = errors.New("websocket connection closed")

// session is one dialed socket. stop is closed when the socket is replaced
// or the connection shuts down, which ends its write and ping loops.
type session struct {
	conn *ws.Conn
	stop chan struct{}
	once sync.Once
}

func (s *session) end() {
	s.once.Do(func() {
		close(s.stop)
		_ = s.conn.Close()
	})
}

// connection keeps one live session to the replication service and redials
// when it drops. All writes go through a single outbound queue.
type connection struct {
	url    string
	secret string
	logger *slog.Logger

	outbound chan []byte
	acks     chan streaming.AckMessage
	done     chan struct{}

	// ackMu is held for the whole of an acknowledged send. Acks name only
	// the message type, so two waiters could not tell theirs apart.
	ackMu sync.Mutex

	mu           sync.Mutex
	current      *session
	closed       bool
	reconnecting bool
	announced    map[string][]byte // match id -> start_match, replayed on redial

	onCommand  func([]byte)
	newBackOff func() backoff.BackOff
}

func newConnection(logger *slog.Logger, onCommand func([]byte)) *connection {
	return &connection{
		logger:    logger,
		outbound:  make(chan []byte, sendChSize),
		acks:      make(chan streaming.AckMessage, ackChSize),
		done:      make(chan struct{}),
		announced: make(map[string][]byte),
		onCommand: onCommand,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = maxBackoff
			return b
		},
	}
}

func (c *connection) dial(rawURL, secret string) error {
	c.url, c.secret = rawURL, secret
	conn, err := c.open()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = conn.Close()
		return errClosed
	}
	c.attach(conn)
	return nil
}

// open dials once, passing the secret as a query parameter.
func (c *connection) open() (*ws.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.url, err)
	}
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return conn, nil
}

// attach makes conn the current session and starts its loops. c.mu is held.
func (c *connection) attach(conn *ws.Conn) {
	s := &session{conn: conn, stop: make(chan struct{})}
	c.current = s
	go c.writeLoop(s)
	go c.readLoop(s)
}

func (c *connection) writeLoop(s *session) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case <-s.stop:
			return
		case <-ping.C:
			kind = ws.PingMessage
		case data = <-c.outbound:
			kind = ws.TextMessage
		}
		if err := write(s.conn, kind, data); err != nil {
			c.logger.Warn("WebSocket write failed", "error", err)
			go c.redial(s)
			return
		}
	}
}

func write(conn *ws.Conn, kind int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(kind, data)
}

// inbound is any message the service sends. Acks use For, commands Payload.
type inbound struct {
	Type    string          `json:"type"`
	For     string          `json:"for"`
	Payload json.RawMessage `json:"payload"`
}

func (c *connection) readLoop(s *session) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
			default:
				c.logger.Warn("WebSocket read failed", "error", err)
				go c.redial(s)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("Malformed message received", "raw", string(raw))
			continue
		}
		switch msg.Type {
		case streaming.TypeAck:
			select {
			case c.acks <- streaming.AckMessage{Type: msg.Type, For: msg.For}:
			default:
				c.logger.Debug("Ack queue full, dropping", "for", msg.For)
			}
		case streaming.TypeCommand:
			if c.onCommand != nil {
				c.onCommand(msg.Payload)
			}
		default:
			c.logger.Debug("Unexpected message type", "type", msg.Type)
		}
	}
}

// redial replaces the failed session. Only the first caller for a given
// session does the work; the rest return at once.
func (c *connection) redial(failed *session) {
	c.mu.Lock()
	if c.closed || c.reconnecting || c.current != failed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.current = nil
	c.mu.Unlock()
	failed.end()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, c.restore(attempt)
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(maxReconnect))
	if err != nil && ctx.Err() == nil && !errors.Is(err, errClosed) {
		c.logger.Error("WebSocket reconnect failed", "attempts", attempt, "error", err)
	}
}

// restore dials, replays the start_match of every running match so the
// service knows about them, and attaches the new socket.
func (c *connection) restore(attempt int) error {
	conn, err := c.open()
	if err != nil {
		c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return backoff.Permanent(errClosed)
	}
	replay := make([][]byte, 0, len(c.announced))
	for _, msg := range c.announced {
		replay = append(replay, msg)
	}
	c.mu.Unlock()

	for _, msg := range replay {
		if err := write(conn, ws.TextMessage, msg); err != nil {
			_ = conn.Close()
			c.logger.Warn("Replaying start_match failed", "attempt", attempt, "error", err)
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = conn.Close()
		return backoff.Permanent(errClosed)
	}
	c.attach(conn)
	c.logger.Info("WebSocket reconnected", "attempt", attempt, "replayed", len(replay))
	return nil
}

func (c *connection) announce(matchID string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.announced[matchID] = data
}

func (c *connection) retire(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.announced, matchID)
}

// send queues data without blocking. Messages queued while redialing go out
// on the new socket.
func (c *connection) send(data []byte) {
	select {
	case c.outbound <- data:
	default:
		c.logger.Warn("WebSocket send queue full, dropping message")
	}
}

// sendAndWait queues data and waits for an ack of ackFor.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.ackMu.Lock()
	defer c.ackMu.Unlock()

	select {
	case <-c.done:
		return fmt.Errorf("sending %s: %w", ackFor, errClosed)
	default:
	}
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("waiting for ack of %s: %w", ackFor, errClosed)
		}
	}
}

// close sends a close frame on the live socket and stops every loop.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	s := c.current
	c.current = nil
	c.mu.Unlock()

	if s != nil {
		_ = s.conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.end()
	}
	return nil
}
