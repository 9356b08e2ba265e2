package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/coder/websocket"
)

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var ErrNotConnected = errors.New("NOT_CONNECTED: no open connection")

// Connection owns the single websocket to the game server. Inbound frames
// are decoded and dispatched through the emitter on the read-loop goroutine;
// the synthetic "connect" and "disconnect" kinds are dispatched from here
// and never travel on the wire.
type Connection struct {
	url     string
	emitter *Emitter

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	status  Status
}

func NewConnection(url string, emitter *Emitter) *Connection {
	return &Connection{
		url:     url,
		emitter: emitter,
	}
}

func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect dials the server. A no-op when a connection is already open or in
// progress. There is no automatic retry; reconnection is the caller's call.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusConnecting
	c.mu.Unlock()

	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.status = StatusDisconnected
		c.mu.Unlock()
		log.Printf("dial %s failed: %v", c.url, err)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.mu.Unlock()

	log.Printf("connected to %s", c.url)
	c.emitter.Dispatch(EventConnect, nil)

	go c.readLoop(conn)
	return nil
}

// Disconnect closes and discards the transport. Idempotent; calling while
// already disconnected is a no-op. The matching "disconnect" event is
// dispatched by the read loop when it observes the closure, so local and
// remote teardown surface identically.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn == nil {
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	log.Printf("disconnected from %s", c.url)
}

// Send serializes {type, data} and writes it if connected. When not
// connected the frame is dropped: the drop is logged and ErrNotConnected
// returned, but nothing is buffered for later.
func (c *Connection) Send(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(OutboundEnvelope{Type: kind, Data: payload})
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	connected := c.status == StatusConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		log.Printf("dropped %q: not connected", kind)
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		log.Printf("write %q failed: %v", kind, err)
		return err
	}
	return nil
}

// readLoop runs once per live transport. Every decoded frame is dispatched
// inline, so handlers observe events in wire order and run to completion
// before the next frame is read.
func (c *Connection) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.Read(context.Background())
		if err != nil {
			c.finish(conn, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("dropped non-text frame")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("dropped malformed frame: %v", err)
			continue
		}
		if env.Type == "" {
			log.Printf("dropped frame with no type")
			continue
		}

		if c.emitter.Dispatch(env.Type, env.Data) == 0 {
			log.Printf("no handler for event %q", env.Type)
		}
	}
}

// finish records the teardown of conn and dispatches exactly one
// "disconnect". If Disconnect already swapped the handle out, only the
// dispatch remains to be done.
func (c *Connection) finish(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.status = StatusDisconnected
	}
	c.mu.Unlock()

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		log.Printf("connection closed")
	default:
		log.Printf("connection lost: %v", err)
	}

	c.emitter.Dispatch(EventDisconnect, nil)
}
