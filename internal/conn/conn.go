// Package conn manages raw TCP client connections: accept loop, framed
// reads, and a buffered write pump per connection. Grounded on
// apps/server/internal/gateway/gateway.go's Connection/Gateway pair,
// swapped from *websocket.Conn to net.Conn + the custom wire codec
// since spec.md mandates raw TCP framing rather than a WebSocket
// upgrade.
package conn

import (
	"bufio"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"pigwarserver/internal/wire"
)

const (
	sendBuffer   = 256
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler is invoked once per decoded frame. It must not block for long;
// the session/dispatch layer owns all further validation.
type Handler func(clientID uint32, msgID uint8, body []byte)

// DisconnectFunc is invoked exactly once when a connection's read loop
// ends, for any reason (EOF, protocol error, or Close called from
// elsewhere).
type DisconnectFunc func(clientID uint32)

// ConnectFunc is invoked once a connection has been assigned its id,
// before its read/write pumps start, so the caller can push a Welcome
// frame with that id.
type ConnectFunc func(clientID uint32)

// Conn is one accepted TCP client, identified by a server-assigned id
// (spec.md's "my_id"). Field shape mirrors gateway.Connection.
type Conn struct {
	ID      uint32
	traceID string
	conn    net.Conn
	send    chan outFrame

	closeOnce sync.Once
}

type outFrame struct {
	msgID uint8
	body  []byte
}

// Manager owns the accept loop and the live connection table. Grounded
// on gateway.Gateway's connections map + free-running accept loop.
type Manager struct {
	mu      sync.RWMutex
	byID    map[uint32]*Conn
	freeIDs []uint32
	nextID  uint32

	onFrame      Handler
	onConnect    ConnectFunc
	onDisconnect DisconnectFunc
}

// NewManager constructs a Manager. onFrame is called from each
// connection's own read goroutine — it must be safe for concurrent use
// across connections.
func NewManager(onConnect ConnectFunc, onFrame Handler, onDisconnect DisconnectFunc) *Manager {
	return &Manager{
		byID:         make(map[uint32]*Conn),
		onConnect:    onConnect,
		onFrame:      onFrame,
		onDisconnect: onDisconnect,
	}
}

// Serve accepts connections on ln until it errors or is closed. It
// returns that terminal error, letting the caller's errgroup decide
// whether it's a clean shutdown.
func (m *Manager) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		m.accept(nc)
	}
}

func (m *Manager) accept(nc net.Conn) {
	m.mu.Lock()
	id := m.allocID()
	c := &Conn{ID: id, traceID: uuid.NewString(), conn: nc, send: make(chan outFrame, sendBuffer)}
	m.byID[id] = c
	count := len(m.byID)
	m.mu.Unlock()

	log.Printf("[conn] accepted id=%d trace=%s remote=%s live=%d", id, c.traceID, nc.RemoteAddr(), count)

	if m.onConnect != nil {
		m.onConnect(id)
	}
	go m.readPump(c)
	go m.writePump(c)
}

func (m *Manager) allocID() uint32 {
	if n := len(m.freeIDs); n > 0 {
		id := m.freeIDs[n-1]
		m.freeIDs = m.freeIDs[:n-1]
		return id
	}
	m.nextID++
	return m.nextID
}

func (m *Manager) readPump(c *Conn) {
	defer m.remove(c)

	br := bufio.NewReader(c.conn)
	for {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		id, body, err := wire.ReadFrame(br)
		if err != nil {
			if err != io.EOF {
				log.Printf("[conn] id=%d trace=%s read error: %v", c.ID, c.traceID, err)
			}
			return
		}
		if m.onFrame != nil {
			m.onFrame(c.ID, id, body)
		}
	}
}

func (m *Manager) writePump(c *Conn) {
	defer c.conn.Close()
	for f := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := wire.WriteFrame(c.conn, f.msgID, f.body); err != nil {
			log.Printf("[conn] id=%d trace=%s write error: %v", c.ID, c.traceID, err)
			return
		}
	}
}

func (m *Manager) remove(c *Conn) {
	m.mu.Lock()
	if _, ok := m.byID[c.ID]; ok {
		delete(m.byID, c.ID)
		m.freeIDs = append(m.freeIDs, c.ID)
	}
	count := len(m.byID)
	m.mu.Unlock()

	c.closeOnce.Do(func() { close(c.send) })
	log.Printf("[conn] disconnected id=%d trace=%s live=%d", c.ID, c.traceID, count)
	if m.onDisconnect != nil {
		m.onDisconnect(c.ID)
	}
}

// Send enqueues one frame for clientID's write pump. It drops the
// packet if the connection is unknown or its buffer is full, matching
// gateway.broadcastToUser's best-effort delivery.
func (m *Manager) Send(clientID uint32, msgID uint8, body []byte) {
	m.mu.RLock()
	c := m.byID[clientID]
	m.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.send <- outFrame{msgID: msgID, body: body}:
	default:
		log.Printf("[conn] id=%d send buffer full, dropping packet", clientID)
	}
}

// Close terminates clientID's connection, triggering its own disconnect
// path through readPump's deferred removal.
func (m *Manager) Close(clientID uint32) {
	m.mu.RLock()
	c := m.byID[clientID]
	m.mu.RUnlock()
	if c != nil {
		c.conn.Close()
	}
}

// Count returns the number of currently live connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
