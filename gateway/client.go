// Package gateway implements ClientGateway: the WebSocket/HTTP edge
// that upgrades browser connections, demuxes text (JSON command) and
// binary (control) frames to CommandHub/SessionManager, and streams
// media/event frames back out. It is grounded on the teacher's
// api.WebSocketHub/Client (register/unregister hub, per-connection
// send channel, trySend drop-oldest policy, ping/pong keepalive),
// generalized from a broadcast hub to CommandHub's per-client command
// routing, per SPEC_FULL.md §4.7.
package gateway

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"androidcontrol/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendQueue  = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 2 * 1024 * 1024,
}

// Client is one upgraded WebSocket connection. It implements
// session.ClientSink so SessionManager/CommandHub can write back
// through it without depending on this package.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *WebSocketHub
	log  *zap.Logger

	mu        sync.Mutex
	send      chan []byte
	buffered  atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once

	onClose func(clientID string)
}

func newClient(id string, conn *websocket.Conn, hub *WebSocketHub, log *zap.Logger, onClose func(string)) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		hub:     hub,
		log:     log,
		send:    make(chan []byte, sendQueue),
		onClose: onClose,
	}
}

// SendBinary implements session.ClientSink.
func (c *Client) SendBinary(frame []byte) {
	c.trySend(frame)
}

// SendJSON implements session.ClientSink.
func (c *Client) SendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		if c.log != nil {
			c.log.Warn("marshal outbound json failed", zap.Error(err))
		}
		return
	}
	c.trySend(b)
}

// BufferedBytes implements session.ClientSink, consulted by
// session.mediaPump to decide whether to drop non-essential frames.
func (c *Client) BufferedBytes() int {
	return int(c.buffered.Load())
}

// isEssentialFrame reports whether msg must never be evicted by the
// drop-oldest overflow policy: every JSON command response/event, and
// every binary envelope the media pump already decided is load-bearing
// (codec configs, key frames) — only H.264 delta frames and AAC frames
// are droppable here, mirroring the drops mediaPump.backpressured
// already performs upstream, per SPEC_FULL.md §4.4/§8.
func isEssentialFrame(msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	if isJSONPayload(msg) {
		return true
	}
	switch models.EnvelopeTag(msg[0]) {
	case models.EnvelopeH264Delta, models.EnvelopeAACFrame:
		return false
	default:
		return true
	}
}

// trySend enqueues msg, discriminating by frame type like
// session.controlRouter.Enqueue: under overflow, the oldest droppable
// (delta/AAC) queued frame is evicted to make room, regardless of
// whether msg itself is essential. JSON frames, key frames, and codec
// configs already queued are never evicted by this path — if the
// queue is saturated with only essential frames, msg is dropped
// instead of evicting one.
func (c *Client) trySend(msg []byte) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case c.send <- msg:
		c.buffered.Add(int64(len(msg)))
		return
	default:
	}

	if c.dropOldestNonEssential() {
		select {
		case c.send <- msg:
			c.buffered.Add(int64(len(msg)))
		default:
		}
		return
	}
	if c.log != nil {
		c.log.Warn("dropped frame, send queue saturated with essential frames", zap.String("clientID", c.id))
	}
}

// dropOldestNonEssential pops one queued droppable frame if present.
// Since the channel itself exposes no peek/pop-oldest for arbitrary
// elements, this drains up to the full queue depth looking for the
// first droppable frame and re-queues the rest in order.
func (c *Client) dropOldestNonEssential() bool {
	pending := len(c.send)
	var kept [][]byte
	dropped := false
	for i := 0; i < pending; i++ {
		f := <-c.send
		if !dropped && !isEssentialFrame(f) {
			dropped = true
			c.buffered.Add(-int64(len(f)))
			if c.log != nil {
				c.log.Debug("dropped queued delta/AAC frame under overflow")
			}
			continue
		}
		kept = append(kept, f)
	}
	for _, f := range kept {
		c.send <- f
	}
	return dropped
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.conn.Close()
		if c.onClose != nil {
			c.onClose(c.id)
		}
	})
}

// writePump drains send to the socket and pings on an idle timer,
// grounded on the teacher's writePump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.buffered.Add(-int64(len(frame)))
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			msgType := websocket.BinaryMessage
			if isJSONPayload(frame) {
				msgType = websocket.TextMessage
			}
			if err := c.conn.WriteMessage(msgType, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump hands every inbound frame to dispatch, grounded on the
// teacher's readPump, generalized to route both text (JSON commands)
// and binary (control) frames instead of only subscription messages.
func (c *Client) readPump(dispatch func(clientID string, isBinary bool, payload []byte)) {
	defer c.close()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.log != nil {
				c.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		dispatch(c.id, msgType == websocket.BinaryMessage, message)
	}
}

func firstNonSpace(b []byte) byte {
	for _, ch := range b {
		if ch != ' ' && ch != '\n' && ch != '\r' && ch != '\t' {
			return ch
		}
	}
	return 0
}

func isJSONPayload(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	ch := firstNonSpace(b)
	return ch == '{' || ch == '['
}
