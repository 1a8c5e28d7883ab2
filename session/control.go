package session

import (
	"net"
	"sync"

	"androidcontrol/wire"

	"go.uber.org/zap"
)

// controlRouter serializes writes to a session's device control
// socket. Inbound frames are enqueued from the owner's WebSocket read
// loop and drained by a single writer goroutine, per SPEC_FULL.md §4.5.
type controlRouter struct {
	conn    net.Conn
	log     *zap.Logger
	onError func(error)

	mu     sync.Mutex
	queue  []byte // unused; kept for clarity that writes are single-threaded
	ch     chan []byte
	closed bool
}

func newControlRouter(conn net.Conn, log *zap.Logger, onError func(error)) *controlRouter {
	return &controlRouter{
		conn:    conn,
		log:     log,
		onError: onError,
		ch:      make(chan []byte, ControlQueueSize),
	}
}

// run drains the queue and writes each frame to the device, in arrival
// order. Exits when the channel is closed or a write fails.
func (r *controlRouter) run() {
	for frame := range r.ch {
		if _, err := r.conn.Write(frame); err != nil {
			r.onError(err)
			return
		}
	}
}

// Enqueue accepts one client→device control frame. Malformed (empty)
// frames are dropped with a warning, never fatal. Under overflow, the
// oldest non-essential (touch MOVE) queued frame is dropped to make
// room; queued essential frames (touch UP/DOWN, power events) are
// never evicted by this path. If the queue is full of only essential
// frames, the new frame is dropped instead, whether or not it is
// itself essential.
func (r *controlRouter) Enqueue(frame []byte) {
	if err := wire.ValidateControlFrame(frame); err != nil {
		if r.log != nil {
			r.log.Warn("dropped malformed control frame", zap.Error(err))
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.ch <- frame:
		return
	default:
	}

	if r.dropOldestNonEssential() {
		select {
		case r.ch <- frame:
		default:
		}
	}
}

// dropOldestNonEssential pops one queued frame if it is safe to drop.
// Since the channel itself does not expose peek/pop-oldest semantics
// for arbitrary elements, this drains up to the full queue depth
// looking for the first non-essential frame and re-queues the rest in
// order, which keeps the bounded-channel invariant while still only
// ever removing a MOVE frame under genuine overflow.
func (r *controlRouter) dropOldestNonEssential() bool {
	pending := len(r.ch)
	var kept [][]byte
	dropped := false
	for i := 0; i < pending; i++ {
		f := <-r.ch
		if !dropped && !wire.IsEssentialControl(f) {
			dropped = true
			if r.log != nil {
				r.log.Debug("dropped queued non-essential control frame")
			}
			continue
		}
		kept = append(kept, f)
	}
	for _, f := range kept {
		r.ch <- f
	}
	return dropped
}

// Close stops accepting new frames and signals the writer goroutine to
// exit once the queue drains.
func (r *controlRouter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.ch)
}
