// Package session implements the per-device streaming session state
// machine (SessionManager, MediaPump, ControlRouter) and the
// display-mode bootstrap/cleanup commands, per SPEC_FULL.md §4.3-§4.5.
// It is grounded on the teacher's ScrcpyClient/StreamingService
// (single-device push+forward+handshake+stream loop), generalized to
// scrcpy's three-socket (video/audio/control) acceptance model and a
// multi-session registry guarded by one lock.
package session

import (
	"context"
	"net"
	"sync"
	"time"

	"androidcontrol/models"
)

// ServerPortBase is the first local TCP port probed for a session's
// accept listener, per SPEC_FULL.md §4.3 step 2.
const ServerPortBase = 27183

// RemoteServerPath is the fixed on-device path the streaming server
// jar is pushed to before every session, per SPEC_FULL.md §4.3 step 3.
const RemoteServerPath = "/data/local/tmp/androidcontrol-server.jar"

// HandshakeTimeout, PumpJoinTimeout are the bounds named in
// SPEC_FULL.md §5.
const (
	HandshakeTimeout = 10 * time.Second
	PumpJoinTimeout  = 5 * time.Second
)

// MaxClientBufferBytes is the MediaPump back-pressure threshold, per
// SPEC_FULL.md §4.4.
const MaxClientBufferBytes = 8 * 1024 * 1024

// ControlQueueSize is the ControlRouter's bounded inbound queue size,
// per SPEC_FULL.md §4.5.
const ControlQueueSize = 1024

// ClientSink is the subset of ClientGateway's per-connection write
// surface a Session needs: push a binary envelope or JSON event, and
// report how much is currently buffered so MediaPump can apply
// back-pressure. Declared here (not imported from gateway) so session
// has no dependency on the WebSocket transport.
type ClientSink interface {
	SendBinary(frame []byte)
	SendJSON(v interface{})
	BufferedBytes() int
}

// Sockets tracks the three accepted device-server connections. A field
// is nil until WireProtocol.handshake for it completes.
type Sockets struct {
	Video   net.Conn
	Audio   net.Conn
	Control net.Conn
}

// Session is one device streaming session, owned by Manager.
type Session struct {
	Scid          string
	DeviceID      string // Device.ID (stable)
	ADBDeviceID   string
	OwnerClientID string
	DisplayMode   models.DisplayMode
	Options       models.ServerOptions
	LocalPort     int
	AndroidMajor  int

	TurnScreenOffRequested bool
	RotationSaved          bool

	mu         sync.Mutex
	state      models.SessionState
	sock       Sockets
	sink       ClientSink
	cancel     func()
	dispCleanup func(ctx context.Context) error

	videoPump   *mediaPump
	audioPump   *mediaPump
	controlRtr  *controlRouter
	closeOnce   sync.Once
	drainSignal chan struct{}
	pumpsWG     sync.WaitGroup
}

func newSession(scid, deviceID, adbDeviceID, ownerClientID string, opts models.ServerOptions, mode models.DisplayMode, localPort int, sink ClientSink, cancel func()) *Session {
	return &Session{
		Scid:          scid,
		DeviceID:      deviceID,
		ADBDeviceID:   adbDeviceID,
		OwnerClientID: ownerClientID,
		DisplayMode:   mode,
		Options:       opts,
		LocalPort:     localPort,
		state:         models.StateProvisioning,
		sink:          sink,
		cancel:        cancel,
		drainSignal:   make(chan struct{}),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState transitions the session. Failed is transient: it is folded
// into Draining immediately, per SPEC_FULL.md §3.
func (s *Session) setState(st models.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == models.StateFailed {
		st = models.StateDraining
	}
	s.state = st
}

// beginDraining marks the session Draining exactly once and closes
// drainSignal. Nothing in this package waits on drainSignal; pumps and
// the router stop when cleanup closes their sockets. Safe to call
// from multiple goroutines (pump error, control error, owner
// disconnect, explicit cleanup) concurrently.
func (s *Session) beginDraining() {
	s.closeOnce.Do(func() {
		s.setState(models.StateDraining)
		close(s.drainSignal)
	})
}
