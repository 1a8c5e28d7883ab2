package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"
	"time"

	"androidcontrol/adb"
	"androidcontrol/errs"
	"androidcontrol/models"
	"androidcontrol/store"
	"androidcontrol/wire"

	"go.uber.org/zap"
)

// Manager owns every live Session plus the single-client-one-session
// invariant, guarded by one lock held only across map mutations, never
// across I/O, per SPEC_FULL.md §5.
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	owners       map[string]string // clientID -> scid
	liveSessions int

	bus          *adb.DeviceBus
	rot          *store.RotationStore
	log          *zap.Logger
	serverAsset  string // local path of the streaming server jar to push
	pushRetries  int
}

// NewManager builds a Manager. serverAssetPath is the local filesystem
// path of the streaming server binary pushed to every device at
// session start.
func NewManager(bus *adb.DeviceBus, rot *store.RotationStore, log *zap.Logger, serverAssetPath string) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		owners:      make(map[string]string),
		bus:         bus,
		rot:         rot,
		log:         log,
		serverAsset: serverAssetPath,
		pushRetries: 3,
	}
}

// CreateOptions collects a "start" command's parameters, per
// SPEC_FULL.md §4.3/§6.
type CreateOptions struct {
	ClientID    string
	DeviceID    string
	ADBDeviceID string

	Video, Audio, Control bool
	MaxFPS, Bitrate       int
	DisplayMode           models.DisplayMode
	Resolution, Dpi       string
	TurnScreenOff         bool

	Sink ClientSink
}

// SessionByOwner returns the live session owned by clientID, if any.
func (m *Manager) SessionByOwner(clientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scid, ok := m.owners[clientID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[scid]
	return s, ok
}

// CreateSession runs the full bootstrap: push, reverse tunnel, spawn,
// accept sockets, handshake, and (on success) starts the pumps and
// control router, per SPEC_FULL.md §4.3. It blocks for the duration of
// the bootstrap; callers invoke it from a dedicated goroutine per
// "start" command so the WebSocket read loop is not blocked.
func (m *Manager) CreateSession(ctx context.Context, opts CreateOptions) (*Session, error) {
	if _, exists := m.SessionByOwner(opts.ClientID); exists {
		return nil, errs.ErrAlreadyAttached
	}

	scid := models.NewScid()
	localPort, ln, err := m.allocatePort()
	if err != nil {
		return nil, errs.Wrap(errs.ErrServerSpawnFailed, err.Error())
	}

	sess := newSession(scid, opts.DeviceID, opts.ADBDeviceID, opts.ClientID, models.ServerOptions{}, opts.DisplayMode, localPort, opts.Sink, nil)
	m.register(sess)

	if err := m.bootstrap(ctx, sess, ln, opts); err != nil {
		ln.Close()
		m.cleanupLocked(sess, err)
		return nil, err
	}
	return sess, nil
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Scid] = s
	m.owners[s.OwnerClientID] = s.Scid
	m.liveSessions++
}

// allocatePort probes ports starting at ServerPortBase + (liveSessions
// % 1000), incrementing on bind collision, per SPEC_FULL.md §4.3 step
// 2. The listener is returned already bound so the caller can start
// accepting before launching the remote process (step 5).
func (m *Manager) allocatePort() (int, net.Listener, error) {
	m.mu.Lock()
	start := ServerPortBase + (m.liveSessions % 1000)
	m.mu.Unlock()

	for port := start; port < start+1000; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return port, ln, nil
		}
	}
	return 0, nil, fmt.Errorf("no free port found starting at %d", start)
}

func (m *Manager) bootstrap(ctx context.Context, sess *Session, ln net.Listener, opts CreateOptions) error {
	sess.setState(models.StatePushing)
	if err := m.bus.Push(ctx, opts.ADBDeviceID, m.serverAsset, RemoteServerPath, m.pushRetries); err != nil {
		return err
	}

	socketName := fmt.Sprintf("scrcpy_%s", sess.Scid)
	if err := m.ensureReverseTunnel(ctx, opts.ADBDeviceID, socketName, sess.LocalPort); err != nil {
		return err
	}

	androidMajor, err := m.bus.GetAndroidMajorVersion(ctx, opts.ADBDeviceID)
	if err != nil {
		androidMajor = 0
	}
	sess.AndroidMajor = androidMajor
	audio := opts.Audio && androidMajor >= 11
	if opts.Audio && !audio {
		sess.sink.SendJSON(models.NewStatusEvent("Audio disabled (Android < 11)"))
	}

	prep, err := applyDisplayMode(ctx, m.bus, m.rot, m.log, opts.ADBDeviceID, opts.DisplayMode, opts.Resolution, opts.Dpi)
	if err != nil {
		return err
	}
	sess.dispCleanup = prep.cleanup
	sess.RotationSaved = opts.DisplayMode == models.DisplayNativeTaskbar
	sess.TurnScreenOffRequested = opts.TurnScreenOff

	sopts := models.ServerOptions{
		Video:              opts.Video,
		Audio:              audio,
		Control:            opts.Control,
		MaxFPS:             opts.MaxFPS,
		VideoBitRate:       opts.Bitrate,
		PowerOn:            true,
		PowerOffOnClose:    opts.TurnScreenOff,
		DisplayID:          prep.displayID,
		NewDisplay:         prep.newDisplay,
		CaptureOrientation: "",
		LogLevel:           "info",
		Scid:               sess.Scid,
	}
	sess.Options = sopts

	sess.setState(models.StateServerSpawning)
	if err := m.spawnServer(ctx, opts.ADBDeviceID, sopts); err != nil {
		return err
	}

	sess.setState(models.StateAwaitingSockets)
	if err := m.acceptSockets(ctx, sess, ln, opts.Video, audio, opts.Control); err != nil {
		return err
	}

	sess.setState(models.StateRunning)
	sess.sink.SendJSON(models.NewStatusEvent("Streaming started"))
	m.startPumpsAndRouter(sess)
	return nil
}

func (m *Manager) ensureReverseTunnel(ctx context.Context, adbDeviceID, socketName string, localPort int) error {
	existing, err := m.bus.ReverseList(ctx, adbDeviceID)
	if err != nil {
		return errs.Wrap(errs.ErrReverseSetupFailed, err.Error())
	}
	wanted := "localabstract:" + socketName
	for _, e := range existing {
		if e == wanted {
			return nil // already present, reuse per SPEC_FULL.md §4.3 step 4
		}
	}
	return m.bus.ReverseAdd(ctx, adbDeviceID, socketName, localPort)
}

// spawnServer launches the device server process. The process is
// expected to run for the lifetime of the session; its lifecycle
// outlives this call, torn down indirectly when cleanupSession closes
// the sockets it is serving.
func (m *Manager) spawnServer(ctx context.Context, adbDeviceID string, opts models.ServerOptions) error {
	args := append([]string{
		"CLASSPATH=" + RemoteServerPath,
		"app_process",
		"/",
		"com.androidcontrol.Server",
	}, opts.Tokens()...)
	stdout, cmd, err := m.bus.Shell(ctx, adbDeviceID, args...)
	if err != nil {
		return errs.Wrap(errs.ErrServerSpawnFailed, err.Error())
	}
	go m.drainServerLog(opts.Scid, stdout, cmd)
	return nil
}

// drainServerLog discards the device server's stdout so the process
// never blocks on a full pipe buffer, and reaps it once it exits (on
// session cleanup closing its sockets, or a crash) so its process
// handle isn't leaked.
func (m *Manager) drainServerLog(scid string, stdout io.ReadCloser, cmd *exec.Cmd) {
	io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil && m.log != nil {
		m.log.Debug("device server process exited", zap.String("scid", scid), zap.Error(err))
	}
}

// acceptSockets runs the acceptance phase in the fixed order
// video/audio/control, each bounded by HandshakeTimeout, per
// SPEC_FULL.md §4.3 step 7.
func (m *Manager) acceptSockets(ctx context.Context, sess *Session, ln net.Listener, wantVideo, wantAudio, wantControl bool) error {
	deviceNameRead := false

	if wantVideo {
		conn, err := acceptWithTimeout(ln, HandshakeTimeout)
		if err != nil {
			return errs.Wrap(errs.ErrHandshakeTimeout, err.Error())
		}
		conn.SetReadDeadline(time.Now().Add(HandshakeTimeout))
		if err := wire.ReadDummyByte(conn); err != nil {
			conn.Close()
			return err
		}
		if !deviceNameRead {
			name, err := wire.ReadDeviceName(conn)
			if err != nil {
				conn.Close()
				return err
			}
			sess.sink.SendJSON(models.NewDeviceNameEvent(name))
			deviceNameRead = true
		}
		_, w, h, err := wire.ReadVideoCodec(conn)
		if err != nil {
			conn.Close()
			return err
		}
		sess.sink.SendJSON(models.NewVideoInfoEvent(w, h))
		conn.SetReadDeadline(time.Time{})
		sess.sock.Video = conn
	}

	if wantAudio {
		conn, err := acceptWithTimeout(ln, HandshakeTimeout)
		if err != nil {
			return errs.Wrap(errs.ErrHandshakeTimeout, err.Error())
		}
		conn.SetReadDeadline(time.Now().Add(HandshakeTimeout))
		if err := wire.ReadDummyByte(conn); err != nil {
			conn.Close()
			return err
		}
		if !deviceNameRead {
			name, err := wire.ReadDeviceName(conn)
			if err != nil {
				conn.Close()
				return err
			}
			sess.sink.SendJSON(models.NewDeviceNameEvent(name))
			deviceNameRead = true
		}
		result, err := wire.ReadAudioCodec(conn)
		if err != nil {
			conn.Close()
			return err
		}
		if !result.Available {
			conn.Close()
			sess.sink.SendJSON(models.NewStatusEvent("Audio disabled (not available on device)"))
		} else {
			sess.sink.SendJSON(models.NewAudioInfoEvent(result.CodecID))
			conn.SetReadDeadline(time.Time{})
			sess.sock.Audio = conn
		}
	}

	if wantControl {
		conn, err := acceptWithTimeout(ln, HandshakeTimeout)
		if err != nil {
			return errs.Wrap(errs.ErrHandshakeTimeout, err.Error())
		}
		conn.SetReadDeadline(time.Now().Add(HandshakeTimeout))
		if err := wire.ReadDummyByte(conn); err != nil {
			conn.Close()
			return err
		}
		if !deviceNameRead {
			name, err := wire.ReadDeviceName(conn)
			if err != nil {
				conn.Close()
				return err
			}
			sess.sink.SendJSON(models.NewDeviceNameEvent(name))
			deviceNameRead = true
		}
		conn.SetReadDeadline(time.Time{})
		sess.sock.Control = conn
	}
	return nil
}

// acceptWithTimeout bounds a single Accept call, per SPEC_FULL.md §5.
func acceptWithTimeout(ln net.Listener, timeout time.Duration) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := ln.Accept()
		ch <- result{c, err}
	}()
	select {
	case r := <-ch:
		return r.conn, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timed out waiting for socket")
	}
}

func (m *Manager) startPumpsAndRouter(sess *Session) {
	onPumpError := func(err error) {
		if st := sess.State(); st == models.StateDraining || st == models.StateClosed {
			return // cleanup already under way; it reports the stop itself
		}
		sess.beginDraining()
		sess.sink.SendJSON(models.NewStatusEvent("Streaming stopped"))
		if err != nil {
			sess.sink.SendJSON(models.NewErrorEvent(err.Error()))
		}
		go m.CleanupSession(sess.Scid)
	}

	if sess.sock.Video != nil {
		sess.videoPump = newMediaPump(wire.KindVideo, sess.sock.Video, sess.sink, m.log, onPumpError)
		sess.pumpsWG.Add(1)
		go func() {
			defer sess.pumpsWG.Done()
			sess.videoPump.run()
		}()
	}
	if sess.sock.Audio != nil {
		sess.audioPump = newMediaPump(wire.KindAudio, sess.sock.Audio, sess.sink, m.log, onPumpError)
		sess.pumpsWG.Add(1)
		go func() {
			defer sess.pumpsWG.Done()
			sess.audioPump.run()
		}()
	}
	if sess.sock.Control != nil {
		sess.controlRtr = newControlRouter(sess.sock.Control, m.log, onPumpError)
		sess.pumpsWG.Add(1)
		go func() {
			defer sess.pumpsWG.Done()
			sess.controlRtr.run()
		}()
	}
}

// RouteControl forwards a binary frame from clientID's connection to
// its session's control socket, or drops it silently if the client
// owns no session, per SPEC_FULL.md §4.5.
func (m *Manager) RouteControl(clientID string, frame []byte) {
	sess, ok := m.SessionByOwner(clientID)
	if !ok || sess.controlRtr == nil {
		return
	}
	sess.controlRtr.Enqueue(frame)
}

// CleanupSession tears a session down idempotently, per SPEC_FULL.md
// §4.3's cleanupSession operation.
func (m *Manager) CleanupSession(scid string) {
	m.mu.Lock()
	sess, ok := m.sessions[scid]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.cleanupLocked(sess, nil)
}

func (m *Manager) cleanupLocked(sess *Session, startErr error) {
	alreadyDraining := sess.State() == models.StateDraining || sess.State() == models.StateClosed
	sess.beginDraining()

	if sess.sock.Control != nil {
		sess.sock.Control.Close()
	}
	if sess.sock.Video != nil {
		sess.sock.Video.Close()
	}
	if sess.sock.Audio != nil {
		sess.sock.Audio.Close()
	}
	if sess.controlRtr != nil {
		sess.controlRtr.Close()
	}

	joinWithTimeout(&sess.pumpsWG, PumpJoinTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	socketName := fmt.Sprintf("scrcpy_%s", sess.Scid)
	if err := m.bus.ReverseRemove(ctx, sess.ADBDeviceID, socketName); err != nil && m.log != nil {
		m.log.Warn("reverse tunnel removal failed", zap.String("scid", sess.Scid), zap.Error(err))
	}

	if sess.dispCleanup != nil && (sess.TurnScreenOffRequested || sess.DisplayMode == models.DisplayOverlay || sess.DisplayMode == models.DisplayNativeTaskbar) {
		if err := sess.dispCleanup(ctx); err != nil && m.log != nil {
			m.log.Warn("display mode cleanup failed", zap.String("scid", sess.Scid), zap.Error(err))
		}
	}

	if !alreadyDraining && sess.sink != nil {
		if startErr != nil {
			sess.sink.SendJSON(models.NewErrorEvent(startErr.Error()))
		} else {
			sess.sink.SendJSON(models.NewStatusEvent("Streaming stopped"))
		}
	}

	sess.setState(models.StateClosed)

	m.mu.Lock()
	delete(m.sessions, sess.Scid)
	if m.owners[sess.OwnerClientID] == sess.Scid {
		delete(m.owners, sess.OwnerClientID)
	}
	if m.liveSessions > 0 {
		m.liveSessions--
	}
	m.mu.Unlock()
}

// joinWithTimeout waits for every pump/router goroutine tracked in wg
// to return, bounded by d: their sockets are closed by the caller
// before this runs, so a blocked Read/Write unblocks with an error and
// the goroutine exits promptly. If d elapses first, cleanup proceeds
// anyway rather than hang the session indefinitely.
func joinWithTimeout(wg *sync.WaitGroup, d time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
	}
}

// Disconnect cleans up clientID's session if it owns one, per
// SPEC_FULL.md §4.6 "disconnect". Returns false if the client had no
// active session (idempotent "No active stream to stop" case).
func (m *Manager) Disconnect(clientID string) bool {
	sess, ok := m.SessionByOwner(clientID)
	if !ok {
		return false
	}
	m.CleanupSession(sess.Scid)
	return true
}

