package models

import (
	"fmt"

	"github.com/google/uuid"
)

// DisplayMode selects the on-device display the streaming server
// attaches to, per SPEC_FULL.md §6.
type DisplayMode string

const (
	DisplayDefault      DisplayMode = "default"
	DisplayOverlay      DisplayMode = "overlay"
	DisplayVirtual      DisplayMode = "virtual"
	DisplayDex          DisplayMode = "dex"
	DisplayNativeTaskbar DisplayMode = "native_taskbar"
)

// SessionState is a node of the session lifecycle state machine in
// SPEC_FULL.md §3. Failed is transient: it always transitions
// immediately to Draining and is never observed at rest.
type SessionState string

const (
	StateProvisioning   SessionState = "provisioning"
	StatePushing        SessionState = "pushing"
	StateServerSpawning SessionState = "server_spawning"
	StateAwaitingSockets SessionState = "awaiting_sockets"
	StateRunning        SessionState = "running"
	StateFailed         SessionState = "failed"
	StateDraining       SessionState = "draining"
	StateClosed         SessionState = "closed"
)

// ServerOptions are the on-device server's key=value bootstrap
// arguments, per SPEC_FULL.md §6. Audio is forced off by the caller
// (not here) when the device's Android major version is below 11.
type ServerOptions struct {
	Video              bool
	Audio              bool
	Control            bool
	MaxFPS             int
	VideoBitRate        int
	PowerOn             bool
	PowerOffOnClose     bool
	DisplayID           int
	NewDisplay          string // "<W>x<H>/<DPI>", empty if unset
	CaptureOrientation  string
	LogLevel            string
	Scid                string
}

// Tokens serializes the options as the space-separated key=value
// argument list the device server expects.
func (o ServerOptions) Tokens() []string {
	tokens := []string{
		fmt.Sprintf("video=%t", o.Video),
		fmt.Sprintf("audio=%t", o.Audio),
		fmt.Sprintf("control=%t", o.Control),
		fmt.Sprintf("scid=%s", o.Scid),
	}
	if o.MaxFPS > 0 {
		tokens = append(tokens, fmt.Sprintf("max_fps=%d", o.MaxFPS))
	}
	if o.VideoBitRate > 0 {
		tokens = append(tokens, fmt.Sprintf("video_bit_rate=%d", o.VideoBitRate))
	}
	tokens = append(tokens, fmt.Sprintf("power_on=%t", o.PowerOn))
	tokens = append(tokens, fmt.Sprintf("power_off_on_close=%t", o.PowerOffOnClose))
	if o.DisplayID != 0 {
		tokens = append(tokens, fmt.Sprintf("display_id=%d", o.DisplayID))
	}
	if o.NewDisplay != "" {
		tokens = append(tokens, fmt.Sprintf("new_display=%s", o.NewDisplay))
	}
	if o.CaptureOrientation != "" {
		tokens = append(tokens, fmt.Sprintf("capture_orientation=%s", o.CaptureOrientation))
	}
	if o.LogLevel != "" {
		tokens = append(tokens, fmt.Sprintf("log_level=%s", o.LogLevel))
	}
	return tokens
}

// SessionSockets tracks the three TCP sockets a session may own. Each
// field is nil until its handshake completes.
type SessionSockets struct {
	Video   SocketHandle
	Audio   SocketHandle
	Control SocketHandle
}

// SocketHandle is satisfied by net.Conn; declared here so models has
// no net dependency while session/wire can pass their concrete conns.
type SocketHandle interface {
	Close() error
}

// NewScid generates a session correlation id: 31 random bits formatted
// as 8 lowercase hex characters, per SPEC_FULL.md §3/GLOSSARY.
func NewScid() string {
	id := uuid.New()
	// Fold the random uuid down to 31 bits so the hex text is always
	// exactly 8 lowercase characters, matching the spec's format.
	b := id[:]
	v := (uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])) & 0x7fffffff
	return fmt.Sprintf("%08x", v)
}
