// Package errs defines the session error taxonomy used across the
// gateway: sentinel causes that the adb, wire and session packages
// annotate with Wrap, which keeps them reachable through Is. Callers
// report errors to clients by their message text; no caller in this
// module branches on a sentinel.
package errs

import "github.com/pkg/errors"

// Pre-Running errors: fail start() before any device socket exists.
// No display-mode rollback is required for these.
var (
	ErrAdbUnavailable    = errors.New("adb unavailable")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrPushFailed        = errors.New("push failed")
	ErrReverseSetupFailed = errors.New("reverse tunnel setup failed")
	ErrServerSpawnFailed = errors.New("server spawn failed")
)

// Handshake-phase errors: fail start(); partial sockets are closed and
// any display-mode precondition commands are rolled back.
var (
	ErrHandshakeBadDummy  = errors.New("handshake: bad dummy byte")
	ErrHandshakeTimeout   = errors.New("handshake: timed out")
	ErrUnsupportedCodec   = errors.New("handshake: unsupported codec")
)

// Running-phase errors: the affected session transitions to Draining;
// they never terminate the process.
var (
	ErrSocketReset      = errors.New("socket reset")
	ErrSocketWriteError = errors.New("socket write error")
)

// Per-command errors: reported in the command's own response, never
// affect the owning session. ErrCommandTimeout is not returned by any
// code path: a command that outlives commandhub.DefaultCommandTimeout
// fails with the error of its cancelled adb call.
var (
	ErrCommandTimeout     = errors.New("command timed out")
	ErrCommandShellError  = errors.New("command shell error")
)

// ErrAlreadyAttached is returned by createSession when the requesting
// client already owns a live session.
var ErrAlreadyAttached = errors.New("client already attached to a session")

// ErrConnectionClosed names the failure of a command whose WebSocket
// connection has gone away. No code path returns it: CommandHub handles
// each command synchronously and keeps no pending correlations to fail
// when a connection closes.
var ErrConnectionClosed = errors.New("connection closed")

// Wrap annotates err with a message while preserving the sentinel
// underneath it for errors.Is/errors.Cause comparisons.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, msg)
}

// Is reports whether err wraps target, per the chain pkg/errors builds.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
