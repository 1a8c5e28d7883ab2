// Package adb implements the DeviceBus capability: a thin, cancellable
// wrapper over the adb binary that SessionManager and CommandHub use
// to enumerate devices, push files, manage reverse tunnels, and run
// shell commands, per SPEC_FULL.md §4.1. It is grounded on the
// teacher's adb.ADBClient, generalized to take context.Context on
// every blocking call and to split device listing from transport.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"androidcontrol/errs"

	"go.uber.org/zap"
)

// DeviceBus wraps the adb command-line tool.
type DeviceBus struct {
	binaryPath string
	log        *zap.Logger
}

// New resolves the adb binary per resolveBinaryPath's precedence
// (explicit path, then PATH lookup) and returns a DeviceBus, or
// errs.ErrAdbUnavailable if no usable binary is found.
func New(explicitPath string, log *zap.Logger) (*DeviceBus, error) {
	path, err := resolveBinaryPath(explicitPath)
	if err != nil {
		return nil, err
	}
	return &DeviceBus{binaryPath: path, log: log}, nil
}

// resolveBinaryPath picks adb from an explicit override (typically
// ADB_PATH from config.Config), else falls back to a PATH lookup,
// per SPEC_FULL.md §4.1.
func resolveBinaryPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		if p, err := exec.LookPath(explicit); err == nil {
			return p, nil
		}
	}
	if p, err := exec.LookPath("adb"); err == nil {
		return p, nil
	}
	return "", errs.ErrAdbUnavailable
}

// command builds an *exec.Cmd bound to ctx, targeting serial when
// non-empty.
func (b *DeviceBus) command(ctx context.Context, serial string, args ...string) *exec.Cmd {
	full := []string{}
	if serial != "" {
		full = append(full, "-s", serial)
	}
	full = append(full, args...)
	return exec.CommandContext(ctx, b.binaryPath, full...)
}

// ShellCollect runs a shell command to completion and returns its
// stdout, trimmed of surrounding whitespace.
func (b *DeviceBus) ShellCollect(ctx context.Context, serial string, cmd ...string) (string, error) {
	args := append([]string{"shell"}, cmd...)
	out, err := b.command(ctx, serial, args...).Output()
	if err != nil {
		return "", errs.Wrap(errs.ErrCommandShellError, fmt.Sprintf("shell %v: %v", cmd, err))
	}
	return strings.TrimSpace(string(out)), nil
}

// Shell runs a shell command and streams its stdout back to the
// caller. Cancelling ctx kills the underlying process.
func (b *DeviceBus) Shell(ctx context.Context, serial string, cmd ...string) (io.ReadCloser, *exec.Cmd, error) {
	args := append([]string{"shell"}, cmd...)
	c := b.command(ctx, serial, args...)
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, nil, errs.Wrap(err, "open shell stdout pipe")
	}
	c.Stderr = os.Stderr
	if err := c.Start(); err != nil {
		return nil, nil, errs.Wrap(errs.ErrServerSpawnFailed, err.Error())
	}
	return stdout, c, nil
}

// ShellInteractive starts an interactive shell with stdin/stdout
// pipes, used by CommandHub's startAdbShell/adbShellInput.
func (b *DeviceBus) ShellInteractive(ctx context.Context, serial string) (stdin io.WriteCloser, stdout io.ReadCloser, cmd *exec.Cmd, err error) {
	c := b.command(ctx, serial, "shell")
	stdin, err = c.StdinPipe()
	if err != nil {
		return nil, nil, nil, errs.Wrap(err, "open shell stdin pipe")
	}
	stdout, err = c.StdoutPipe()
	if err != nil {
		return nil, nil, nil, errs.Wrap(err, "open shell stdout pipe")
	}
	c.Stderr = os.Stderr
	if err := c.Start(); err != nil {
		return nil, nil, nil, errs.Wrap(errs.ErrServerSpawnFailed, err.Error())
	}
	return stdin, stdout, c, nil
}

// Push copies a local file to a path on the device, retrying up to
// maxRetries times before failing with errs.ErrPushFailed.
func (b *DeviceBus) Push(ctx context.Context, serial, localPath, remotePath string, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c := b.command(ctx, serial, "push", localPath, remotePath)
		var stderr bytes.Buffer
		c.Stderr = &stderr
		if err := c.Run(); err != nil {
			lastErr = fmt.Errorf("%v: %s", err, stderr.String())
			continue
		}
		return nil
	}
	return errs.Wrap(errs.ErrPushFailed, lastErr.Error())
}

// ReverseList returns the abstract-domain reverse tunnels currently
// registered for serial.
func (b *DeviceBus) ReverseList(ctx context.Context, serial string) ([]string, error) {
	out, err := b.command(ctx, serial, "reverse", "--list").Output()
	if err != nil {
		return nil, errs.Wrap(errs.ErrReverseSetupFailed, err.Error())
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// Format: <serial> <remote> <local>, e.g.
		// "emulator-5554 localabstract:scrcpy_a1b2c3d4 tcp:27183"
		if len(fields) >= 2 {
			names = append(names, fields[1])
		}
	}
	return names, nil
}

// ReverseAdd forwards localabstract:socketName to tcp:localPort. If
// the tunnel is already present (checked by the caller via
// ReverseList), this should not be called again — adb reverse is not
// idempotent across duplicate adds for the same remote name.
func (b *DeviceBus) ReverseAdd(ctx context.Context, serial, socketName string, localPort int) error {
	remote := fmt.Sprintf("localabstract:%s", socketName)
	local := fmt.Sprintf("tcp:%d", localPort)
	if err := b.command(ctx, serial, "reverse", remote, local).Run(); err != nil {
		return errs.Wrap(errs.ErrReverseSetupFailed, err.Error())
	}
	return nil
}

// ReverseRemove tears down a previously-added reverse tunnel.
func (b *DeviceBus) ReverseRemove(ctx context.Context, serial, socketName string) error {
	remote := fmt.Sprintf("localabstract:%s", socketName)
	return b.command(ctx, serial, "reverse", "--remove", remote).Run()
}
