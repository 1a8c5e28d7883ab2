package commandhub

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"androidcontrol/models"
	"androidcontrol/session"
)

// adbShellOutputEvent is the unsolicited event streamed back for every
// line an interactive shell session produces, per SPEC_FULL.md §4.7.
type adbShellOutputEvent struct {
	Type string `json:"type"`
	Line string `json:"line"`
}

// handleStartAdbShell opens one interactive shell per client, per
// SPEC_FULL.md §4.7 ("One per client").
func (h *Hub) handleStartAdbShell(clientID string, env models.Envelope, sink session.ClientSink) {
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionStartAdbShell, env.CommandID, "device not found")
		return
	}

	st := h.clients.get(clientID)
	st.mu.Lock()
	if st.shellCmd != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartAdbShell, env.CommandID, "shell already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	stdin, stdout, cmd, err := h.bus.ShellInteractive(ctx, device.ADBDeviceID)
	if err != nil {
		cancel()
		st.mu.Unlock()
		fail(sink, models.ActionStartAdbShell, env.CommandID, err.Error())
		return
	}
	st.shellStdin = stdin
	st.shellStdout = stdout
	st.shellCmd = cmd
	st.shellCancel = cancel
	st.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			sink.SendJSON(adbShellOutputEvent{Type: "adbShellOutput", Line: scanner.Text()})
		}
	}()

	succeed(sink, models.ActionStartAdbShell, env.CommandID, "shell started")
}

// handleAdbShellInput writes one line to the running shell's stdin,
// echoing it back as an adbShellOutput event.
func (h *Hub) handleAdbShellInput(clientID string, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.AdbShellInputRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionAdbShellInput, env.CommandID, "malformed adbShellInput request")
		return
	}

	st := h.clients.get(clientID)
	st.mu.Lock()
	stdin := st.shellStdin
	st.mu.Unlock()
	if stdin == nil {
		fail(sink, models.ActionAdbShellInput, env.CommandID, "no shell running")
		return
	}

	sink.SendJSON(adbShellOutputEvent{Type: "adbShellOutput", Line: fmt.Sprintf("$ %s", req.Input)})
	if _, err := fmt.Fprintln(stdin, req.Input); err != nil {
		fail(sink, models.ActionAdbShellInput, env.CommandID, err.Error())
		return
	}
	succeed(sink, models.ActionAdbShellInput, env.CommandID, "ok")
}

// handleStopAdbShell terminates the client's interactive shell.
func (h *Hub) handleStopAdbShell(clientID string, env models.Envelope, sink session.ClientSink) {
	st := h.clients.get(clientID)
	st.mu.Lock()
	cancel := st.shellCancel
	st.shellStdin, st.shellStdout, st.shellCmd, st.shellCancel = nil, nil, nil, nil
	st.mu.Unlock()

	if cancel == nil {
		fail(sink, models.ActionStopAdbShell, env.CommandID, "no shell running")
		return
	}
	cancel()
	succeed(sink, models.ActionStopAdbShell, env.CommandID, "shell stopped")
}
