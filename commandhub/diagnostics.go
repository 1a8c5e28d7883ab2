package commandhub

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"androidcontrol/models"
	"androidcontrol/session"

	"go.uber.org/zap"
)

const diagnosticsOutputDir = "output/diagnostics"

// diagnosticSnapshots maps a diagnostics request's selector names to the
// adb shell command that collects it, per SPEC_FULL.md §4.7.
var diagnosticSnapshots = map[string][]string{
	"battery":   {"dumpsys", "battery"},
	"meminfo":   {"dumpsys", "meminfo"},
	"cpuinfo":   {"dumpsys", "cpuinfo"},
	"wifi":      {"dumpsys", "wifi"},
	"display":   {"dumpsys", "display"},
	"processes": {"ps", "-A"},
}

// handleStartDiagnostics collects the requested snapshots, then streams
// logcat into the same log file until stopDiagnostics cancels it. At
// most one diagnostics session runs per client connection; sessions
// started by different clients are not checked against each other, so
// two clients can run diagnostics on the same device at once.
func (h *Hub) handleStartDiagnostics(clientID string, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.StartDiagnosticsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionStartDiagnostics, env.CommandID, "malformed startDiagnostics request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionStartDiagnostics, env.CommandID, "device not found")
		return
	}

	st := h.clients.get(clientID)
	st.mu.Lock()
	if st.diagCancel != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartDiagnostics, env.CommandID, "diagnostics already running for this client")
		return
	}

	if err := os.MkdirAll(diagnosticsOutputDir, 0o755); err != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartDiagnostics, env.CommandID, err.Error())
		return
	}
	name := fmt.Sprintf("device_diagnostics_%s_%d.log", device.ID, time.Now().Unix())
	f, err := os.Create(filepath.Join(diagnosticsOutputDir, name))
	if err != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartDiagnostics, env.CommandID, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	st.diagDeviceID = device.ID
	st.diagFile = f
	st.diagCancel = cancel
	st.mu.Unlock()

	for _, sel := range req.Diagnostics {
		cmd, ok := diagnosticSnapshots[sel]
		if !ok {
			continue
		}
		out, err := h.bus.ShellCollect(ctx, device.ADBDeviceID, cmd...)
		fmt.Fprintf(f, "=== %s ===\n%s\n\n", sel, out)
		if err != nil && h.log != nil {
			h.log.Debug("diagnostics snapshot failed", zap.Error(err))
		}
	}

	go h.streamLogcat(ctx, device.ADBDeviceID, f)

	succeed(sink, models.ActionStartDiagnostics, env.CommandID, "diagnostics started")
}

func (h *Hub) streamLogcat(ctx context.Context, serial string, f *os.File) {
	stdout, cmd, err := h.bus.Shell(ctx, serial, "logcat")
	if err != nil {
		return
	}
	defer cmd.Wait()
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(f, scanner.Text())
	}
}

// handleStopDiagnostics cancels the running logcat stream and closes
// the log file.
func (h *Hub) handleStopDiagnostics(clientID string, env models.Envelope, sink session.ClientSink) {
	st := h.clients.get(clientID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.diagCancel == nil {
		fail(sink, models.ActionStopDiagnostics, env.CommandID, "no diagnostics running")
		return
	}
	st.diagCancel()
	if st.diagFile != nil {
		st.diagFile.Close()
	}
	st.diagCancel = nil
	st.diagFile = nil
	st.diagDeviceID = ""
	succeed(sink, models.ActionStopDiagnostics, env.CommandID, "diagnostics stopped")
}
