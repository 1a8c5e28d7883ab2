package commandhub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"androidcontrol/models"
	"androidcontrol/session"
)

const harFilesOutputDir = "output/har_files"

// handleStartHarTrace spawns the external HAR collector binary
// (Hub.harTraceBin), a collaborator process this repo only drives via
// stdin, per spec.md's Out of scope boundary. At most one trace runs
// per client, per SPEC_FULL.md §4.7.
func (h *Hub) handleStartHarTrace(clientID string, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.StartHarTraceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionStartHarTrace, env.CommandID, "malformed startHarTrace request")
		return
	}
	if h.harTraceBin == "" {
		fail(sink, models.ActionStartHarTrace, env.CommandID, "har trace collector not configured")
		return
	}

	st := h.clients.get(clientID)
	st.mu.Lock()
	if st.harCmd != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartHarTrace, env.CommandID, "har trace already running")
		return
	}

	if err := os.MkdirAll(harFilesOutputDir, 0o755); err != nil {
		st.mu.Unlock()
		fail(sink, models.ActionStartHarTrace, env.CommandID, err.Error())
		return
	}
	filename := req.HarFilename
	if filename == "" {
		filename = fmt.Sprintf("trace_%d.har", time.Now().Unix())
	}
	outPath := filepath.Join(harFilesOutputDir, filename)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, h.harTraceBin,
		"--url", req.URL,
		"--out", outPath,
		"--capture-time", strconv.Itoa(req.CaptureTime),
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		st.mu.Unlock()
		fail(sink, models.ActionStartHarTrace, env.CommandID, err.Error())
		return
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		st.mu.Unlock()
		fail(sink, models.ActionStartHarTrace, env.CommandID, err.Error())
		return
	}

	st.harCmd = cmd
	st.harStdin = stdin
	st.harCancel = cancel
	st.mu.Unlock()

	succeed(sink, models.ActionStartHarTrace, env.CommandID, "har trace started")
}

// handleStopHarTrace asks the collector to stop gracefully via stdin,
// escalating to termination after 1s, per SPEC_FULL.md §4.7.
func (h *Hub) handleStopHarTrace(clientID string, env models.Envelope, sink session.ClientSink) {
	st := h.clients.get(clientID)
	st.mu.Lock()
	cmd, stdin, cancel := st.harCmd, st.harStdin, st.harCancel
	st.harCmd, st.harStdin, st.harCancel = nil, nil, nil
	st.mu.Unlock()

	if cmd == nil {
		fail(sink, models.ActionStopHarTrace, env.CommandID, "no har trace running")
		return
	}

	done := make(chan struct{})
	go func() { cmd.Wait(); close(done) }()

	if stdin != nil {
		fmt.Fprintln(stdin, "STOP")
		stdin.Close()
	}
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
	cancel()

	succeed(sink, models.ActionStopHarTrace, env.CommandID, "har trace stopped")
}
