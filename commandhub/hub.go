// Package commandhub implements the request/response JSON command
// surface multiplexed over the same WebSocket as the media/control
// streams, per SPEC_FULL.md §4.6. It is grounded on the teacher's
// ActionDispatcher (a switch-on-type dispatch table over ADB calls),
// generalized to the spec's full command table with commandId
// correlation and per-command timeouts.
package commandhub

import (
	"context"
	"encoding/json"
	"time"

	"androidcontrol/adb"
	"androidcontrol/models"
	"androidcontrol/session"
	"androidcontrol/store"

	"go.uber.org/zap"
)

// DefaultCommandTimeout bounds the round trip of the request/response
// commands Dispatch runs under its derived context, per SPEC_FULL.md
// §5. start, wifiToggle, and the diagnostics, HAR trace, and shell
// commands are not bounded by it.
const DefaultCommandTimeout = 15 * time.Second

// Hub dispatches JSON commands from a client connection to DeviceBus,
// SessionManager, or the rotation store, and writes back a correlated
// Response through the caller's session.ClientSink.
type Hub struct {
	bus      *adb.DeviceBus
	sessions *session.Manager
	rot      *store.RotationStore
	devices  *deviceRegistry
	clients  *clientStates
	log      *zap.Logger

	harTraceBin string
}

// New builds a Hub. harTraceBin is the external HAR collector binary
// invoked by startHarTrace; it is a collaborator interface only, per
// spec.md's Out of scope list.
func New(bus *adb.DeviceBus, sessions *session.Manager, rot *store.RotationStore, log *zap.Logger, harTraceBin string) *Hub {
	return &Hub{
		bus:         bus,
		sessions:    sessions,
		rot:         rot,
		devices:     newDeviceRegistry(bus),
		clients:     newClientStates(),
		log:         log,
		harTraceBin: harTraceBin,
	}
}

// CleanupClient releases every process a disconnecting client owned
// and cancels its session, per SPEC_FULL.md §4.7.
func (h *Hub) CleanupClient(clientID string) {
	h.clients.cleanup(clientID)
	h.sessions.Disconnect(clientID)
}

// ScanDevices re-enumerates attached devices via DeviceBus, for the
// REST GET /api/devices and POST /api/devices/scan routes in the
// gateway package.
func (h *Hub) ScanDevices(ctx context.Context) ([]models.Device, error) {
	return h.devices.scan(ctx)
}

// Dispatch routes one decoded text frame to its handler. sink receives
// every response/event the handler produces.
func (h *Hub) Dispatch(ctx context.Context, clientID string, sink session.ClientSink, raw []byte) {
	env, err := models.ParseEnvelope(raw)
	if err != nil {
		sink.SendJSON(models.NewErrorEvent("malformed command"))
		return
	}

	cctx, cancel := context.WithTimeout(ctx, DefaultCommandTimeout)
	defer cancel()

	switch env.Action {
	case models.ActionGetAdbDevices:
		h.handleGetAdbDevices(cctx, env, sink)
	case models.ActionStart:
		h.handleStart(ctx, clientID, raw, env, sink) // session bootstrap is long-lived; not bounded by DefaultCommandTimeout
	case models.ActionDisconnect:
		h.handleDisconnect(clientID, env, sink)
	case models.ActionVolume:
		h.handleVolume(cctx, raw, env, sink)
	case models.ActionGetVolume:
		h.handleGetVolume(cctx, env, sink)
	case models.ActionNavAction:
		h.handleNavAction(cctx, raw, env, sink)
	case models.ActionWifiToggle:
		h.handleWifiToggle(ctx, raw, env, sink) // bounded by its own poll counts, not DefaultCommandTimeout
	case models.ActionGetWifiStatus:
		h.handleGetWifiStatus(cctx, env, sink)
	case models.ActionGetBatteryLevel:
		h.handleGetBatteryLevel(cctx, env, sink)
	case models.ActionLaunchApp:
		h.handleLaunchApp(cctx, raw, env, sink)
	case models.ActionAdbCommand:
		h.handleAdbCommand(cctx, raw, env, sink)
	case models.ActionStartDiagnostics:
		h.handleStartDiagnostics(clientID, raw, env, sink)
	case models.ActionStopDiagnostics:
		h.handleStopDiagnostics(clientID, env, sink)
	case models.ActionStartHarTrace:
		h.handleStartHarTrace(clientID, raw, env, sink)
	case models.ActionStopHarTrace:
		h.handleStopHarTrace(clientID, env, sink)
	case models.ActionStartAdbShell:
		h.handleStartAdbShell(clientID, env, sink)
	case models.ActionAdbShellInput:
		h.handleAdbShellInput(clientID, raw, env, sink)
	case models.ActionStopAdbShell:
		h.handleStopAdbShell(clientID, env, sink)
	default:
		sink.SendJSON(models.NewErrorEvent("Unknown action"))
	}
}

func fail(sink session.ClientSink, action models.Action, commandID, message string) {
	resp := models.NewResponse(string(action), commandID, false)
	resp.Message = message
	resp.Error = message
	sink.SendJSON(resp)
}

func succeed(sink session.ClientSink, action models.Action, commandID, message string) {
	resp := models.NewResponse(string(action), commandID, true)
	resp.Message = message
	sink.SendJSON(resp)
}

func (h *Hub) handleGetAdbDevices(ctx context.Context, env models.Envelope, sink session.ClientSink) {
	devices, err := h.devices.scan(ctx)
	if err != nil {
		fail(sink, models.ActionGetAdbDevices, env.CommandID, err.Error())
		return
	}
	payload := struct {
		Type      string          `json:"type"`
		CommandID string          `json:"commandId,omitempty"`
		Success   bool            `json:"success"`
		Devices   []models.Device `json:"devices"`
	}{Type: "adbDevicesList", CommandID: env.CommandID, Success: true, Devices: devices}
	sink.SendJSON(payload)
}

func (h *Hub) handleDisconnect(clientID string, env models.Envelope, sink session.ClientSink) {
	had := h.sessions.Disconnect(clientID)
	if !had {
		succeed(sink, models.ActionDisconnect, env.CommandID, "No active stream to stop")
		return
	}
	succeed(sink, models.ActionDisconnect, env.CommandID, "Streaming stopped")
}

func (h *Hub) handleStart(ctx context.Context, clientID string, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.StartRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionStart, env.CommandID, "malformed start request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionStart, env.CommandID, "device not found")
		return
	}

	opts := session.CreateOptions{
		ClientID:      clientID,
		DeviceID:      device.ID,
		ADBDeviceID:   device.ADBDeviceID,
		Video:         req.Video,
		Audio:         req.Audio,
		Control:       req.Control,
		MaxFPS:        req.MaxFPS,
		Bitrate:       req.Bitrate,
		DisplayMode:   req.DisplayMode,
		Resolution:    req.Resolution,
		Dpi:           req.Dpi,
		TurnScreenOff: req.TurnScreenOff,
		Sink:          sink,
	}

	go func() {
		if _, err := h.sessions.CreateSession(ctx, opts); err != nil {
			h.devices.invalidateCache(device.ID)
			fail(sink, models.ActionStart, env.CommandID, err.Error())
		}
	}()
}

func (h *Hub) handleVolume(ctx context.Context, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.VolumeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionVolume, env.CommandID, "malformed volume request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionVolume, env.CommandID, "device not found")
		return
	}
	if req.Value < 0 || req.Value > 100 {
		fail(sink, models.ActionVolume, env.CommandID, "value out of range")
		return
	}

	major := h.devices.cachedAndroidMajor(device.ID)
	if major == 0 {
		if v, err := h.bus.GetAndroidMajorVersion(ctx, device.ADBDeviceID); err == nil {
			major = v
			h.devices.setCachedAndroidMajor(device.ID, v)
		}
	}
	maxVol := h.devices.cachedMaxVolume(device.ID)
	if maxVol == 0 {
		if v, err := h.bus.GetMaxMediaVolume(ctx, device.ADBDeviceID); err == nil {
			maxVol = v
			h.devices.setCachedMaxVolume(device.ID, v)
		} else {
			maxVol = 15
		}
	}

	target := (req.Value * maxVol) / 100
	if err := h.bus.SetMediaVolume(ctx, device.ADBDeviceID, major, target); err != nil {
		fail(sink, models.ActionVolume, env.CommandID, err.Error())
		return
	}
	succeed(sink, models.ActionVolume, env.CommandID, "volume set")
}

func (h *Hub) handleGetVolume(ctx context.Context, env models.Envelope, sink session.ClientSink) {
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionGetVolume, env.CommandID, "device not found")
		return
	}
	maxVol := h.devices.cachedMaxVolume(device.ID)
	if maxVol == 0 {
		v, err := h.bus.GetMaxMediaVolume(ctx, device.ADBDeviceID)
		if err != nil {
			fail(sink, models.ActionGetVolume, env.CommandID, err.Error())
			return
		}
		maxVol = v
		h.devices.setCachedMaxVolume(device.ID, v)
	}
	payload := struct {
		Type      string `json:"type"`
		CommandID string `json:"commandId,omitempty"`
		Success   bool   `json:"success"`
		MaxVolume int    `json:"maxVolume"`
	}{Type: "volumeInfo", CommandID: env.CommandID, Success: true, MaxVolume: maxVol}
	sink.SendJSON(payload)
}

func (h *Hub) handleNavAction(ctx context.Context, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.NavActionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionNavAction, env.CommandID, "malformed navAction request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionNavAction, env.CommandID, "device not found")
		return
	}
	keycode, ok := navKeycodes[req.Key]
	if !ok {
		fail(sink, models.ActionNavAction, env.CommandID, "invalid key")
		return
	}
	if err := h.bus.SendKeyEvent(ctx, device.ADBDeviceID, keycode); err != nil {
		fail(sink, models.ActionNavAction, env.CommandID, err.Error())
		return
	}
	succeed(sink, models.ActionNavAction, env.CommandID, "ok")
}

// handleWifiToggle polls up to 10x500ms for the radio state to flip,
// then up to 15x500ms more for an SSID to resolve, per SPEC_FULL.md §5.
func (h *Hub) handleWifiToggle(ctx context.Context, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.WifiToggleRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionWifiToggle, env.CommandID, "malformed wifiToggle request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionWifiToggle, env.CommandID, "device not found")
		return
	}
	if err := h.bus.WifiEnable(ctx, device.ADBDeviceID, req.Enable); err != nil {
		fail(sink, models.ActionWifiToggle, env.CommandID, err.Error())
		return
	}

	var confirmed bool
	for i := 0; i < 10; i++ {
		enabled, _, err := h.bus.WifiStatus(ctx, device.ADBDeviceID)
		if err == nil && enabled == req.Enable {
			confirmed = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if !confirmed {
		fail(sink, models.ActionWifiToggle, env.CommandID, "timeout confirming wifi state")
		return
	}

	if req.Enable {
		for i := 0; i < 15; i++ {
			_, ssid, err := h.bus.WifiStatus(ctx, device.ADBDeviceID)
			if err == nil && ssid != "" {
				break
			}
			time.Sleep(500 * time.Millisecond)
		}
	}
	succeed(sink, models.ActionWifiToggle, env.CommandID, "ok")
}

func (h *Hub) handleGetWifiStatus(ctx context.Context, env models.Envelope, sink session.ClientSink) {
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionGetWifiStatus, env.CommandID, "device not found")
		return
	}
	enabled, ssid, err := h.bus.WifiStatus(ctx, device.ADBDeviceID)
	if err != nil {
		fail(sink, models.ActionGetWifiStatus, env.CommandID, err.Error())
		return
	}
	payload := struct {
		Type      string `json:"type"`
		CommandID string `json:"commandId,omitempty"`
		Success   bool   `json:"success"`
		Enabled   bool   `json:"enabled"`
		SSID      string `json:"ssid,omitempty"`
	}{Type: "wifiStatus", CommandID: env.CommandID, Success: true, Enabled: enabled, SSID: ssid}
	sink.SendJSON(payload)
}

func (h *Hub) handleGetBatteryLevel(ctx context.Context, env models.Envelope, sink session.ClientSink) {
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionGetBatteryLevel, env.CommandID, "device not found")
		return
	}
	level, err := h.bus.GetBatteryLevel(ctx, device.ADBDeviceID)
	if err != nil {
		fail(sink, models.ActionGetBatteryLevel, env.CommandID, err.Error())
		return
	}
	payload := struct {
		Type      string `json:"type"`
		CommandID string `json:"commandId,omitempty"`
		Success   bool   `json:"success"`
		Battery   int    `json:"battery"`
	}{Type: "batteryInfo", CommandID: env.CommandID, Success: true, Battery: level}
	sink.SendJSON(payload)
}

func (h *Hub) handleLaunchApp(ctx context.Context, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.LaunchAppRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionLaunchApp, env.CommandID, "malformed launchApp request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionLaunchApp, env.CommandID, "device not found")
		return
	}
	if err := h.bus.LaunchApp(ctx, device.ADBDeviceID, req.PackageName); err != nil {
		fail(sink, models.ActionLaunchApp, env.CommandID, err.Error())
		return
	}
	succeed(sink, models.ActionLaunchApp, env.CommandID, "launched")
}
